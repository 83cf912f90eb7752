package plan

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	planTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3b82f6"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#eab308"))

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f9fafb"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b7280"))
)

// Render formats the plan for terminal review. Plain text keeps the
// commands copy-pasteable; styling is limited to headers and notes.
func (p *Plan) Render() string {
	var b strings.Builder

	if p.Action == ActionNone {
		b.WriteString("Nothing to do: no sensor release is installed.\n")
		return b.String()
	}

	title := fmt.Sprintf("Deployment plan (%s)", p.Action)
	b.WriteString(planTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", len(title))))
	b.WriteString("\n")

	if p.Warning != "" {
		b.WriteString(warningStyle.Render("Note: " + p.Warning))
		b.WriteString("\n")
	}
	if p.ValuesPath != "" {
		b.WriteString(dimStyle.Render("Values file: " + p.ValuesPath))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("Run these commands in order:\n\n")
	for _, cmd := range p.Commands {
		if cmd.Verification {
			continue
		}
		b.WriteString(dimStyle.Render("# " + cmd.Description))
		b.WriteString("\n")
		b.WriteString(commandStyle.Render(cmd.Cmd))
		b.WriteString("\n")
	}

	verifications := p.verifications()
	if len(verifications) > 0 {
		b.WriteString("\nThen verify:\n\n")
		for _, cmd := range verifications {
			b.WriteString(dimStyle.Render("# " + cmd.Description))
			b.WriteString("\n")
			b.WriteString(commandStyle.Render(cmd.Cmd))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Script returns only the non-verification commands, one per line, for
// piping into a shell or clipboard.
func (p *Plan) Script() string {
	var lines []string
	for _, cmd := range p.Commands {
		if !cmd.Verification {
			lines = append(lines, cmd.Cmd)
		}
	}
	return strings.Join(lines, "\n")
}

func (p *Plan) verifications() []Command {
	var out []Command
	for _, cmd := range p.Commands {
		if cmd.Verification {
			out = append(out, cmd)
		}
	}
	return out
}
