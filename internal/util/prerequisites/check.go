// Package prerequisites checks that the client tools the emitted plan
// depends on are installed and recent enough.
package prerequisites

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Tool is a client binary the plan commands will invoke.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// MinVersion is the lowest accepted version, empty to skip the check.
	MinVersion string

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string

	// versionArgs and versionPattern extract the version string from the
	// tool's own version output.
	versionArgs    []string
	versionPattern *regexp.Regexp
}

var semverPattern = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)

// DefaultTools returns the tools every deployment plan needs: helm runs
// the chart, kubectl handles the namespace and verification commands.
func DefaultTools() []Tool {
	return []Tool{
		{
			Name:           "helm",
			MinVersion:     "3.0.0",
			Description:    "Required for installing and upgrading the sensor chart",
			InstallURL:     "https://helm.sh/docs/intro/install/",
			versionArgs:    []string{"version", "--short"},
			versionPattern: semverPattern,
		},
		{
			Name:           "kubectl",
			MinVersion:     "1.20.0",
			Description:    "Required for namespace setup and rollout verification",
			InstallURL:     "https://kubernetes.io/docs/tasks/tools/",
			versionArgs:    []string{"version", "--client", "--output=yaml"},
			versionPattern: regexp.MustCompile(`gitVersion:\s*v?(\d+\.\d+\.\d+)`),
		},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
	// TooOld is set when the tool was found but below MinVersion.
	TooOld bool
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []CheckResult
}

// HasErrors returns true if any tool is missing or too old.
func (r *CheckResults) HasErrors() bool {
	return len(r.Missing) > 0
}

// Error returns an error describing missing or outdated tools, nil when
// everything checks out.
func (r *CheckResults) Error() error {
	var problems []string
	for _, res := range r.Missing {
		if res.TooOld {
			problems = append(problems, fmt.Sprintf("%s %s is older than %s (%s)",
				res.Tool.Name, res.Version, res.Tool.MinVersion, res.Tool.InstallURL))
		} else {
			problems = append(problems, fmt.Sprintf("%s not found (%s)",
				res.Tool.Name, res.Tool.InstallURL))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(problems, ", "))
}

// Check verifies that the specified tools are available and recent enough.
func Check(tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := lookPath(tool.Name)
		if err != nil {
			results.Missing = append(results.Missing, result)
			results.Results = append(results.Results, result)
			continue
		}
		result.Found = true
		result.Path = path
		result.Version = toolVersion(tool)

		if tool.MinVersion != "" && result.Version != "" && !meetsMinimum(result.Version, tool.MinVersion) {
			result.TooOld = true
			results.Missing = append(results.Missing, result)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// CheckDefault checks the default required tools.
func CheckDefault() *CheckResults {
	return Check(DefaultTools())
}

// lookPath and runVersion are replaceable in tests.
var (
	lookPath   = exec.LookPath
	runVersion = func(name string, args ...string) (string, error) {
		out, err := exec.Command(name, args...).CombinedOutput()
		return string(out), err
	}
)

// toolVersion extracts the tool's version, best effort. Returns empty
// when the output does not match; the tool is then accepted as-is.
func toolVersion(tool Tool) string {
	if len(tool.versionArgs) == 0 || tool.versionPattern == nil {
		return ""
	}
	out, err := runVersion(tool.Name, tool.versionArgs...)
	if err != nil {
		return ""
	}
	m := tool.versionPattern.FindStringSubmatch(out)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func meetsMinimum(version, minimum string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return true
	}
	min, err := semver.NewVersion(minimum)
	if err != nil {
		return true
	}
	return !v.LessThan(min)
}
