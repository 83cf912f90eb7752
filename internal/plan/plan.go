// Package plan turns the detected cluster state and the operator's intent
// into a rendered values file and an ordered list of shell commands. The
// commands are printed for review and never executed by this tool.
package plan

import (
	"fmt"

	"github.com/iitdistribution/falconprep/internal/config"
	"github.com/iitdistribution/falconprep/internal/k8s"
)

// Action is the effective action a plan carries, after reconciling the
// request with the cluster state.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUpgrade   Action = "upgrade"
	ActionUninstall Action = "uninstall"
	// ActionNone means nothing to do: uninstall requested with no release
	// present.
	ActionNone Action = "none"
)

// Command is one shell command in the plan.
type Command struct {
	Description  string
	Cmd          string
	Verification bool
}

// Plan is the ordered command sequence plus the artifacts it references.
type Plan struct {
	Action     Action
	Warning    string
	ValuesPath string
	Commands   []Command
}

// Decide maps (requested action, release state) to the effective plan
// action. Every combination is enumerable:
//
//	              NotPresent             Present              Unknown
//	install       install                upgrade + warning    error
//	upgrade       install + warning      upgrade              error
//	uninstall     none                   uninstall            error
//
// Unknown state always aborts: a query failure must never be treated as
// "not installed".
func Decide(requested config.Action, state k8s.ReleaseState) (Action, string, error) {
	if state == k8s.StateUnknown {
		return "", "", fmt.Errorf("release state is unknown, refusing to plan")
	}

	switch requested {
	case config.ActionInstall:
		if state == k8s.StatePresent {
			return ActionUpgrade, "release already installed; planning an upgrade instead", nil
		}
		return ActionInstall, "", nil
	case config.ActionUpgrade:
		if state == k8s.StateNotPresent {
			return ActionInstall, "nothing to upgrade; planning a fresh install instead", nil
		}
		return ActionUpgrade, "", nil
	case config.ActionUninstall:
		if state == k8s.StateNotPresent {
			return ActionNone, "", nil
		}
		return ActionUninstall, "", nil
	default:
		return "", "", fmt.Errorf("unknown action %q", requested)
	}
}
