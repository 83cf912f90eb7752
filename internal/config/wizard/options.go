package wizard

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/iitdistribution/falconprep/internal/config"
	"github.com/iitdistribution/falconprep/internal/falcon"
)

// RegionOptions returns the fixed region choices for the select prompt.
func RegionOptions() []huh.Option[string] {
	ids := falcon.RegionIDs()
	opts := make([]huh.Option[string], 0, len(ids))
	for _, id := range ids {
		opts = append(opts, huh.NewOption(id, id))
	}
	return opts
}

// BackendOptions returns the sensor backend choices.
func BackendOptions() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption("bpf (eBPF user mode)", config.BackendBPF),
		huh.NewOption("kernel (kernel module)", config.BackendKernel),
	}
}

// required rejects empty or whitespace-only input.
func required(field string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
