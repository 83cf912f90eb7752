package config

import (
	"context"
	"fmt"
)

// Source produces a complete Config. There are two implementations:
// the interactive wizard and a non-interactive source fed entirely by
// flags and environment variables. The orchestrator picks one at startup
// and uses it uniformly, so tests never need a real terminal.
type Source interface {
	Collect(ctx context.Context, existing *Config) (*Config, error)
}

// NonInteractive builds a Config from saved state, environment overrides
// and defaults without prompting. Any field the wizard would have asked
// for must already be present.
type NonInteractive struct{}

// Collect merges existing state with env overrides and validates the
// result. Missing answers are an input error, not a prompt.
func (NonInteractive) Collect(_ context.Context, existing *Config) (*Config, error) {
	cfg := &Config{}
	if existing != nil {
		*cfg = *existing
	}
	cfg.ApplyEnvOverrides()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("non-interactive mode requires all answers via flags, environment or saved config: %w", err)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("non-interactive mode requires %s to be set", EnvClientSecret)
	}
	return cfg, nil
}
