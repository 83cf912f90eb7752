// Package wizard implements the interactive configuration flow using huh
// forms. Saved answers prefill the defaults so a re-run only asks for what
// changed.
package wizard

import (
	"context"
	"fmt"

	"github.com/iitdistribution/falconprep/internal/config"
)

// Wizard is the interactive config.Source implementation.
type Wizard struct{}

// New returns the interactive wizard.
func New() *Wizard {
	return &Wizard{}
}

// Collect runs the full question flow and returns a validated Config.
func (w *Wizard) Collect(ctx context.Context, existing *config.Config) (*config.Config, error) {
	cfg := &config.Config{}
	if existing != nil {
		*cfg = *existing
	}
	cfg.ApplyEnvOverrides()
	cfg.ApplyDefaults()

	if err := runIdentityGroup(ctx, cfg); err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	if err := runCredentialsGroup(ctx, cfg); err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}
	if err := runRegionGroup(ctx, cfg); err != nil {
		return nil, fmt.Errorf("region: %w", err)
	}
	if err := runRegistryGroup(ctx, cfg); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if err := runSensorGroup(ctx, cfg); err != nil {
		return nil, fmt.Errorf("sensor options: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PromptSecret asks only for the API client secret. Used when a saved
// config is reused but the secret was not persisted.
func PromptSecret(ctx context.Context, cfg *config.Config) error {
	if err := runSecretGroup(ctx, cfg); err != nil {
		return fmt.Errorf("credentials: %w", err)
	}
	if cfg.ClientSecret == "" {
		return fmt.Errorf("client secret is required to proceed")
	}
	return nil
}

// ConfirmReuse asks whether the saved configuration should be reused.
func ConfirmReuse(ctx context.Context, path string) (bool, error) {
	return confirm(ctx, fmt.Sprintf("Found a saved configuration at %s. Reuse it?", path), true)
}

// ConfirmUninstallCleanup asks whether namespace and saved configuration
// should be removed as part of the uninstall plan.
func ConfirmUninstallCleanup(ctx context.Context, namespace string) (bool, error) {
	return confirm(ctx, fmt.Sprintf("Also remove namespace %q and the saved configuration?", namespace), false)
}
