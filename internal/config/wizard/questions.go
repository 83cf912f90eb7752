package wizard

import (
	"context"

	"github.com/charmbracelet/huh"

	"github.com/iitdistribution/falconprep/internal/config"
)

// runIdentityGroup prompts for the customer ID.
func runIdentityGroup(ctx context.Context, cfg *config.Config) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("CrowdStrike CID").
				Description("Customer ID with checksum, from Host setup and management > Sensor downloads").
				Placeholder("0123456789ABCDEF0123456789ABCDEF-12").
				Value(&cfg.CID).
				Validate(config.ValidateCID),
		).Title("Customer Identity"),
	).RunWithContext(ctx)
}

// runCredentialsGroup prompts for the API client ID and secret.
func runCredentialsGroup(ctx context.Context, cfg *config.Config) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Falcon API client ID").
				Description("OAuth2 API client with Falcon Images Download scope").
				Value(&cfg.ClientID).
				Validate(required("client ID")),
			huh.NewInput().
				Title("Falcon API client secret").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.ClientSecret).
				Validate(required("client secret")),
		).Title("API Credentials"),
	).RunWithContext(ctx)
}

// runSecretGroup prompts for the secret alone.
func runSecretGroup(ctx context.Context, cfg *config.Config) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Falcon API client secret").
				Description("The secret was not persisted; enter it again for this run").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.ClientSecret).
				Validate(required("client secret")),
		).Title("API Credentials"),
	).RunWithContext(ctx)
}

// runRegionGroup prompts for the cloud region.
func runRegionGroup(ctx context.Context, cfg *config.Config) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Falcon cloud region").
				Description("Region your CID is homed in").
				Options(RegionOptions()...).
				Value(&cfg.CloudRegion),
		).Title("Cloud Region"),
	).RunWithContext(ctx)
}

// runRegistryGroup prompts for the local registry and image tag.
func runRegistryGroup(ctx context.Context, cfg *config.Config) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Local registry host").
				Description("Registry the cluster nodes can pull from").
				Placeholder(config.DefaultLocalRegistry).
				Value(&cfg.LocalRegistry).
				Validate(required("local registry")),
			huh.NewInput().
				Title("Sensor image tag").
				Description("Specific version, or \"latest\" to resolve the newest release").
				Value(&cfg.ImageTag),
		).Title("Image Source"),
	).RunWithContext(ctx)
}

// runSensorGroup prompts for namespace and backend.
func runSensorGroup(ctx context.Context, cfg *config.Config) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Kubernetes namespace").
				Value(&cfg.Namespace).
				Validate(required("namespace")),
			huh.NewSelect[string]().
				Title("Sensor backend").
				Description("bpf is recommended; kernel requires a matching kernel module").
				Options(BackendOptions()...).
				Value(&cfg.Backend),
		).Title("Sensor Options"),
	).RunWithContext(ctx)
}

// confirm shows a yes/no prompt.
func confirm(ctx context.Context, title string, def bool) (bool, error) {
	answer := def
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&answer),
		),
	).RunWithContext(ctx)
	if err != nil {
		return false, err
	}
	return answer, nil
}
