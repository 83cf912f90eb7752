package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iitdistribution/falconprep/internal/config"
	"github.com/iitdistribution/falconprep/internal/falcon"
	"github.com/iitdistribution/falconprep/internal/k8s"
	"github.com/iitdistribution/falconprep/internal/mirror"
	"github.com/iitdistribution/falconprep/internal/plan"
)

// PrepareOptions are the prepare command's flag values. Non-empty fields
// override saved answers and environment variables.
type PrepareOptions struct {
	Action         string
	Region         string
	Registry       string
	Tag            string
	Namespace      string
	Backend        string
	Kubeconfig     string
	NonInteractive bool
	PersistSecret  bool

	// ConfigDir overrides the per-user config directory, for tests.
	ConfigDir string
}

// Prepare runs the full deployment-preparation workflow and prints the
// resulting command plan.
//
// The sequence is: prerequisites, configuration (saved answers, wizard or
// non-interactive), network preflight, token exchange, registry
// credentials, tag resolution, image mirroring, cluster-state detection,
// plan emission. The saved state file is deleted only after a plan was
// successfully emitted, so a failed run can resume from its answers.
func Prepare(ctx context.Context, opts PrepareOptions) error {
	requested, err := requestedAction(opts.Action)
	if err != nil {
		return err
	}

	if err := checkDefaultPrereqs().Error(); err != nil {
		return err
	}

	dir := opts.ConfigDir
	if dir == "" {
		dir = config.DefaultDir()
	}
	store := newStore(dir)

	cfg, err := collectConfig(ctx, store, opts)
	if err != nil {
		return err
	}

	if err := store.Save(cfg, opts.PersistSecret); err != nil {
		return err
	}

	region, err := falcon.LookupRegion(cfg.CloudRegion)
	if err != nil {
		return err
	}

	if err := runPreflight(ctx, region); err != nil {
		return err
	}

	log.Printf("Requesting registry credentials from %s", region.APIBase)
	api := newCredentialsAPI(region, cfg.ClientID, cfg.ClientSecret, cfg.CID)
	creds, err := api.RegistryCredentials(ctx)
	if err != nil {
		return err
	}

	localCreds := localRegistryCredentials()
	m := newMirror(creds, localCreds)

	tag := cfg.ImageTag
	if tag == config.LatestTag {
		tag, err = m.ResolveLatestTag(ctx, region)
		if err != nil {
			return err
		}
		log.Printf("Resolved latest sensor tag: %s", tag)
	}

	ref := mirror.NewReference(region, cfg.LocalRegistry, tag)
	log.Printf("Mirroring %s to %s", ref.Source(), ref.Target())
	if err := m.Run(ctx, ref); err != nil {
		return err
	}

	cluster, err := newClusterClient(opts.Kubeconfig)
	if err != nil {
		return err
	}
	if err := cluster.Ping(ctx); err != nil {
		return err
	}

	detector := newDetector(opts.Kubeconfig)
	state, err := detector.ReleaseState(cfg.Namespace, k8s.ReleaseName)
	if err != nil {
		return err
	}
	log.Printf("Sensor release in namespace %s: %s", cfg.Namespace, state)

	effective, warning, err := plan.Decide(requested, state)
	if err != nil {
		return err
	}

	if effective == plan.ActionUpgrade {
		installed, err := detector.InstalledTag(cfg.Namespace, k8s.ReleaseName)
		if err != nil {
			return err
		}
		if installed != "" && mirror.CompareTags(installed, tag) >= 0 {
			fmt.Printf("Installed sensor tag %s is already at or above %s. Nothing to do.\n", installed, tag)
			return store.Delete()
		}
	}

	pullSecret, err := mirror.PullSecret(cfg.LocalRegistry, localCreds)
	if err != nil {
		return err
	}

	nsExists, err := cluster.NamespaceExists(ctx, cfg.Namespace)
	if err != nil {
		return err
	}

	values := plan.BuildValues(cfg, ref.TargetRepo, tag, pullSecret)
	valuesPath, err := plan.WriteValues(store.Dir(), values)
	if err != nil {
		return err
	}

	p := plan.NewDeployPlan(effective, warning, cfg.Namespace, valuesPath, nsExists)
	fmt.Println(p.Render())

	return store.Delete()
}

// requestedAction validates the --action flag. Uninstall has its own
// command.
func requestedAction(s string) (config.Action, error) {
	switch config.Action(s) {
	case config.ActionInstall:
		return config.ActionInstall, nil
	case config.ActionUpgrade:
		return config.ActionUpgrade, nil
	default:
		return "", fmt.Errorf("invalid action %q: must be install or upgrade", s)
	}
}

// collectConfig produces a validated configuration from the saved state,
// flag overrides and either the wizard or the non-interactive source.
func collectConfig(ctx context.Context, store *config.Store, opts PrepareOptions) (*config.Config, error) {
	saved, err := store.Load()
	if errors.Is(err, config.ErrCorrupt) {
		log.Printf("Warning: %v; starting fresh", err)
		saved = nil
	} else if err != nil {
		return nil, err
	}

	prefill := &config.Config{}
	if saved != nil {
		*prefill = *saved
	}
	applyFlagOverrides(prefill, opts)

	if opts.NonInteractive || !stdinIsTerminal() {
		return config.NonInteractive{}.Collect(ctx, prefill)
	}

	if saved != nil {
		reuse, err := confirmReuse(ctx, store.Path())
		if err != nil {
			return nil, err
		}
		if reuse {
			cfg := prefill
			cfg.ApplyEnvOverrides()
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			if cfg.ClientSecret == "" {
				if err := promptSecret(ctx, cfg); err != nil {
					return nil, err
				}
			}
			return cfg, nil
		}
	}

	return runWizard(ctx, prefill)
}

// applyFlagOverrides copies non-empty flag values into the config. Flags
// win over both saved answers and environment variables.
func applyFlagOverrides(cfg *config.Config, opts PrepareOptions) {
	if opts.Region != "" {
		cfg.CloudRegion = opts.Region
	}
	if opts.Registry != "" {
		cfg.LocalRegistry = opts.Registry
	}
	if opts.Tag != "" {
		cfg.ImageTag = opts.Tag
	}
	if opts.Namespace != "" {
		cfg.Namespace = opts.Namespace
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
}

// runPreflight probes the region's required domains and logs per-domain
// outcomes.
func runPreflight(ctx context.Context, region falcon.Region) error {
	log.Printf("Checking connectivity for region %s", region.ID)
	results, err := newChecker().Check(ctx, region)
	for _, res := range results {
		if res.OK {
			log.Printf("  %s reachable (%s)", res.Domain, res.Elapsed.Round(time.Millisecond))
		} else {
			log.Printf("  %s UNREACHABLE: %s", res.Domain, res.Reason)
		}
	}
	return err
}
