// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/iitdistribution/falconprep/internal/config"
	"github.com/iitdistribution/falconprep/internal/config/wizard"
	"github.com/iitdistribution/falconprep/internal/falcon"
	"github.com/iitdistribution/falconprep/internal/k8s"
	"github.com/iitdistribution/falconprep/internal/mirror"
	"github.com/iitdistribution/falconprep/internal/preflight"
	"github.com/iitdistribution/falconprep/internal/util/prerequisites"
)

// Environment variables for an authenticated local registry. Optional;
// when unset the mirror pushes anonymously and the chart gets no pull
// secret.
const (
	envLocalRegistryUser     = "FALCON_LOCAL_REGISTRY_USER"
	envLocalRegistryPassword = "FALCON_LOCAL_REGISTRY_PASSWORD"
)

// credentialsAPI fetches registry pull credentials from the Falcon API.
type credentialsAPI interface {
	RegistryCredentials(ctx context.Context) (falcon.RegistryCredentials, error)
}

// imageMirror copies the sensor image and resolves tags.
type imageMirror interface {
	ResolveLatestTag(ctx context.Context, region falcon.Region) (string, error)
	Run(ctx context.Context, ref mirror.Reference) error
}

// clusterClient is the read-only cluster access the handlers need.
type clusterClient interface {
	Ping(ctx context.Context) error
	NamespaceExists(ctx context.Context, namespace string) (bool, error)
}

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	// checkDefaultPrereqs runs the helm/kubectl prerequisite checks.
	checkDefaultPrereqs = prerequisites.CheckDefault

	// newStore opens the persisted-config store.
	newStore = func(dir string) *config.Store {
		return config.NewStore(dir)
	}

	// newChecker creates the network preflight checker.
	newChecker = func() *preflight.Checker {
		return preflight.NewChecker()
	}

	// newCredentialsAPI creates the Falcon API client.
	newCredentialsAPI = func(region falcon.Region, clientID, clientSecret, cid string) credentialsAPI {
		auth := falcon.NewAuthClient(region, clientID, clientSecret)
		return falcon.NewAPIClient(region, auth, cid)
	}

	// newMirror creates the image mirror.
	newMirror = func(vendor falcon.RegistryCredentials, local *falcon.RegistryCredentials) imageMirror {
		return mirror.New(vendor, local)
	}

	// newClusterClient creates the read-only cluster client.
	newClusterClient = func(kubeconfigPath string) (clusterClient, error) {
		return k8s.NewClient(kubeconfigPath)
	}

	// newDetector creates the Helm release detector.
	newDetector = func(kubeconfigPath string) k8s.ReleaseDetector {
		return k8s.NewHelmDetector(kubeconfigPath)
	}

	// runWizard runs the interactive configuration flow.
	runWizard = func(ctx context.Context, existing *config.Config) (*config.Config, error) {
		return wizard.New().Collect(ctx, existing)
	}

	// promptSecret asks only for the client secret.
	promptSecret = wizard.PromptSecret

	// confirmReuse asks whether saved answers should be reused.
	confirmReuse = wizard.ConfirmReuse

	// confirmUninstallCleanup asks about namespace and config removal.
	confirmUninstallCleanup = wizard.ConfirmUninstallCleanup

	// stdinIsTerminal reports whether prompting is possible at all.
	stdinIsTerminal = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	}
)

// localRegistryCredentials reads optional local-registry credentials from
// the environment.
func localRegistryCredentials() *falcon.RegistryCredentials {
	user := os.Getenv(envLocalRegistryUser)
	if user == "" {
		return nil
	}
	return &falcon.RegistryCredentials{
		Username: user,
		Password: os.Getenv(envLocalRegistryPassword),
	}
}
