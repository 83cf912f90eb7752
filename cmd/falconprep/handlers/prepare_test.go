package handlers

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iitdistribution/falconprep/internal/config"
	"github.com/iitdistribution/falconprep/internal/falcon"
	"github.com/iitdistribution/falconprep/internal/k8s"
	"github.com/iitdistribution/falconprep/internal/mirror"
	"github.com/iitdistribution/falconprep/internal/preflight"
	"github.com/iitdistribution/falconprep/internal/util/prerequisites"
)

const (
	testCID = "0123456789ABCDEF0123456789ABCDEF-42"
	testTag = "7.26.0-17905-1.falcon-linux.Release.EU-1"
)

func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origCheckDefaultPrereqs := checkDefaultPrereqs
	origNewStore := newStore
	origNewChecker := newChecker
	origNewCredentialsAPI := newCredentialsAPI
	origNewMirror := newMirror
	origNewClusterClient := newClusterClient
	origNewDetector := newDetector
	origRunWizard := runWizard
	origPromptSecret := promptSecret
	origConfirmReuse := confirmReuse
	origConfirmUninstallCleanup := confirmUninstallCleanup
	origStdinIsTerminal := stdinIsTerminal

	t.Cleanup(func() {
		checkDefaultPrereqs = origCheckDefaultPrereqs
		newStore = origNewStore
		newChecker = origNewChecker
		newCredentialsAPI = origNewCredentialsAPI
		newMirror = origNewMirror
		newClusterClient = origNewClusterClient
		newDetector = origNewDetector
		runWizard = origRunWizard
		promptSecret = origPromptSecret
		confirmReuse = origConfirmReuse
		confirmUninstallCleanup = origConfirmUninstallCleanup
		stdinIsTerminal = origStdinIsTerminal
	})
}

// fakeCredentialsAPI records whether credentials were requested.
type fakeCredentialsAPI struct {
	called bool
	err    error
}

func (f *fakeCredentialsAPI) RegistryCredentials(context.Context) (falcon.RegistryCredentials, error) {
	f.called = true
	if f.err != nil {
		return falcon.RegistryCredentials{}, f.err
	}
	return falcon.RegistryCredentials{Username: "fc-user", Password: "token"}, nil
}

// fakeMirror resolves a fixed tag and records the mirrored reference.
type fakeMirror struct {
	latestTag  string
	resolveErr error
	runErr     error
	mirrored   *mirror.Reference
}

func (f *fakeMirror) ResolveLatestTag(context.Context, falcon.Region) (string, error) {
	return f.latestTag, f.resolveErr
}

func (f *fakeMirror) Run(_ context.Context, ref mirror.Reference) error {
	if f.runErr != nil {
		return f.runErr
	}
	f.mirrored = &ref
	return nil
}

type fakeCluster struct {
	pingErr  error
	nsExists bool
}

func (f *fakeCluster) Ping(context.Context) error { return f.pingErr }

func (f *fakeCluster) NamespaceExists(context.Context, string) (bool, error) {
	return f.nsExists, nil
}

// fakeDetector implements k8s.ReleaseDetector.
type fakeDetector struct {
	state    k8s.ReleaseState
	stateErr error
	tag      string
	tagErr   error
}

func (f *fakeDetector) ReleaseState(string, string) (k8s.ReleaseState, error) {
	return f.state, f.stateErr
}

func (f *fakeDetector) InstalledTag(string, string) (string, error) {
	return f.tag, f.tagErr
}

// prepareFixture wires happy-path fakes into every factory and returns
// them for per-test adjustment.
type prepareFixture struct {
	api      *fakeCredentialsAPI
	mirror   *fakeMirror
	cluster  *fakeCluster
	detector *fakeDetector
	dir      string
}

func newPrepareFixture(t *testing.T) *prepareFixture {
	t.Helper()
	saveAndRestoreFactories(t)

	f := &prepareFixture{
		api:      &fakeCredentialsAPI{},
		mirror:   &fakeMirror{latestTag: testTag},
		cluster:  &fakeCluster{},
		detector: &fakeDetector{state: k8s.StateNotPresent},
		dir:      t.TempDir(),
	}

	checkDefaultPrereqs = func() *prerequisites.CheckResults {
		return &prerequisites.CheckResults{}
	}
	newChecker = func() *preflight.Checker {
		return preflight.NewCheckerWithDialer(reachableDialer())
	}
	newCredentialsAPI = func(falcon.Region, string, string, string) credentialsAPI {
		return f.api
	}
	newMirror = func(falcon.RegistryCredentials, *falcon.RegistryCredentials) imageMirror {
		return f.mirror
	}
	newClusterClient = func(string) (clusterClient, error) {
		return f.cluster, nil
	}
	newDetector = func(string) k8s.ReleaseDetector {
		return f.detector
	}
	stdinIsTerminal = func() bool { return false }

	t.Setenv(config.EnvCID, testCID)
	t.Setenv(config.EnvClientID, "client-id")
	t.Setenv(config.EnvClientSecret, "client-secret")

	return f
}

func (f *prepareFixture) options() PrepareOptions {
	return PrepareOptions{
		Action:         "install",
		Region:         "eu-1",
		Registry:       "localhost:5000",
		Namespace:      "falcon-system",
		Backend:        config.BackendBPF,
		NonInteractive: true,
		ConfigDir:      f.dir,
	}
}

func reachableDialer() preflight.Dialer {
	return func(context.Context, string, string) (net.Conn, error) {
		return nopConn{}, nil
	}
}

type nopConn struct{ net.Conn }

func (nopConn) Close() error { return nil }

func TestPrepare_FreshInstall(t *testing.T) {
	f := newPrepareFixture(t)

	require.NoError(t, Prepare(context.Background(), f.options()))

	// The image was mirrored with the resolved tag.
	require.NotNil(t, f.mirrored())
	assert.Equal(t, testTag, f.mirrored().Tag)
	assert.Equal(t, "localhost:5000/falcon-sensor", f.mirrored().TargetRepo)

	// Values file rendered into the config dir.
	valuesPath := filepath.Join(f.dir, "falcon-sensor-values.yaml")
	data, err := os.ReadFile(valuesPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cid: "+testCID)
	assert.Contains(t, string(data), "tag: "+testTag)

	// State file deleted after successful plan emission.
	saved, err := config.NewStore(f.dir).Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func (f *prepareFixture) mirrored() *mirror.Reference { return f.mirror.mirrored }

func TestPrepare_ExplicitTagSkipsResolution(t *testing.T) {
	f := newPrepareFixture(t)
	f.mirror.resolveErr = errors.New("must not be called")

	opts := f.options()
	opts.Tag = "7.24.0-17706-1.falcon-linux.Release.EU-1"

	require.NoError(t, Prepare(context.Background(), opts))
	assert.Equal(t, "7.24.0-17706-1.falcon-linux.Release.EU-1", f.mirrored().Tag)
}

func TestPrepare_InstallOverExistingBecomesUpgrade(t *testing.T) {
	f := newPrepareFixture(t)
	f.detector.state = k8s.StatePresent
	f.detector.tag = "7.24.0-17706-1.falcon-linux.Release.EU-1"

	require.NoError(t, Prepare(context.Background(), f.options()))

	// Plan was emitted: values file exists, state file deleted.
	_, err := os.Stat(filepath.Join(f.dir, "falcon-sensor-values.yaml"))
	require.NoError(t, err)
}

func TestPrepare_AlreadyAtTargetVersionIsNoop(t *testing.T) {
	f := newPrepareFixture(t)
	f.detector.state = k8s.StatePresent
	f.detector.tag = testTag

	opts := f.options()
	opts.Action = "upgrade"

	require.NoError(t, Prepare(context.Background(), opts))

	// No values file: the run short-circuited before planning.
	_, err := os.Stat(filepath.Join(f.dir, "falcon-sensor-values.yaml"))
	assert.True(t, os.IsNotExist(err))

	// State file still deleted: a no-op is a successful outcome.
	saved, err := config.NewStore(f.dir).Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestPrepare_PreflightFailureAbortsBeforeAPI(t *testing.T) {
	f := newPrepareFixture(t)
	newChecker = func() *preflight.Checker {
		return preflight.NewCheckerWithDialer(func(context.Context, string, string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		})
	}

	err := Prepare(context.Background(), f.options())
	require.Error(t, err)

	var connErr *preflight.ConnectivityError
	assert.ErrorAs(t, err, &connErr)
	assert.False(t, f.api.called)
}

func TestPrepare_UnknownReleaseStateAborts(t *testing.T) {
	f := newPrepareFixture(t)
	f.detector.state = k8s.StateUnknown
	f.detector.stateErr = &k8s.ClusterQueryError{Namespace: "falcon-system", Err: errors.New("timeout")}

	err := Prepare(context.Background(), f.options())
	require.Error(t, err)

	var queryErr *k8s.ClusterQueryError
	assert.ErrorAs(t, err, &queryErr)

	// State file retained for resume.
	saved, err := config.NewStore(f.dir).Load()
	require.NoError(t, err)
	assert.NotNil(t, saved)
}

func TestPrepare_InvalidAction(t *testing.T) {
	f := newPrepareFixture(t)

	opts := f.options()
	opts.Action = "uninstall"

	err := Prepare(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "install or upgrade")
}

func TestPrepare_MissingSecretInNonInteractiveMode(t *testing.T) {
	f := newPrepareFixture(t)
	t.Setenv(config.EnvClientSecret, "")

	err := Prepare(context.Background(), f.options())
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvClientSecret)
}

func TestPrepare_PrerequisiteFailure(t *testing.T) {
	f := newPrepareFixture(t)
	checkDefaultPrereqs = func() *prerequisites.CheckResults {
		return prerequisites.Check([]prerequisites.Tool{{
			Name:       "definitely-not-installed-xyz",
			InstallURL: "https://example.com",
		}})
	}

	err := Prepare(context.Background(), f.options())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definitely-not-installed-xyz")
}

func TestPrepare_ReuseSavedConfigRepromptsOnlySecret(t *testing.T) {
	f := newPrepareFixture(t)
	t.Setenv(config.EnvClientSecret, "")

	saved := &config.Config{
		CID:           testCID,
		ClientID:      "saved-client",
		CloudRegion:   "eu-1",
		LocalRegistry: "localhost:5000",
		ImageTag:      "latest",
		Namespace:     "falcon-system",
		Backend:       config.BackendBPF,
	}
	require.NoError(t, config.NewStore(f.dir).Save(saved, false))

	stdinIsTerminal = func() bool { return true }
	confirmReuse = func(context.Context, string) (bool, error) { return true, nil }

	secretPrompted := false
	promptSecret = func(_ context.Context, cfg *config.Config) error {
		secretPrompted = true
		cfg.ClientSecret = "typed-secret"
		return nil
	}
	runWizard = func(context.Context, *config.Config) (*config.Config, error) {
		t.Fatal("full wizard must not run when the saved config is reused")
		return nil, nil
	}

	opts := f.options()
	opts.NonInteractive = false

	require.NoError(t, Prepare(context.Background(), opts))
	assert.True(t, secretPrompted)
}

func TestPrepare_CorruptStateStartsFresh(t *testing.T) {
	f := newPrepareFixture(t)
	store := config.NewStore(f.dir)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{broken"), 0o600))

	require.NoError(t, Prepare(context.Background(), f.options()))
}
