package k8s

import (
	"errors"
	"fmt"
	"log"
	"os"

	"helm.sh/helm/v3/pkg/action"
	helmdriver "helm.sh/helm/v3/pkg/storage/driver"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// ReleaseName is the Helm release the sensor chart installs as.
const ReleaseName = "falcon-sensor"

// ReleaseState is the detected state of the sensor release in the target
// namespace.
type ReleaseState int

const (
	// StateUnknown means the query itself failed. It is never coerced to
	// StateNotPresent: planning on a false negative could double-install.
	StateUnknown ReleaseState = iota
	StateNotPresent
	StatePresent
)

func (s ReleaseState) String() string {
	switch s {
	case StateNotPresent:
		return "not present"
	case StatePresent:
		return "present"
	default:
		return "unknown"
	}
}

// ClusterQueryError reports that the release state could not be
// determined.
type ClusterQueryError struct {
	Namespace string
	Err       error
}

func (e *ClusterQueryError) Error() string {
	return fmt.Sprintf("cannot determine release state in namespace %q: %v", e.Namespace, e.Err)
}

func (e *ClusterQueryError) Unwrap() error { return e.Err }

// ReleaseDetector reports release state and installed sensor tag.
type ReleaseDetector interface {
	ReleaseState(namespace, release string) (ReleaseState, error)
	InstalledTag(namespace, release string) (string, error)
}

// HelmDetector queries release state through the Helm v3 action package.
type HelmDetector struct {
	kubeconfigPath string
}

// NewHelmDetector creates a detector for the given kubeconfig path.
func NewHelmDetector(kubeconfigPath string) *HelmDetector {
	return &HelmDetector{kubeconfigPath: kubeconfigPath}
}

// actionConfig initializes a Helm action configuration scoped to the
// namespace.
func (d *HelmDetector) actionConfig(namespace string) (*action.Configuration, error) {
	restConfig, err := clientcmd.BuildConfigFromFlags("", d.kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("build kubeconfig: %w", err)
	}

	cfg := new(action.Configuration)
	getter := &restClientGetter{config: restConfig, namespace: namespace}
	if err := cfg.Init(getter, namespace, os.Getenv("HELM_DRIVER"), log.Printf); err != nil {
		return nil, fmt.Errorf("init helm action config: %w", err)
	}
	return cfg, nil
}

// ReleaseState looks up the release history in the namespace.
func (d *HelmDetector) ReleaseState(namespace, release string) (ReleaseState, error) {
	cfg, err := d.actionConfig(namespace)
	if err != nil {
		return StateUnknown, &ClusterQueryError{Namespace: namespace, Err: err}
	}

	hist := action.NewHistory(cfg)
	hist.Max = 1
	_, err = hist.Run(release)
	switch {
	case err == nil:
		return StatePresent, nil
	case errors.Is(err, helmdriver.ErrReleaseNotFound):
		return StateNotPresent, nil
	default:
		return StateUnknown, &ClusterQueryError{Namespace: namespace, Err: err}
	}
}

// InstalledTag reads node.image.tag from the deployed release values.
// Returns empty when the release or the value is absent.
func (d *HelmDetector) InstalledTag(namespace, release string) (string, error) {
	cfg, err := d.actionConfig(namespace)
	if err != nil {
		return "", &ClusterQueryError{Namespace: namespace, Err: err}
	}

	get := action.NewGetValues(cfg)
	get.AllValues = true
	values, err := get.Run(release)
	if err != nil {
		if errors.Is(err, helmdriver.ErrReleaseNotFound) {
			return "", nil
		}
		return "", &ClusterQueryError{Namespace: namespace, Err: err}
	}

	node, ok := values["node"].(map[string]interface{})
	if !ok {
		return "", nil
	}
	image, ok := node["image"].(map[string]interface{})
	if !ok {
		return "", nil
	}
	tag, _ := image["tag"].(string)
	return tag, nil
}

// restClientGetter is the minimal RESTClientGetter Helm's action package
// needs.
type restClientGetter struct {
	config    *rest.Config
	namespace string
}

func (g *restClientGetter) ToRESTConfig() (*rest.Config, error) {
	return g.config, nil
}

func (g *restClientGetter) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	discoveryClient, err := discovery.NewDiscoveryClientForConfig(g.config)
	if err != nil {
		return nil, err
	}
	return memory.NewMemCacheClient(discoveryClient), nil
}

func (g *restClientGetter) ToRESTMapper() (meta.RESTMapper, error) {
	discoveryClient, err := g.ToDiscoveryClient()
	if err != nil {
		return nil, err
	}
	return restmapper.NewDeferredDiscoveryRESTMapper(discoveryClient), nil
}

func (g *restClientGetter) ToRawKubeConfigLoader() clientcmd.ClientConfig {
	return clientcmd.NewDefaultClientConfig(*clientcmdapi.NewConfig(), &clientcmd.ConfigOverrides{})
}
