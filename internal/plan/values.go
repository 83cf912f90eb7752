package plan

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/iitdistribution/falconprep/internal/config"
)

// valuesFileName is the rendered Helm values file inside the config dir.
const valuesFileName = "falcon-sensor-values.yaml"

// Values is the falcon-sensor chart values this tool renders.
type Values struct {
	Falcon FalconValues `yaml:"falcon"`
	Node   NodeValues   `yaml:"node"`
}

// FalconValues carries tenant identity.
type FalconValues struct {
	CID string `yaml:"cid"`
}

// NodeValues configures the node sensor daemonset.
type NodeValues struct {
	Enabled bool        `yaml:"enabled"`
	Image   ImageValues `yaml:"image"`
	Backend string      `yaml:"backend"`
}

// ImageValues points the chart at the mirrored image.
type ImageValues struct {
	Repository         string `yaml:"repository"`
	Tag                string `yaml:"tag"`
	PullPolicy         string `yaml:"pullPolicy"`
	RegistryConfigJSON string `yaml:"registryConfigJSON,omitempty"`
}

// BuildValues assembles chart values from the config, the mirrored
// repository and an optional pull-secret blob.
func BuildValues(cfg *config.Config, imageRepo, imageTag, pullSecret string) Values {
	return Values{
		Falcon: FalconValues{CID: cfg.CID},
		Node: NodeValues{
			Enabled: true,
			Image: ImageValues{
				Repository:         imageRepo,
				Tag:                imageTag,
				PullPolicy:         "Always",
				RegistryConfigJSON: pullSecret,
			},
			Backend: cfg.Backend,
		},
	}
}

// WriteValues renders the values file into dir and returns its path.
func WriteValues(dir string, values Values) (string, error) {
	data, err := yaml.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("render values: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create values dir: %w", err)
	}

	path := filepath.Join(dir, valuesFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write values file: %w", err)
	}
	return path, nil
}
