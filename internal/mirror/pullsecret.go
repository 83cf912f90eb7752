package mirror

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/iitdistribution/falconprep/internal/falcon"
)

// dockerConfig is the dockerconfigjson shape Kubernetes expects in a
// kubernetes.io/dockerconfigjson pull secret.
type dockerConfig struct {
	Auths map[string]dockerAuth `json:"auths"`
}

type dockerAuth struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Auth     string `json:"auth"`
}

// PullSecret returns the base64-encoded dockerconfigjson blob for the
// registry, suitable for the chart's registryConfigJSON value. With nil
// credentials (unauthenticated local registry) it returns an empty string
// and the chart omits the pull secret.
func PullSecret(registry string, creds *falcon.RegistryCredentials) (string, error) {
	if creds == nil {
		return "", nil
	}

	cfg := dockerConfig{
		Auths: map[string]dockerAuth{
			registry: {
				Username: creds.Username,
				Password: creds.Password,
				Auth:     base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password)),
			},
		},
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode docker config: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
