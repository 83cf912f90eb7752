// Package config holds the deployment configuration collected by the
// wizard and its persistence between runs.
package config

import (
	"os"
)

// Backend selects how the sensor hooks into the node.
const (
	BackendBPF    = "bpf"
	BackendKernel = "kernel"
)

// Action is the operator's requested intent.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUpgrade   Action = "upgrade"
	ActionUninstall Action = "uninstall"
)

// LatestTag asks the mirror to resolve the newest versioned tag from the
// vendor registry.
const LatestTag = "latest"

// Defaults applied when the wizard starts with no saved state.
const (
	DefaultRegion        = "eu-1"
	DefaultLocalRegistry = "localhost:5000"
	DefaultNamespace     = "falcon-system"
	DefaultBackend       = BackendBPF
)

// Config is the full set of wizard answers for one deployment.
type Config struct {
	CID           string `json:"cid"`
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret,omitempty"`
	CloudRegion   string `json:"cloud_region"`
	LocalRegistry string `json:"local_registry"`
	ImageTag      string `json:"image_tag"`
	Namespace     string `json:"namespace"`
	Backend       string `json:"backend"`
}

// Environment variables that override saved answers and wizard defaults.
const (
	EnvCID           = "FALCON_CID"
	EnvClientID      = "FALCON_CLIENT_ID"
	EnvClientSecret  = "FALCON_CLIENT_SECRET"
	EnvLocalRegistry = "FALCON_LOCAL_REGISTRY"
	EnvImageTag      = "FALCON_IMAGE_TAG"
)

// ApplyEnvOverrides replaces any field whose environment variable is set.
// Environment values win over persisted state so non-interactive runs stay
// deterministic regardless of what a previous wizard pass saved.
func (c *Config) ApplyEnvOverrides() {
	overrideFromEnv(&c.CID, EnvCID)
	overrideFromEnv(&c.ClientID, EnvClientID)
	overrideFromEnv(&c.ClientSecret, EnvClientSecret)
	overrideFromEnv(&c.LocalRegistry, EnvLocalRegistry)
	overrideFromEnv(&c.ImageTag, EnvImageTag)
}

func overrideFromEnv(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

// ApplyDefaults fills empty fields with wizard defaults.
func (c *Config) ApplyDefaults() {
	if c.CloudRegion == "" {
		c.CloudRegion = DefaultRegion
	}
	if c.LocalRegistry == "" {
		c.LocalRegistry = DefaultLocalRegistry
	}
	if c.ImageTag == "" {
		c.ImageTag = LatestTag
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
}
