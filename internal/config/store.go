package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// SchemaVersion is written into the state file so later releases can
// migrate or reject old formats.
const SchemaVersion = 1

// stateFileName is the persisted wizard state inside the config dir.
const stateFileName = "falcon-deployment-config.json"

// ErrCorrupt reports unreadable persisted state. Callers treat it as
// "no saved config" and restart the wizard fresh rather than crashing.
var ErrCorrupt = errors.New("persisted configuration is corrupt")

// Store reads and writes the persisted wizard state. The directory is
// explicit so tests and callers never depend on process-wide paths.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir is the per-user config directory for this tool.
func DefaultDir() string {
	return filepath.Join(xdg.ConfigHome, "iitd", "csf")
}

// Path returns the location of the state file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, stateFileName)
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// persistedState is the on-disk JSON shape.
type persistedState struct {
	SchemaVersion int `json:"schema_version"`
	Config
}

// Load returns the saved config, or nil when none exists. Malformed or
// unreadable state returns ErrCorrupt (wrapped) together with nil config.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if state.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", ErrCorrupt, state.SchemaVersion)
	}

	cfg := state.Config
	return &cfg, nil
}

// Save writes the config. The client secret is omitted unless the
// operator explicitly opted into persisting it.
func (s *Store) Save(cfg *Config, persistSecret bool) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	state := persistedState{SchemaVersion: SchemaVersion, Config: *cfg}
	if !persistSecret {
		state.ClientSecret = ""
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(s.Path(), data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Delete removes the state file. A missing file is not an error.
func (s *Store) Delete() error {
	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete config: %w", err)
	}
	return nil
}
