package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validation errors for operator-supplied fields.
var (
	errCIDRequired      = errors.New("CID is required")
	errCIDInvalid       = errors.New("CID must be 32 hex characters, a dash, and a 2 character checksum (e.g. 0123...CDEF-42)")
	errClientIDRequired = errors.New("API client ID is required")
	errRegistryRequired = errors.New("local registry host is required")
	errBackendInvalid   = errors.New("backend must be \"bpf\" or \"kernel\"")
)

// cidRegex matches a customer ID with its checksum suffix.
var cidRegex = regexp.MustCompile(`^[0-9a-fA-F]{32}-[0-9a-fA-F]{2}$`)

// ValidateCID checks the CID format including the checksum suffix.
func ValidateCID(cid string) error {
	if cid == "" {
		return errCIDRequired
	}
	if !cidRegex.MatchString(cid) {
		return errCIDInvalid
	}
	return nil
}

// Validate checks every field the downstream stages depend on. The client
// secret is deliberately not required here: a saved config may omit it and
// have it re-prompted later.
func (c *Config) Validate() error {
	if err := ValidateCID(c.CID); err != nil {
		return err
	}
	if c.ClientID == "" {
		return errClientIDRequired
	}
	if c.LocalRegistry == "" {
		return errRegistryRequired
	}
	if c.Backend != BackendBPF && c.Backend != BackendKernel {
		return errBackendInvalid
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	return nil
}
