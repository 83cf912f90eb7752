// Package mirror copies the sensor image from the CrowdStrike registry
// into an operator-controlled registry. The retag is a pure rename: the
// image is written bit-identical under the new reference.
package mirror

import (
	"context"
	"fmt"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"

	"github.com/iitdistribution/falconprep/internal/falcon"
)

// SensorImage is the image name in both the vendor and local registries.
const SensorImage = "falcon-sensor"

// RegistryError names the failing mirror step and the exact command an
// operator could run manually to reproduce or finish it.
type RegistryError struct {
	Step          string
	ManualCommand string
	Err           error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("%s failed (rerun manually: %s): %v", e.Step, e.ManualCommand, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Reference is a resolved source/target pair for one mirror operation.
type Reference struct {
	SourceRepo string
	TargetRepo string
	Tag        string
}

// Source returns the fully qualified vendor reference.
func (r Reference) Source() string { return r.SourceRepo + ":" + r.Tag }

// Target returns the fully qualified local reference.
func (r Reference) Target() string { return r.TargetRepo + ":" + r.Tag }

// SensorImagePath returns the repository path of the sensor image inside
// the vendor registry, without the registry host.
func SensorImagePath(cloudTag string) string {
	return fmt.Sprintf("%s/%s/release/%s", SensorImage, cloudTag, SensorImage)
}

// NewReference builds the source/target pair for a region, local registry
// and resolved tag.
func NewReference(region falcon.Region, localRegistry, tag string) Reference {
	return Reference{
		SourceRepo: region.Registry + "/" + SensorImagePath(region.CloudTag),
		TargetRepo: localRegistry + "/" + SensorImage,
		Tag:        tag,
	}
}

// Remote operations are variables so tests can run without a registry.
var (
	remoteImage = func(ref name.Reference, opts ...remote.Option) (v1.Image, error) {
		return remote.Image(ref, opts...)
	}
	remoteWrite = func(ref name.Reference, img v1.Image, opts ...remote.Option) error {
		return remote.Write(ref, img, opts...)
	}
	remoteList = func(repo name.Repository, opts ...remote.Option) ([]string, error) {
		return remote.List(repo, opts...)
	}
)

// Mirror pulls from the vendor registry and pushes to the local one.
type Mirror struct {
	vendorAuth authn.Authenticator
	localAuth  authn.Authenticator
}

// New creates a Mirror. Vendor credentials come from the Falcon registry
// API; local credentials may be nil for an unauthenticated registry.
func New(vendor falcon.RegistryCredentials, local *falcon.RegistryCredentials) *Mirror {
	m := &Mirror{
		vendorAuth: &authn.Basic{Username: vendor.Username, Password: vendor.Password},
		localAuth:  authn.Anonymous,
	}
	if local != nil {
		m.localAuth = &authn.Basic{Username: local.Username, Password: local.Password}
	}
	return m
}

// Run copies ref.Source() to ref.Target(). Pull and push of an unchanged
// tag are no-ops on the registry side, so reruns after a transient
// failure are safe.
func (m *Mirror) Run(ctx context.Context, ref Reference) error {
	srcRef, err := name.ParseReference(ref.Source())
	if err != nil {
		return &RegistryError{
			Step:          "parse source reference",
			ManualCommand: "docker pull " + ref.Source(),
			Err:           err,
		}
	}

	img, err := remoteImage(srcRef, remote.WithContext(ctx), remote.WithAuth(m.vendorAuth))
	if err != nil {
		return &RegistryError{
			Step:          "pull " + ref.Source(),
			ManualCommand: "docker pull " + ref.Source(),
			Err:           err,
		}
	}

	dstRef, err := name.ParseReference(ref.Target(), name.Insecure)
	if err != nil {
		return &RegistryError{
			Step:          "parse target reference",
			ManualCommand: fmt.Sprintf("docker tag %s %s", ref.Source(), ref.Target()),
			Err:           err,
		}
	}

	if err := remoteWrite(dstRef, img, remote.WithContext(ctx), remote.WithAuth(m.localAuth)); err != nil {
		return &RegistryError{
			Step:          "push " + ref.Target(),
			ManualCommand: "docker push " + ref.Target(),
			Err:           err,
		}
	}

	return nil
}
