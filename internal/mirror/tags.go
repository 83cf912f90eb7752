package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"

	"github.com/iitdistribution/falconprep/internal/falcon"
)

// ResolveLatestTag lists the sensor tags in the vendor registry and
// returns the newest versioned one. The literal "latest" tag is ignored;
// only tags beginning with a digit participate.
func (m *Mirror) ResolveLatestTag(ctx context.Context, region falcon.Region) (string, error) {
	repoName := region.Registry + "/" + SensorImagePath(region.CloudTag)
	repo, err := name.NewRepository(repoName)
	if err != nil {
		return "", fmt.Errorf("parse repository %s: %w", repoName, err)
	}

	tags, err := remoteList(repo, remote.WithContext(ctx), remote.WithAuth(m.vendorAuth))
	if err != nil {
		return "", &RegistryError{
			Step:          "list tags for " + repoName,
			ManualCommand: fmt.Sprintf("curl -u <user>:<token> https://%s/v2/%s/tags/list", region.Registry, SensorImagePath(region.CloudTag)),
			Err:           err,
		}
	}

	latest := LatestVersioned(tags)
	if latest == "" {
		return "", fmt.Errorf("no versioned sensor tags found in %s", repoName)
	}
	return latest, nil
}

// LatestVersioned picks the highest versioned tag from a tag list.
// Sensor tags look like "7.26.0-17905-1.falcon-linux.Release.US-1"; the
// leading dotted triple orders them, the rest breaks ties lexically.
func LatestVersioned(tags []string) string {
	var best string
	var bestVer *semver.Version

	for _, tag := range tags {
		if tag == "" || tag[0] < '0' || tag[0] > '9' {
			continue
		}
		ver := coreVersion(tag)
		if ver == nil {
			continue
		}
		switch {
		case best == "":
			best, bestVer = tag, ver
		case ver.GreaterThan(bestVer):
			best, bestVer = tag, ver
		case ver.Equal(bestVer) && tag > best:
			best, bestVer = tag, ver
		}
	}
	return best
}

// CompareTags reports -1, 0 or 1 ordering a against b by sensor version.
// Unparseable tags order lowest.
func CompareTags(a, b string) int {
	va, vb := coreVersion(a), coreVersion(b)
	switch {
	case va == nil && vb == nil:
		return strings.Compare(a, b)
	case va == nil:
		return -1
	case vb == nil:
		return 1
	}
	if c := va.Compare(vb); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// coreVersion parses the dotted version before the first dash.
func coreVersion(tag string) *semver.Version {
	core, _, _ := strings.Cut(tag, "-")
	ver, err := semver.NewVersion(core)
	if err != nil {
		return nil
	}
	return ver
}
