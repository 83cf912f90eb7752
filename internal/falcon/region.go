// Package falcon talks to the CrowdStrike cloud: region metadata, OAuth2
// token exchange and the container-security registry API.
package falcon

import (
	"fmt"
	"sort"
)

// Region describes one CrowdStrike cloud region and the endpoints a
// deployment from that region depends on.
type Region struct {
	// ID is the operator-facing region selector, e.g. "eu-1".
	ID string

	// APIBase is the hostname of the Falcon API for this region.
	APIBase string

	// CloudTag is the region path segment used in registry image paths.
	CloudTag string

	// Registry is the hostname of the CrowdStrike container registry.
	Registry string

	// RequiredDomains are the hostnames that must be reachable on port 443
	// for the sensor and this tool to function.
	RequiredDomains []string
}

// TokenURL returns the OAuth2 token endpoint for the region.
func (r Region) TokenURL() string {
	return fmt.Sprintf("https://%s/oauth2/token", r.APIBase)
}

// regions is the fixed set of known CrowdStrike cloud regions.
// An unknown region ID is a configuration error, never a fallback.
var regions = map[string]Region{
	"us-1": {
		ID:              "us-1",
		APIBase:         "api.crowdstrike.com",
		CloudTag:        "us-1",
		Registry:        "registry.crowdstrike.com",
		RequiredDomains: []string{"ts01-b.cloudsink.net", "falcon.crowdstrike.com", "api.crowdstrike.com"},
	},
	"us-2": {
		ID:              "us-2",
		APIBase:         "api.us-2.crowdstrike.com",
		CloudTag:        "us-2",
		Registry:        "registry.crowdstrike.com",
		RequiredDomains: []string{"ts01-gyr-maverick.cloudsink.net", "falcon.us-2.crowdstrike.com", "api.us-2.crowdstrike.com"},
	},
	"eu-1": {
		ID:              "eu-1",
		APIBase:         "api.eu-1.crowdstrike.com",
		CloudTag:        "eu-1",
		Registry:        "registry.crowdstrike.com",
		RequiredDomains: []string{"ts01-lanner-lion.cloudsink.net", "falcon.eu-1.crowdstrike.com", "api.eu-1.crowdstrike.com"},
	},
	"us-gov-1": {
		ID:              "us-gov-1",
		APIBase:         "api.laggar.gcw.crowdstrike.com",
		CloudTag:        "gov1",
		Registry:        "registry.laggar.gcw.crowdstrike.com",
		RequiredDomains: []string{"ts01-laggar-gcw.cloudsink.net", "falcon.laggar.gcw.crowdstrike.com", "api.laggar.gcw.crowdstrike.com"},
	},
	"us-gov-2": {
		ID:              "us-gov-2",
		APIBase:         "api.us-gov-2.crowdstrike.mil",
		CloudTag:        "gov2",
		Registry:        "registry.us-gov-2.crowdstrike.mil",
		RequiredDomains: []string{"ts01-us-gov-2.crowdstrike.mil", "falcon.us-gov-2.crowdstrike.mil", "api.us-gov-2.crowdstrike.mil"},
	},
}

// DefaultRegionID is the region preselected in the wizard.
const DefaultRegionID = "eu-1"

// LookupRegion resolves a region ID to its metadata.
func LookupRegion(id string) (Region, error) {
	r, ok := regions[id]
	if !ok {
		return Region{}, fmt.Errorf("unknown cloud region %q (valid: %v)", id, RegionIDs())
	}
	return r, nil
}

// RegionIDs returns all known region IDs in stable order.
func RegionIDs() []string {
	ids := make([]string, 0, len(regions))
	for id := range regions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
