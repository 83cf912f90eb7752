package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/iitdistribution/falconprep/internal/config"
	"github.com/iitdistribution/falconprep/internal/falcon"
	"github.com/iitdistribution/falconprep/internal/preflight"
)

// Preflight runs the standalone connectivity check for a region. An empty
// region falls back to the saved configuration, then to the default.
func Preflight(ctx context.Context, regionID string) error {
	if regionID == "" {
		saved, err := newStore(config.DefaultDir()).Load()
		if err != nil && !errors.Is(err, config.ErrCorrupt) {
			return err
		}
		if saved != nil {
			regionID = saved.CloudRegion
		}
	}
	if regionID == "" {
		regionID = falcon.DefaultRegionID
	}

	region, err := falcon.LookupRegion(regionID)
	if err != nil {
		return err
	}

	results, err := newChecker().Check(ctx, region)
	for _, res := range results {
		status := "ok"
		if !res.OK {
			status = "FAILED: " + res.Reason
		}
		fmt.Printf("%-40s %s\n", res.Domain, status)
	}

	var connErr *preflight.ConnectivityError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%d of %d required domains unreachable for region %s",
			len(connErr.Failures), len(region.RequiredDomains), region.ID)
	}
	return err
}
