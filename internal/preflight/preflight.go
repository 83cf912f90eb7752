// Package preflight verifies that the vendor endpoints a region depends on
// are reachable before any credentials are requested. Proceeding without
// registry and API access is certain to fail later, so an unreachable
// domain aborts the whole run.
package preflight

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iitdistribution/falconprep/internal/falcon"
)

const (
	// port is the TLS port every required domain must accept.
	port = "443"

	// dialTimeout bounds each individual probe.
	dialTimeout = 5 * time.Second

	// overallTimeout bounds the whole preflight pass.
	overallTimeout = 30 * time.Second

	// maxConcurrent bounds the probe worker pool.
	maxConcurrent = 10
)

// Failure is one unreachable domain with its dial error.
type Failure struct {
	Domain string
	Reason string
}

// ConnectivityError reports every failing domain, not just the first, so
// the operator can fix firewall rules in one pass.
type ConnectivityError struct {
	Region   string
	Failures []Failure
}

func (e *ConnectivityError) Error() string {
	domains := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		domains[i] = f.Domain
	}
	return fmt.Sprintf("region %s: unreachable domains: %s", e.Region, strings.Join(domains, ", "))
}

// Dialer is the probe function, injectable for tests.
type Dialer func(ctx context.Context, network, address string) (net.Conn, error)

// Checker probes the required domains for a region.
type Checker struct {
	dial Dialer
}

// NewChecker returns a Checker using the system dialer.
func NewChecker() *Checker {
	d := &net.Dialer{Timeout: dialTimeout}
	return &Checker{dial: d.DialContext}
}

// NewCheckerWithDialer returns a Checker using a custom dialer.
func NewCheckerWithDialer(dial Dialer) *Checker {
	return &Checker{dial: dial}
}

// Result is the per-domain outcome of a preflight pass.
type Result struct {
	Domain  string
	OK      bool
	Reason  string
	Elapsed time.Duration
}

// Check probes every required domain for the region concurrently and
// returns per-domain results. If any domain is unreachable the error is a
// *ConnectivityError listing all of them.
func (c *Checker) Check(ctx context.Context, region falcon.Region) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, overallTimeout)
	defer cancel()

	results := make([]Result, len(region.RequiredDomains))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, domain := range region.RequiredDomains {
		g.Go(func() error {
			start := time.Now()
			res := Result{Domain: domain, OK: true}

			conn, err := c.dial(ctx, "tcp", net.JoinHostPort(domain, port))
			if err != nil {
				res.OK = false
				res.Reason = err.Error()
			} else {
				conn.Close()
			}
			res.Elapsed = time.Since(start)

			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}

	// Probes report failures through results, never through the group.
	_ = g.Wait()

	var failures []Failure
	for _, res := range results {
		if !res.OK {
			failures = append(failures, Failure{Domain: res.Domain, Reason: res.Reason})
		}
	}
	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Domain < failures[j].Domain })
		return results, &ConnectivityError{Region: region.ID, Failures: failures}
	}
	return results, nil
}
