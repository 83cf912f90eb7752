package preflight

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iitdistribution/falconprep/internal/falcon"
)

// fakeConn satisfies net.Conn for the dialer stub; only Close is called.
type fakeConn struct{ net.Conn }

func (fakeConn) Close() error { return nil }

func dialerFailing(unreachable ...string) Dialer {
	blocked := map[string]bool{}
	for _, d := range unreachable {
		blocked[d] = true
	}
	return func(_ context.Context, _, address string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(address)
		if err != nil {
			return nil, err
		}
		if port != "443" {
			return nil, errors.New("unexpected port " + port)
		}
		if blocked[host] {
			return nil, errors.New("connection refused")
		}
		return fakeConn{}, nil
	}
}

func euRegion(t *testing.T) falcon.Region {
	t.Helper()
	r, err := falcon.LookupRegion("eu-1")
	require.NoError(t, err)
	return r
}

func TestCheck_AllReachable(t *testing.T) {
	region := euRegion(t)
	checker := NewCheckerWithDialer(dialerFailing())

	results, err := checker.Check(context.Background(), region)
	require.NoError(t, err)
	require.Len(t, results, len(region.RequiredDomains))

	for i, res := range results {
		assert.Equal(t, region.RequiredDomains[i], res.Domain)
		assert.True(t, res.OK)
		assert.Empty(t, res.Reason)
	}
}

func TestCheck_ReportsEveryFailure(t *testing.T) {
	region := euRegion(t)
	checker := NewCheckerWithDialer(dialerFailing(
		"api.eu-1.crowdstrike.com",
		"ts01-lanner-lion.cloudsink.net",
	))

	results, err := checker.Check(context.Background(), region)
	require.Len(t, results, len(region.RequiredDomains))
	require.Error(t, err)

	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "eu-1", connErr.Region)
	require.Len(t, connErr.Failures, 2)

	// Failures are sorted by domain for stable output.
	assert.Equal(t, "api.eu-1.crowdstrike.com", connErr.Failures[0].Domain)
	assert.Equal(t, "ts01-lanner-lion.cloudsink.net", connErr.Failures[1].Domain)
	assert.Contains(t, connErr.Error(), "api.eu-1.crowdstrike.com")
	assert.Contains(t, connErr.Error(), "ts01-lanner-lion.cloudsink.net")
}

func TestCheck_SlowProbeRecordsElapsed(t *testing.T) {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		select {
		case <-time.After(10 * time.Millisecond):
			return fakeConn{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	results, err := NewCheckerWithDialer(dial).Check(context.Background(), euRegion(t))
	require.NoError(t, err)
	for _, res := range results {
		assert.GreaterOrEqual(t, res.Elapsed, 10*time.Millisecond)
	}
}

func TestCheck_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		return nil, ctx.Err()
	}

	_, err := NewCheckerWithDialer(dial).Check(ctx, euRegion(t))
	require.Error(t, err)

	var connErr *ConnectivityError
	assert.ErrorAs(t, err, &connErr)
}
