package falcon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegion(t *testing.T) Region {
	t.Helper()
	r, err := LookupRegion("eu-1")
	require.NoError(t, err)
	return r
}

func newTestAuthClient(t *testing.T, handler http.HandlerFunc) (*AuthClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewAuthClient(testRegion(t), "client-id", "client-secret")
	c.SetTokenURL(srv.URL)
	return c, srv
}

func TestToken_ExchangeAndCache(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","expires_in":1800,"scope":"falcon-images:read"}`))
	})

	tok, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.AccessToken)
	assert.Equal(t, []string{"falcon-images:read"}, tok.Scopes)

	// Second call must hit the cache, not the endpoint.
	tok2, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, tok2.AccessToken)
	assert.Equal(t, int32(1), calls.Load())
}

func TestToken_RefreshesNearExpiry(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestAuthClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"access_token":"tok","expires_in":1800}`))
	})

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Token(context.Background())
	require.NoError(t, err)

	// Move to within the refresh margin of expiry.
	now = now.Add(1800*time.Second - 30*time.Second)
	_, err = c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestToken_RejectionIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestAuthClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"message":"access denied"}]}`))
	})

	_, err := c.Token(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusForbidden, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "access denied")
	assert.Equal(t, int32(1), calls.Load())
}

func TestToken_ServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestAuthClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"access_token":"tok-after-retry","expires_in":1800}`))
	})

	tok, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-after-retry", tok.AccessToken)
	assert.Equal(t, int32(2), calls.Load())
}

func TestToken_MissingAccessToken(t *testing.T) {
	c, _ := newTestAuthClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"expires_in":1800}`))
	})

	_, err := c.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_token")
}
