package falcon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/iitdistribution/falconprep/internal/util/retry"
)

// refreshMargin is how long before expiry a cached token is considered
// stale and re-exchanged.
const refreshMargin = 60 * time.Second

// AuthError reports a terminal token-exchange rejection (4xx). These are
// never retried: retrying cannot fix bad credentials.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token exchange rejected with HTTP %d: %s", e.StatusCode, e.Body)
}

// Token is an OAuth2 access token with its expiry. Tokens live in process
// memory only and are never persisted.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
	Scopes      []string
}

// valid reports whether the token can still be used with the refresh
// margin applied.
func (t Token) valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-refreshMargin))
}

// AuthClient performs the OAuth2 client-credentials grant against a
// region's token endpoint and caches the resulting token in memory.
type AuthClient struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu    sync.Mutex
	token Token

	// now is replaceable in tests.
	now func() time.Time
}

// NewAuthClient creates an AuthClient for the given region and API
// credentials.
func NewAuthClient(region Region, clientID, clientSecret string) *AuthClient {
	return &AuthClient{
		tokenURL:     region.TokenURL(),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
	}
}

// tokenResponse mirrors the token endpoint's JSON body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Token returns a valid access token, exchanging credentials with the
// token endpoint if the cached token is absent or within the refresh
// margin of expiry. Transient 5xx responses are retried with exponential
// backoff; 4xx responses fail immediately with an AuthError.
func (c *AuthClient) Token(ctx context.Context) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.valid(c.now()) {
		return c.token, nil
	}

	var tok Token
	err := retry.WithExponentialBackoff(ctx, func() error {
		var exchangeErr error
		tok, exchangeErr = c.exchange(ctx)
		return exchangeErr
	},
		retry.WithMaxRetries(3),
		retry.WithInitialDelay(500*time.Millisecond),
		retry.WithMaxDelay(5*time.Second),
	)
	if err != nil {
		return Token{}, err
	}

	c.token = tok
	return tok, nil
}

// exchange performs a single client-credentials POST.
func (c *AuthClient) exchange(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, retry.Fatal(fmt.Errorf("build token request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token endpoint %s: %w", c.tokenURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Token{}, fmt.Errorf("read token response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// parsed below
	case resp.StatusCode >= 500:
		return Token{}, fmt.Errorf("token endpoint returned HTTP %d", resp.StatusCode)
	default:
		return Token{}, retry.Fatal(&AuthError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, retry.Fatal(fmt.Errorf("parse token response: %w", err))
	}
	if tr.AccessToken == "" {
		return Token{}, retry.Fatal(fmt.Errorf("token response missing access_token"))
	}

	tok := Token{
		AccessToken: tr.AccessToken,
		ExpiresAt:   c.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}
	if tr.Scope != "" {
		tok.Scopes = strings.Fields(tr.Scope)
	}
	return tok, nil
}

// SetTokenURL overrides the token endpoint, for tests against httptest
// servers.
func (c *AuthClient) SetTokenURL(u string) {
	c.tokenURL = u
}
