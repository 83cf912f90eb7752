package falcon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// registryCredentialsPath is the container-security API endpoint that
// returns a registry token for the tenant.
const registryCredentialsPath = "/container-security/entities/image-registry-credentials/v1"

// RegistryCredentials authenticate docker-style pulls from the
// CrowdStrike registry.
type RegistryCredentials struct {
	Username string
	Password string
}

// registryCredentialsResponse mirrors the API response body.
type registryCredentialsResponse struct {
	Resources []struct {
		Token string `json:"token"`
	} `json:"resources"`
}

// RegistryUsername derives the registry username from a CID: "fc-" plus
// the lowercased part before the checksum dash.
func RegistryUsername(cid string) string {
	base, _, _ := strings.Cut(cid, "-")
	return "fc-" + strings.ToLower(base)
}

// APIClient calls the Falcon API with a bearer token obtained from an
// AuthClient.
type APIClient struct {
	baseURL    string
	auth       *AuthClient
	cid        string
	httpClient *http.Client
}

// NewAPIClient creates an APIClient for the region the AuthClient was
// built for.
func NewAPIClient(region Region, auth *AuthClient, cid string) *APIClient {
	return &APIClient{
		baseURL:    "https://" + region.APIBase,
		auth:       auth,
		cid:        cid,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL overrides the API base URL, for tests.
func (c *APIClient) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// RegistryCredentials fetches pull credentials for the CrowdStrike
// container registry.
func (c *APIClient) RegistryCredentials(ctx context.Context) (RegistryCredentials, error) {
	tok, err := c.auth.Token(ctx)
	if err != nil {
		return RegistryCredentials{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+registryCredentialsPath, nil)
	if err != nil {
		return RegistryCredentials{}, fmt.Errorf("build registry credentials request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RegistryCredentials{}, fmt.Errorf("registry credentials request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return RegistryCredentials{}, fmt.Errorf("read registry credentials response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return RegistryCredentials{}, &AuthError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var rc registryCredentialsResponse
	if err := json.Unmarshal(body, &rc); err != nil {
		return RegistryCredentials{}, fmt.Errorf("parse registry credentials response: %w", err)
	}
	if len(rc.Resources) == 0 || rc.Resources[0].Token == "" {
		return RegistryCredentials{}, fmt.Errorf("registry credentials response from API is empty")
	}

	return RegistryCredentials{
		Username: RegistryUsername(c.cid),
		Password: rc.Resources[0].Token,
	}, nil
}
