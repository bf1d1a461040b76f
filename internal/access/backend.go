package access

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BackendClient talks to the managed backend's authorization endpoints:
// a feature catalog and a per-(identity, feature) check. Both are plain
// request/response RPCs; callers decide what a failure means.
type BackendClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewBackendClient(baseURL, apiKey string) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *BackendClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("authz backend: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("authz backend: decode: %w", err)
	}
	return nil
}

// Catalog returns the set of known feature names.
func (c *BackendClient) Catalog(ctx context.Context) ([]string, error) {
	var body struct {
		Features []string `json:"features"`
	}
	if err := c.get(ctx, "/authz/features", &body); err != nil {
		return nil, err
	}
	return body.Features, nil
}

// Check evaluates access to one feature for one identity.
func (c *BackendClient) Check(ctx context.Context, id, feature string) (bool, error) {
	var body struct {
		Allowed bool `json:"allowed"`
	}
	path := fmt.Sprintf("/authz/features/%s/check?identity=%s",
		url.PathEscape(feature), url.QueryEscape(id))
	if err := c.get(ctx, path, &body); err != nil {
		return false, err
	}
	return body.Allowed, nil
}
