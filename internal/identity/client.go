// Package identity implements a thin HTTP client for the external identity
// service the API layer optionally consults to attach a human-readable
// username to a verification response.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const requestTimeout = 2 * time.Second

// Client looks up a username for an owner id. It degrades gracefully: any
// failure (timeout, non-200, malformed body) is reported back as "no
// username available" rather than an error the caller must propagate,
// since the identity lookup is an enrichment, not a correctness dependency.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client against baseURL. An empty baseURL is valid and
// makes UsernameFor always report "not found" without making a request,
// so the identity service can be omitted from a deployment entirely.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// UsernameFor returns the username for ownerID and true, or "" and false if
// the identity service has none (or is unreachable/misconfigured).
func (c *Client) UsernameFor(ctx context.Context, ownerID string) (string, bool) {
	if c.baseURL == "" {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/users/%s", c.baseURL, ownerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false
	}
	if body.Username == "" {
		return "", false
	}
	return body.Username, true
}
