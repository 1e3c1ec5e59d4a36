package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const requestTimeout = 10 * time.Second

// feedResponse is the expected shape of the alert feed payload. Any deviation
// (non-200, non-JSON, wrong types) is treated as a poll failure.
type feedResponse struct {
	Active  bool     `json:"active"`
	Message string   `json:"message"`
	Types   []string `json:"types"`
}

// Client fetches the current alert state for one city from the external feed.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	city       string
}

func NewClient(baseURL, token, city string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		token:      token,
		city:       city,
	}
}

// Fetch issues one request to the feed and decodes the response.
func (c *Client) Fetch(ctx context.Context) (*feedResponse, error) {
	q := url.Values{}
	q.Set("city", c.city)
	q.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building alert feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alert feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alert feed returned status %d", resp.StatusCode)
	}

	var payload feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding alert feed response: %w", err)
	}
	return &payload, nil
}
