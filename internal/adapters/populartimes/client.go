package populartimes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crowd-monitor/internal/domain"
	"crowd-monitor/internal/infra/metrics"
)

// Client queries a populartimes endpoint for the live crowd estimate of a
// place. The endpoint returns a JSON object whose current_popularity field
// is omitted when Google has no live data for the place.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

var _ domain.PopularityProvider = (*Client)(nil)

// NewClient creates a provider client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type placeResponse struct {
	CurrentPopularity *int `json:"current_popularity"`
}

// CurrentPopularity fetches the live estimate for the place. A nil result
// with nil error means the provider answered but had no estimate.
func (c *Client) CurrentPopularity(ctx context.Context, placeID string) (*int, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("populartimes: base url is empty")
	}

	query := url.Values{}
	query.Set("place_id", placeID)
	query.Set("key", c.apiKey)
	endpoint := c.baseURL + "/v1/place?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("populartimes: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest("populartimes", "place", placeID, start, err)
	if err != nil {
		return nil, fmt.Errorf("populartimes: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("populartimes: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var place placeResponse
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		return nil, fmt.Errorf("populartimes: decode response: %w", err)
	}
	return place.CurrentPopularity, nil
}
