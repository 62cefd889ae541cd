package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/myair/myair/internal/airquality"
)

const proxyTimeout = 15 * time.Second

// ProxyClient is a Source that calls the edge proxy instead of the upstream
// provider, so the client never handles the API key. City lookups always
// request details; the place name is what city results are displayed under.
type ProxyClient struct {
	baseURL string
	client  *http.Client
}

// NewProxyClient constructs a ProxyClient for the given lookup endpoint URL
// (e.g. https://air.example.com/api/v1/air).
func NewProxyClient(baseURL string) *ProxyClient {
	return &ProxyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: proxyTimeout},
	}
}

// ByCity fetches a reading for the named city through the proxy.
func (c *ProxyClient) ByCity(ctx context.Context, city string) (*airquality.Reading, error) {
	endpoint := c.baseURL + "?city=" + url.QueryEscape(city) + "&details=1"
	return c.get(ctx, endpoint, airquality.ErrCityNotFound)
}

// ByCoords fetches a reading for the coordinates through the proxy.
func (c *ProxyClient) ByCoords(ctx context.Context, lat, lon float64, details bool) (*airquality.Reading, error) {
	endpoint := fmt.Sprintf("%s?lat=%f&lon=%f", c.baseURL, lat, lon)
	if details {
		endpoint += "&details=1"
	}
	return c.get(ctx, endpoint, airquality.ErrNoReading)
}

// get performs the proxy request. The error kind for a 404 is decided by
// the call site, never inferred from the response body.
func (c *ProxyClient) get(ctx context.Context, endpoint string, notFound error) (*airquality.Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &airquality.UpstreamError{Op: "edge proxy", Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &airquality.UpstreamError{Op: "edge proxy", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var reading airquality.Reading
		if err := json.NewDecoder(resp.Body).Decode(&reading); err != nil {
			return nil, &airquality.UpstreamError{Op: "edge proxy", Err: fmt.Errorf("decoding response: %w", err)}
		}
		return &reading, nil
	case http.StatusNotFound:
		return nil, notFound
	default:
		return nil, &airquality.UpstreamError{Op: "edge proxy", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
}
