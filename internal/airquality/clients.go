package airquality

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const httpTimeout = 10 * time.Second

// newHTTPClient returns an http.Client with a 10-second timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// doGet performs a GET request and decodes the JSON response into dst.
func doGet(ctx context.Context, client *http.Client, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// ---- OpenWeatherMap geocoding ----

const (
	geoForwardDefault = "https://api.openweathermap.org/geo/1.0/direct"
	geoReverseDefault = "https://api.openweathermap.org/geo/1.0/reverse"
)

// Place is a resolved geocoding result.
type Place struct {
	Name    string
	Country string
	Lat     float64
	Lon     float64
}

// GeoClient resolves city names to coordinates and back via the
// OpenWeatherMap geocoding API.
type GeoClient struct {
	apiKey     string
	forwardURL string
	reverseURL string
	client     *http.Client
}

// NewGeoClient constructs a GeoClient with the given API key.
func NewGeoClient(apiKey string) *GeoClient {
	return &GeoClient{
		apiKey:     apiKey,
		forwardURL: geoForwardDefault,
		reverseURL: geoReverseDefault,
		client:     newHTTPClient(),
	}
}

// NewGeoClientWithURLs constructs a GeoClient pointing at custom base URLs (for tests).
func NewGeoClientWithURLs(forwardURL, reverseURL, apiKey string) *GeoClient {
	return &GeoClient{
		apiKey:     apiKey,
		forwardURL: forwardURL,
		reverseURL: reverseURL,
		client:     newHTTPClient(),
	}
}

type geoEntry struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Forward resolves a city name to coordinates.
// Returns ErrCityNotFound when the provider has no match.
func (c *GeoClient) Forward(ctx context.Context, city string) (*Place, error) {
	endpoint := c.forwardURL + "?q=" + url.QueryEscape(city) + "&limit=1&appid=" + c.apiKey

	var raw []geoEntry
	if err := doGet(ctx, c.client, endpoint, &raw); err != nil {
		return nil, &UpstreamError{Op: "forward geocode", Err: err}
	}
	if len(raw) == 0 {
		return nil, ErrCityNotFound
	}

	e := raw[0]
	return &Place{Name: e.Name, Country: e.Country, Lat: e.Lat, Lon: e.Lon}, nil
}

// Reverse resolves coordinates to a place name.
// Returns nil, nil when the provider has no match; callers treat the result
// as optional enrichment either way.
func (c *GeoClient) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	endpoint := fmt.Sprintf("%s?lat=%f&lon=%f&limit=1&appid=%s", c.reverseURL, lat, lon, c.apiKey)

	var raw []geoEntry
	if err := doGet(ctx, c.client, endpoint, &raw); err != nil {
		return nil, &UpstreamError{Op: "reverse geocode", Err: err}
	}
	if len(raw) == 0 {
		return nil, nil
	}

	e := raw[0]
	return &Place{Name: e.Name, Country: e.Country, Lat: e.Lat, Lon: e.Lon}, nil
}

// ---- OpenWeatherMap air pollution ----

const pollutionDefault = "https://api.openweathermap.org/data/2.5/air_pollution"

// PollutionClient fetches the current air-quality index from OpenWeatherMap.
type PollutionClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewPollutionClient constructs a PollutionClient with the given API key.
func NewPollutionClient(apiKey string) *PollutionClient {
	return &PollutionClient{apiKey: apiKey, baseURL: pollutionDefault, client: newHTTPClient()}
}

// NewPollutionClientWithURL constructs a PollutionClient pointing at a custom base URL (for tests).
func NewPollutionClientWithURL(baseURL, apiKey string) *PollutionClient {
	return &PollutionClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type pollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
	} `json:"list"`
}

// Fetch returns the AQI level (1..5) at the given coordinates.
// Returns ErrNoReading when the provider has no reading for the location.
func (c *PollutionClient) Fetch(ctx context.Context, lat, lon float64) (int, error) {
	endpoint := fmt.Sprintf("%s?lat=%f&lon=%f&appid=%s", c.baseURL, lat, lon, c.apiKey)

	var raw pollutionResponse
	if err := doGet(ctx, c.client, endpoint, &raw); err != nil {
		return 0, &UpstreamError{Op: "air pollution fetch", Err: err}
	}
	if len(raw.List) == 0 {
		return 0, ErrNoReading
	}

	return raw.List[0].Main.AQI, nil
}
