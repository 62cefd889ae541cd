package airquality

import (
	"fmt"
	"strings"
)

// Reading is the normalized air-quality result returned by every lookup path.
// City and Country are only present when the lookup resolved a place name.
type Reading struct {
	AQI     int    `json:"aqi"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// Key identifies a lookup target: a city name or a coordinate pair.
// Construct with CityKey or CoordsKey so normalization is applied.
type Key struct {
	City string
	Lat  float64
	Lon  float64
}

// CityKey builds a city lookup key. The name is trimmed and lowercased so
// equivalent spellings collide in the cache.
func CityKey(name string) Key {
	return Key{City: strings.ToLower(strings.TrimSpace(name))}
}

// CoordsKey builds a coordinate lookup key.
func CoordsKey(lat, lon float64) Key {
	return Key{Lat: lat, Lon: lon}
}

// IsCity reports whether the key targets a city name.
func (k Key) IsCity() bool {
	return k.City != ""
}

// CacheKey derives the cache key string for this lookup. Coordinates are
// rounded to four decimal places (~11m) so nearby repeat lookups collide.
func (k Key) CacheKey() string {
	if k.IsCity() {
		return "city:" + k.City
	}
	return fmt.Sprintf("geo:%.4f,%.4f", k.Lat, k.Lon)
}
