package airquality

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// geoResolver is the interface satisfied by GeoClient.
type geoResolver interface {
	Forward(ctx context.Context, city string) (*Place, error)
	Reverse(ctx context.Context, lat, lon float64) (*Place, error)
}

// pollutionFetcher is the interface satisfied by PollutionClient.
type pollutionFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (int, error)
}

// Fetcher turns a lookup target into a Reading with the minimum necessary
// provider calls. The pollution call is the last required call of every
// chain; place-name enrichment never fails or blocks a lookup.
type Fetcher struct {
	geo       geoResolver
	pollution pollutionFetcher
	log       *slog.Logger
}

// NewFetcher constructs a Fetcher with production API clients.
func NewFetcher(apiKey string, log *slog.Logger) *Fetcher {
	return &Fetcher{
		geo:       NewGeoClient(apiKey),
		pollution: NewPollutionClient(apiKey),
		log:       log,
	}
}

// NewFetcherWithClients constructs a Fetcher with injectable clients (used in tests).
func NewFetcherWithClients(geo geoResolver, pollution pollutionFetcher, log *slog.Logger) *Fetcher {
	return &Fetcher{geo: geo, pollution: pollution, log: log}
}

// ByCoords fetches the AQI at the given coordinates. When details is set,
// a reverse-geocode runs concurrently with the pollution call; its failure
// or an empty match is logged and discarded.
func (f *Fetcher) ByCoords(ctx context.Context, lat, lon float64, details bool) (*Reading, error) {
	if !details {
		aqi, err := f.pollution.Fetch(ctx, lat, lon)
		if err != nil {
			return nil, err
		}
		return &Reading{AQI: aqi}, nil
	}

	var aqi int
	var place *Place

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		level, err := f.pollution.Fetch(gCtx, lat, lon)
		if err != nil {
			return err
		}
		aqi = level
		return nil
	})

	g.Go(func() error {
		p, err := f.geo.Reverse(gCtx, lat, lon)
		if err != nil {
			f.log.Warn("reverse geocode failed", "lat", lat, "lon", lon, "err", err)
			return nil
		}
		place = p
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Reading{AQI: aqi}
	if place != nil {
		r.City = place.Name
		r.Country = place.Country
	}
	return r, nil
}

// ByCity resolves the city to coordinates, then fetches the AQI there.
// The resolved place name and country are always folded into the result;
// they are the primary source of the display name for city lookups.
func (f *Fetcher) ByCity(ctx context.Context, city string) (*Reading, error) {
	place, err := f.geo.Forward(ctx, city)
	if err != nil {
		return nil, err
	}

	aqi, err := f.pollution.Fetch(ctx, place.Lat, place.Lon)
	if err != nil {
		return nil, err
	}

	return &Reading{AQI: aqi, City: place.Name, Country: place.Country}, nil
}
