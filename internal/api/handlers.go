package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/myair/myair/internal/airquality"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	cache   ReadingCache
	fetcher ReadingFetcher
	log     *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(cache ReadingCache, fetcher ReadingFetcher, log *slog.Logger) *Handlers {
	return &Handlers{
		cache:   cache,
		fetcher: fetcher,
		log:     log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GetAirQuality handles GET /api/v1/air.
// Either city or lat+lon selects the lookup path; details=1 requests
// place-name enrichment. Fresh cache entries are served without touching
// the upstream APIs.
func (h *Handlers) GetAirQuality(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city := q.Get("city")
	latStr := q.Get("lat")
	lonStr := q.Get("lon")
	details := q.Get("details") == "1"

	switch {
	case city != "":
		h.byCity(w, r, city, details)
	case latStr != "" && lonStr != "":
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat != nil || errLon != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid latitude/longitude"})
			return
		}
		h.byCoords(w, r, lat, lon, details)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing latitude/longitude or city"})
	}
}

func (h *Handlers) byCity(w http.ResponseWriter, r *http.Request, city string, details bool) {
	key := airquality.CityKey(city).CacheKey()

	if cached := h.cacheGet(r.Context(), key); cached != nil {
		writeJSON(w, http.StatusOK, trimDetails(cached, details))
		return
	}

	reading, err := h.fetcher.ByCity(r.Context(), city)
	if err != nil {
		h.writeLookupError(w, key, err)
		return
	}

	h.cacheSet(r.Context(), key, reading)
	writeJSON(w, http.StatusOK, trimDetails(reading, details))
}

func (h *Handlers) byCoords(w http.ResponseWriter, r *http.Request, lat, lon float64, details bool) {
	key := airquality.CoordsKey(lat, lon).CacheKey()

	if cached := h.cacheGet(r.Context(), key); cached != nil {
		writeJSON(w, http.StatusOK, trimDetails(cached, details))
		return
	}

	reading, err := h.fetcher.ByCoords(r.Context(), lat, lon, details)
	if err != nil {
		h.writeLookupError(w, key, err)
		return
	}

	h.cacheSet(r.Context(), key, reading)
	writeJSON(w, http.StatusOK, trimDetails(reading, details))
}

// cacheGet reads the cache, treating any store failure as a miss.
func (h *Handlers) cacheGet(ctx context.Context, key string) *airquality.Reading {
	cached, err := h.cache.Get(ctx, key)
	if err != nil {
		h.log.Error("cache get failed", "key", key, "err", err)
		return nil
	}
	return cached
}

// cacheSet writes the cache best-effort; failures are logged, never surfaced.
func (h *Handlers) cacheSet(ctx context.Context, key string, reading *airquality.Reading) {
	if err := h.cache.Set(ctx, key, reading); err != nil {
		h.log.Warn("cache set failed", "key", key, "err", err)
	}
}

// trimDetails strips the place-name fields when enrichment was not requested.
func trimDetails(r *airquality.Reading, details bool) *airquality.Reading {
	if details {
		return r
	}
	return &airquality.Reading{AQI: r.AQI}
}

// writeLookupError maps the closed lookup error kinds to HTTP responses.
func (h *Handlers) writeLookupError(w http.ResponseWriter, key string, err error) {
	switch {
	case errors.Is(err, airquality.ErrCityNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "City not found"})
	case errors.Is(err, airquality.ErrNoReading):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No AQI data found"})
	default:
		h.log.Error("lookup failed", "key", key, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch air quality data"})
	}
}

// HealthHandlerFunc returns an http.HandlerFunc that checks the cache backend.
func HealthHandlerFunc(cache CachePinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := cache.Ping(ctx); err != nil {
			log.Error("health check: cache ping failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "cache": "error"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "cache": "ok"})
	}
}
