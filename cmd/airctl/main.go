package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/myair/myair/internal/airquality"
	"github.com/myair/myair/internal/cache"
	"github.com/myair/myair/internal/lookup"
	"github.com/myair/myair/internal/throttle"
)

const lookupTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if err := run(log); err != nil {
		log.Error("airctl exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	var (
		latStr    = flag.String("lat", "", "latitude for the startup lookup")
		lonStr    = flag.String("lon", "", "longitude for the startup lookup")
		details   = flag.Bool("details", true, "resolve a place name for coordinate lookups")
		serverURL = flag.String("server", os.Getenv("AIR_PROXY_URL"), "edge proxy lookup URL; direct provider access when empty")
		cachePath = flag.String("cache", "", "cache file path (default: user cache dir)")
	)
	flag.Parse()

	source, err := buildSource(*serverURL, log)
	if err != nil {
		return err
	}

	store := openStore(*cachePath, log)
	defer func() { _ = store.Close() }()

	svc := lookup.NewService(source, store, log)
	guard := throttle.NewGuard()

	// Startup coordinate lookup mirrors the geolocation path: automatic,
	// so it does not consume the throttle budget.
	if *latStr != "" && *lonStr != "" {
		lat, errLat := strconv.ParseFloat(*latStr, 64)
		lon, errLon := strconv.ParseFloat(*lonStr, 64)
		if errLat != nil || errLon != nil {
			return fmt.Errorf("invalid coordinates %q,%q", *latStr, *lonStr)
		}
		doLookup(svc, airquality.CoordsKey(lat, lon), *details)
	}

	// Interactive loop: each typed city is a user-triggered lookup and
	// goes through the throttle guard.
	fmt.Println("Enter a city name to check its air quality (Ctrl-D to quit):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		city := scanner.Text()
		if airquality.CityKey(city).City == "" {
			continue
		}

		if !guard.TryAcquire() {
			wait := int(math.Ceil(guard.Remaining().Seconds()))
			fmt.Printf("Please wait %d seconds before checking again.\n", wait)
			continue
		}

		doLookup(svc, airquality.CityKey(city), *details)
	}

	return scanner.Err()
}

func doLookup(svc *lookup.Service, key airquality.Key, details bool) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	reading, err := svc.Lookup(ctx, key, details)
	if err != nil {
		fmt.Println(lookup.ErrorLine(err))
		return
	}

	fmt.Println(lookup.StatusLine(reading))
}

// buildSource picks proxy mode when a server URL is configured; otherwise
// the provider is called directly and needs the API key locally.
func buildSource(serverURL string, log *slog.Logger) (lookup.Source, error) {
	if serverURL != "" {
		return lookup.NewProxyClient(serverURL), nil
	}

	apiKey := os.Getenv("OPENWEATHER_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENWEATHER_API_KEY must be set when no -server is configured")
	}
	return airquality.NewFetcher(apiKey, log), nil
}

// openStore opens the durable cache, falling back to the in-memory store
// when the file cannot be used. The cache is an optimization; a broken
// cache file must not stop lookups.
func openStore(path string, log *slog.Logger) cache.Store {
	if path == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			log.Warn("no user cache dir, using in-memory cache", "err", err)
			return cache.NewMemory()
		}
		path = filepath.Join(dir, "myair", "cache.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn("cannot create cache dir, using in-memory cache", "err", err)
		return cache.NewMemory()
	}

	store, err := cache.OpenSQLite(path)
	if err != nil {
		log.Warn("cannot open cache file, using in-memory cache", "path", path, "err", err)
		return cache.NewMemory()
	}

	return store
}
