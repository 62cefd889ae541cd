package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/myair/myair/internal/airquality"
	"github.com/myair/myair/internal/api"
	"github.com/myair/myair/internal/cache"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	apiKey := mustEnv("OPENWEATHER_API_KEY")
	port := getEnv("PORT", "8080")

	ctx := context.Background()

	store, pinger, err := buildStore(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fetcher := airquality.NewFetcher(apiKey, log)
	handlers := api.NewHandlers(store, fetcher, log)
	router := api.NewRouter(handlers, pinger, log)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// buildStore selects the cache backend: Redis when REDIS_URL is set,
// Postgres when DATABASE_URL is set, otherwise the in-memory store.
func buildStore(ctx context.Context, log *slog.Logger) (cache.Store, api.CachePinger, error) {
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		client, err := cache.Connect(ctx, redisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		s := cache.NewRedis(client)
		log.Info("using redis cache")
		return s, s, nil
	}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pool, err := cache.ConnectPostgres(ctx, databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		s := cache.NewPostgres(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("using postgres cache")
		return s, s, nil
	}

	s := cache.NewMemory()
	log.Info("using in-memory cache")
	return s, s, nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable not set", "key", key)
		os.Exit(1)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
