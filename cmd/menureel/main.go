package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/menureel/menureel/internal/database"
	"github.com/menureel/menureel/internal/feed"
	"github.com/menureel/menureel/internal/geoip"
	"github.com/menureel/menureel/internal/menu"
	"github.com/menureel/menureel/internal/metrics"
	"github.com/menureel/menureel/internal/server"
	"github.com/menureel/menureel/internal/signedurl"
	"github.com/menureel/menureel/internal/storage"
	"github.com/menureel/menureel/internal/visibility"
)

func main() {
	port := getEnv("PORT", "8080")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET is required")
	}

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(databaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	slog.Info("database migrations applied")

	publicEndpoint := os.Getenv("S3_PUBLIC_ENDPOINT")
	store, err := storage.New(ctx, storage.Config{
		Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:3900"),
		PublicEndpoint: publicEndpoint,
		Bucket:         getEnv("S3_BUCKET", "menureel"),
		AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		SecretKey:      os.Getenv("S3_SECRET_KEY"),
		Region:         getEnv("S3_REGION", "eu-central-1"),
	})
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}

	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatalf("storage bucket check failed: %v", err)
	}

	baseURL := getEnv("BASE_URL", "http://localhost:8080")
	if err := store.SetCORS(ctx, []string{baseURL}); err != nil {
		slog.Warn("storage CORS not applied", "error", err)
	}
	slog.Info("storage bucket ready")

	urls := signedurl.New(store, getEnvDuration("SIGNED_URL_TTL", signedurl.DefaultTTL))
	urls.SetRefreshMargin(getEnvDuration("SIGNED_URL_REFRESH_MARGIN", 0))

	loader := menu.NewLoader(menu.NewRepository(db.Pool), urls)

	feedCfg := feed.Config{
		Visibility: visibility.Config{
			PercentThreshold: float64(getEnvInt64("VISIBLE_PERCENT_THRESHOLD", visibility.DefaultPercentThreshold)),
			MinimumViewTime:  getEnvDuration("MINIMUM_VIEW_TIME", visibility.DefaultMinimumViewTime),
		},
		WindowRadius: int(getEnvInt64("RENDER_WINDOW_RADIUS", 1)),
		Prefetch:     getEnv("PREFETCH_ENABLED", "true") == "true",
	}

	storageEndpoint := publicEndpoint
	if storageEndpoint == "" {
		storageEndpoint = getEnv("S3_ENDPOINT", "http://localhost:3900")
	}

	geo, err := geoip.New(os.Getenv("GEOIP_DB_PATH"))
	if err != nil {
		log.Fatalf("geoip initialization failed: %v", err)
	}
	defer geo.Close()

	srv := server.New(server.Config{
		Pinger:          db,
		Geo:             geo,
		Menu:            loader,
		URLs:            urls,
		Prefetcher:      store,
		Feed:            feedCfg,
		SessionSecret:   sessionSecret,
		BaseURL:         baseURL,
		StorageEndpoint: storageEndpoint,
		EnableDocs:      getEnv("API_DOCS_ENABLED", "false") == "true",
	})

	// WriteTimeout is left unset; feed sockets are long-lived and manage
	// their own write deadlines.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("menureel listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	slog.Info("shutdown complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings such as "300ms" or "1h".
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}
