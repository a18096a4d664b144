package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/biterank/backend/config"
	httpDelivery "github.com/biterank/backend/internal/delivery/http"
	"github.com/biterank/backend/internal/domain"
	"github.com/biterank/backend/internal/infrastructure/cache"
	"github.com/biterank/backend/internal/infrastructure/places"
	"github.com/biterank/backend/internal/observability"
	"github.com/biterank/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting BiteRank Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s (TTL: %s)", cfg.Cache.Type, cfg.Cache.TTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := observability.InitTracer(ctx, "biterank-backend", cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Printf("Tracer shutdown error: %v", err)
		}
	}()
	if cfg.Tracing.Endpoint != "" {
		log.Printf("Tracing exporter: %s", cfg.Tracing.Endpoint)
	}

	// Initialize infrastructure dependencies
	listingCache, err := newListingCache(ctx, cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	placesClient := places.NewClient(places.ClientConfig{
		APIKey:            cfg.Places.APIKey,
		BaseURL:           cfg.Places.BaseURL,
		RequestTimeout:    cfg.Places.RequestTimeout,
		RequestsPerSecond: cfg.Places.RequestsPerSecond,
		PhotoMaxWidth:     cfg.Places.PhotoMaxWidth,
	})

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		placesClient.SetDebug(true)
		log.Printf("Places client debug mode enabled")
	}

	if placesClient.Configured() {
		log.Printf("Places API configured: %s", cfg.Places.BaseURL)
	} else {
		log.Printf("WARNING: Places API key NOT CONFIGURED - serving synthetic recommendations only")
	}

	// Initialize usecase layer
	recommendationService := usecase.NewRecommendationService(
		listingCache,
		placesClient,
		usecase.NewFallbackListings(0),
		usecase.RecommendationServiceConfig{},
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(recommendationService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Printf("Server stopped")
}

// newListingCache builds the configured cache backend. The memory janitor
// stops with ctx.
func newListingCache(ctx context.Context, cfg config.CacheConfig) (domain.ListingCache, error) {
	switch cfg.Type {
	case "redis":
		client, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		redisCache := cache.NewRedisCache(client, cfg.TTL)
		if err := redisCache.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Printf("Redis cache connected")
		return redisCache, nil
	default:
		memoryCache := cache.NewMemoryCache(cfg.TTL)
		if cfg.SweepInterval > 0 {
			memoryCache.StartJanitor(ctx, cfg.SweepInterval)
			log.Printf("Cache janitor running every %s", cfg.SweepInterval)
		}
		return memoryCache, nil
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
