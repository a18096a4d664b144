package usecase

import (
	"cmp"
	"context"
	"errors"
	"log"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/biterank/backend/internal/domain"
	"github.com/biterank/backend/internal/observability"
)

// RecommendationServiceConfig holds configuration for the recommendation service
type RecommendationServiceConfig struct {
	// FetchTimeout bounds one provider fetch including page delays
	FetchTimeout time.Duration
}

// RecommendationService returns top rated restaurants for a location. It is a
// failure boundary: provider errors degrade to synthetic listings and are
// never returned to the caller.
type RecommendationService struct {
	cache        domain.ListingCache
	provider     domain.PlacesProvider
	fallback     domain.FallbackGenerator
	fetchTimeout time.Duration
	group        singleflight.Group
	tracer       trace.Tracer
}

// NewRecommendationService creates a new recommendation service. A nil
// provider behaves like an unconfigured one.
func NewRecommendationService(
	cache domain.ListingCache,
	provider domain.PlacesProvider,
	fallback domain.FallbackGenerator,
	config RecommendationServiceConfig,
) *RecommendationService {
	fetchTimeout := config.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 60 * time.Second
	}

	return &RecommendationService{
		cache:        cache,
		provider:     provider,
		fallback:     fallback,
		fetchTimeout: fetchTimeout,
		tracer:       otel.Tracer("github.com/biterank/backend/usecase"),
	}
}

// GetTopRatedRestaurants returns listings for location ordered by rating.
// Flow: check cache -> provider (or fallback) -> sort -> cache -> sweep -> return
func (s *RecommendationService) GetTopRatedRestaurants(
	ctx context.Context,
	location, search string,
) []domain.RestaurantListing {
	ctx, span := s.tracer.Start(ctx, "recommendations.GetTopRatedRestaurants")
	defer span.End()
	span.SetAttributes(attribute.String("location", location), attribute.String("search", search))

	cacheKey := CacheKey(location, search)

	cached, err := s.cache.Get(ctx, cacheKey)
	if err == nil {
		observability.ObserveCacheLookup(true)
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		log.Printf("[RECOMMEND] Cache get error for %q: %v", cacheKey, err)
	}
	observability.ObserveCacheLookup(false)

	// Identical concurrent misses share one fetch. The fetch outlives any
	// single caller's cancellation so a disconnect cannot poison the others.
	v, _, shared := s.group.Do(cacheKey, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return s.produce(fetchCtx, cacheKey, location, search), nil
	})
	span.SetAttributes(attribute.Bool("coalesced", shared))

	return slices.Clone(v.([]domain.RestaurantListing))
}

// produce builds a fresh result for cacheKey, stores it and sweeps the cache
func (s *RecommendationService) produce(ctx context.Context, cacheKey, location, search string) []domain.RestaurantListing {
	listings, err := s.fetchFromProvider(ctx, location, search)
	switch {
	case err == nil:
		slices.SortStableFunc(listings, func(a, b domain.RestaurantListing) int {
			return cmp.Compare(b.Rating, a.Rating)
		})
	case errors.Is(err, domain.ErrProviderNotConfigured):
		observability.ObserveFallback(observability.FallbackNotConfigured)
		listings = s.fallback.GenerateFallback(location, search)
	default:
		log.Printf("[RECOMMEND] Error fetching places for %q, serving fallback: %v", cacheKey, err)
		observability.ObserveFallback(observability.FallbackProviderError)
		listings = s.fallback.GenerateFallback(location, search)
	}
	if listings == nil {
		listings = []domain.RestaurantListing{}
	}

	if err := s.cache.Set(ctx, cacheKey, listings); err != nil {
		// Log but don't fail if caching fails
		log.Printf("[RECOMMEND] Cache set error for %q: %v", cacheKey, err)
	}
	if err := s.cache.SweepExpired(ctx); err != nil {
		log.Printf("[RECOMMEND] Cache sweep error: %v", err)
	}

	return listings
}

func (s *RecommendationService) fetchFromProvider(ctx context.Context, location, search string) ([]domain.RestaurantListing, error) {
	if s.provider == nil {
		return nil, domain.ErrProviderNotConfigured
	}
	return s.provider.FetchFromProvider(ctx, location, search)
}

// CacheKey identifies one memoized result set: location + ":" + search
func CacheKey(location, search string) string {
	return location + ":" + search
}
