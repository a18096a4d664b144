package domain

import (
	"context"
)

// ListingCache stores ordered listing sequences under a cache key.
// Get returns ErrCacheMiss for unknown or expired keys.
type ListingCache interface {
	Get(ctx context.Context, key string) ([]RestaurantListing, error)
	Set(ctx context.Context, key string, listings []RestaurantListing) error
	SweepExpired(ctx context.Context) error
}

// PlacesProvider fetches restaurant listings from the external places API
type PlacesProvider interface {
	FetchFromProvider(ctx context.Context, location, search string) ([]RestaurantListing, error)
}

// FallbackGenerator produces synthetic listings without performing I/O
type FallbackGenerator interface {
	GenerateFallback(location, search string) []RestaurantListing
}
