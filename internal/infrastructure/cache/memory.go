package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/biterank/backend/internal/domain"
)

// DefaultTTL is the recommendation expiry window
const DefaultTTL = 10 * time.Minute

// cacheItem represents a single cached listing sequence with its creation time
type cacheItem struct {
	Listings []domain.RestaurantListing
	StoredAt time.Time
}

// MemoryCache is a thread-safe in-memory listing cache. Entries older than
// the TTL are never served and are removed by SweepExpired.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryCache creates a new in-memory cache; a non-positive ttl means DefaultTTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		data: make(map[string]cacheItem),
		ttl:  ttl,
		now:  time.Now,
	}
}

// SetClock replaces the time source (tests)
func (c *MemoryCache) SetClock(now func() time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = now
}

// Get retrieves a copy of the listings stored under key
func (c *MemoryCache) Get(ctx context.Context, key string) ([]domain.RestaurantListing, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || c.expired(item) {
		return nil, domain.ErrCacheMiss
	}

	return cloneListings(item.Listings), nil
}

// Set stores a copy of listings under key, overwriting any previous entry
func (c *MemoryCache) Set(ctx context.Context, key string, listings []domain.RestaurantListing) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		Listings: cloneListings(listings),
		StoredAt: c.now(),
	}
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// SweepExpired removes every entry older than the TTL
func (c *MemoryCache) SweepExpired(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, item := range c.data {
		if c.expired(item) {
			delete(c.data, key)
		}
	}
	return nil
}

// StartJanitor sweeps expired entries every interval until ctx is done
func (c *MemoryCache) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.SweepExpired(ctx); err != nil {
					log.Printf("[CACHE] sweep failed: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}

// expired must be called with the mutex held
func (c *MemoryCache) expired(item cacheItem) bool {
	return c.now().Sub(item.StoredAt) > c.ttl
}

func cloneListings(listings []domain.RestaurantListing) []domain.RestaurantListing {
	if listings == nil {
		return nil
	}
	out := make([]domain.RestaurantListing, len(listings))
	copy(out, listings)
	for i := range out {
		out[i].Lat = clonePtr(out[i].Lat)
		out[i].Lng = clonePtr(out[i].Lng)
	}
	return out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
