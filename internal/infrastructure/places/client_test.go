package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biterank/backend/internal/domain"
)

// fakePlaces is an httptest-backed stand-in for the Places web service
type fakePlaces struct {
	t *testing.T

	// pages maps a page token ("" for the first page) to the place IDs it returns
	pages     map[string][]string
	nextToken map[string]string
	// noRating lists place IDs whose details omit the rating
	noRating map[string]bool
	// failDetails lists place IDs whose details answer 500
	failDetails map[string]bool
	searchCode  int
	status      string

	mu            sync.Mutex
	searchQueries []string
	pageTokens    []string
	detailCalls   int
	inFlight      int32
	maxInFlight   int32
}

func newFakePlaces(t *testing.T) *fakePlaces {
	return &fakePlaces{
		t:           t,
		pages:       map[string][]string{},
		nextToken:   map[string]string{},
		noRating:    map[string]bool{},
		failDetails: map[string]bool{},
		searchCode:  http.StatusOK,
		status:      domain.PlacesStatusOK,
	}
}

func (f *fakePlaces) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "test-api-key", r.URL.Query().Get("key"))

	switch r.URL.Path {
	case "/textsearch/json":
		token := r.URL.Query().Get("pagetoken")
		f.mu.Lock()
		f.searchQueries = append(f.searchQueries, r.URL.Query().Get("query"))
		f.pageTokens = append(f.pageTokens, token)
		f.mu.Unlock()

		if f.searchCode != http.StatusOK {
			w.WriteHeader(f.searchCode)
			return
		}
		assert.Equal(f.t, "restaurant", r.URL.Query().Get("type"))

		resp := domain.PlacesTextSearchResponse{Status: f.status, NextPageToken: f.nextToken[token]}
		for _, id := range f.pages[token] {
			resp.Results = append(resp.Results, domain.PlaceSearchResult{PlaceID: id})
		}
		if f.status == domain.PlacesStatusOK && len(resp.Results) == 0 {
			resp.Status = domain.PlacesStatusZeroResults
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)

	case "/details/json":
		cur := atomic.AddInt32(&f.inFlight, 1)
		defer atomic.AddInt32(&f.inFlight, -1)
		for {
			prev := atomic.LoadInt32(&f.maxInFlight)
			if cur <= prev || atomic.CompareAndSwapInt32(&f.maxInFlight, prev, cur) {
				break
			}
		}
		f.mu.Lock()
		f.detailCalls++
		f.mu.Unlock()
		// Keep lookups overlapping so the concurrency bound is observable.
		time.Sleep(2 * time.Millisecond)

		id := r.URL.Query().Get("place_id")
		assert.Contains(f.t, r.URL.Query().Get("fields"), "rating")
		if f.failDetails[id] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		details := domain.PlaceDetails{
			Name:             "Place " + id,
			FormattedAddress: id + " Main St, Austin, TX",
			UserRatingsTotal: 42,
			Types:            []string{"point_of_interest", "restaurant", "italian_restaurant"},
		}
		if !f.noRating[id] {
			rating := 4.0
			details.Rating = &rating
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.PlaceDetailsResponse{Status: domain.PlacesStatusOK, Result: &details})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func placeIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return ids
}

// newTestClient points a client at the fake and records requested sleeps
func newTestClient(t *testing.T, handler http.Handler) (*Client, *[]time.Duration) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		APIKey:            "test-api-key",
		BaseURL:           server.URL,
		RequestsPerSecond: 10000,
	})

	var mu sync.Mutex
	sleeps := []time.Duration{}
	client.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		sleeps = append(sleeps, d)
		return nil
	}
	return client, &sleeps
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "test-api-key", BaseURL: "https://api.example.com/"})

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.Equal(t, defaultRequestTimeout, client.httpClient.Timeout)
	assert.Equal(t, defaultPhotoMaxWidth, client.photoMaxWidth)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
	assert.True(t, client.Configured())
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(ClientConfig{})

	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.False(t, client.Configured())
}

func TestSetDebug(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "test-api-key"})

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	assert.Equal(t, "restaurants in Austin", BuildSearchQuery("Austin", ""))
	assert.Equal(t, "restaurants in Austin", BuildSearchQuery("Austin", "   "))
	assert.Equal(t, "ramen restaurant in Austin", BuildSearchQuery("Austin", "ramen"))
}

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "https://x/textsearch/json?key=REDACTED&query=a",
		redactKey("https://x/textsearch/json?key=secret&query=a"))
	assert.Equal(t, "https://x/details/json?fields=a&key=REDACTED",
		redactKey("https://x/details/json?fields=a&key=secret"))
	assert.Equal(t, "no credential here", redactKey("no credential here"))
}

func TestFetchFromProvider_NotConfigured(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	result, err := client.FetchFromProvider(context.Background(), "Austin", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProviderNotConfigured)
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))
}

func TestFetchFromProvider_SinglePage(t *testing.T) {
	fake := newFakePlaces(t)
	fake.pages[""] = placeIDs("p", 5)
	client, sleeps := newTestClient(t, fake)

	result, err := client.FetchFromProvider(context.Background(), "Austin", "")

	require.NoError(t, err)
	require.Len(t, result, 5)
	for i, listing := range result {
		assert.Equal(t, fmt.Sprintf("p-%d", i), listing.ID, "provider order is kept")
		assert.Equal(t, 4.0, listing.Rating)
		assert.Equal(t, "Italian", listing.Cuisine)
		assert.Equal(t, domain.SourceGoogle, listing.Source)
	}
	assert.Equal(t, []string{"restaurants in Austin"}, fake.searchQueries)
	assert.Empty(t, *sleeps)
}

func TestFetchFromProvider_SearchTextInQuery(t *testing.T) {
	fake := newFakePlaces(t)
	fake.pages[""] = placeIDs("p", 1)
	client, _ := newTestClient(t, fake)

	_, err := client.FetchFromProvider(context.Background(), "Austin", "tacos")

	require.NoError(t, err)
	assert.Equal(t, []string{"tacos restaurant in Austin"}, fake.searchQueries)
}

func TestFetchFromProvider_FollowsContinuationTokens(t *testing.T) {
	fake := newFakePlaces(t)
	fake.pages[""] = placeIDs("a", 20)
	fake.nextToken[""] = "token-2"
	fake.pages["token-2"] = placeIDs("b", 20)
	fake.nextToken["token-2"] = "token-3"
	fake.pages["token-3"] = placeIDs("c", 20)
	fake.nextToken["token-3"] = "token-4"
	fake.pages["token-4"] = placeIDs("d", 20)
	client, sleeps := newTestClient(t, fake)

	result, err := client.FetchFromProvider(context.Background(), "Austin", "")

	require.NoError(t, err)
	assert.Len(t, result, 60)
	assert.Equal(t, []string{"", "token-2", "token-3"}, fake.pageTokens, "stops after MaxPages")
	assert.Equal(t, []time.Duration{PageTokenDelay, PageTokenDelay}, *sleeps,
		"waits before every continuation token")
	assert.Equal(t, "a-0", result[0].ID)
	assert.Equal(t, "c-19", result[59].ID)
}

func TestFetchFromProvider_CancelledDuringPageDelay(t *testing.T) {
	fake := newFakePlaces(t)
	fake.pages[""] = placeIDs("a", 20)
	fake.nextToken[""] = "token-2"
	fake.pages["token-2"] = placeIDs("b", 20)
	client, _ := newTestClient(t, fake)
	client.sleep = func(ctx context.Context, d time.Duration) error { return context.Canceled }

	result, err := client.FetchFromProvider(context.Background(), "Austin", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProviderTransport)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{""}, fake.pageTokens, "continuation never requested")
}

func TestFetchFromProvider_StopsAtTargetResults(t *testing.T) {
	fake := newFakePlaces(t)
	fake.pages[""] = placeIDs("a", 60)
	fake.nextToken[""] = "token-2"
	fake.pages["token-2"] = placeIDs("b", 60)
	fake.nextToken["token-2"] = "token-3"
	fake.pages["token-3"] = placeIDs("c", 60)
	client, _ := newTestClient(t, fake)

	result, err := client.FetchFromProvider(context.Background(), "Austin", "")

	require.NoError(t, err)
	assert.Len(t, result, TargetResults)
	assert.Equal(t, []string{"", "token-2"}, fake.pageTokens, "third page is never requested")
	assert.Equal(t, 100, fake.detailCalls, "remaining batches are skipped")
	assert.Equal(t, "b-39", result[TargetResults-1].ID)
}

func TestFetchFromProvider_BoundsDetailConcurrency(t *testing.T) {
	fake := newFakePlaces(t)
	fake.pages[""] = placeIDs("p", 35)
	client, _ := newTestClient(t, fake)

	result, err := client.FetchFromProvider(context.Background(), "Austin", "")

	require.NoError(t, err)
	assert.Len(t, result, 35)
	assert.LessOrEqual(t, atomic.LoadInt32(&fake.maxInFlight), int32(DetailBatchSize))
}

func TestFetchFromProvider_DropsUnusableDetails(t *testing.T) {
	fake := newFakePlaces(t)
	fake.pages[""] = placeIDs("p", 4)
	fake.noRating["p-1"] = true
	fake.failDetails["p-2"] = true
	client, _ := newTestClient(t, fake)

	result, err := client.FetchFromProvider(context.Background(), "Austin", "")

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "p-0", result[0].ID)
	assert.Equal(t, "p-3", result[1].ID)
}

func TestFetchFromProvider_AllDetailsFail(t *testing.T) {
	fake := newFakePlaces(t)
	fake.pages[""] = placeIDs("p", 3)
	for _, id := range placeIDs("p", 3) {
		fake.failDetails[id] = true
	}
	client, _ := newTestClient(t, fake)

	result, err := client.FetchFromProvider(context.Background(), "Austin", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProviderResponse)
}

func TestFetchFromProvider_ZeroResults(t *testing.T) {
	fake := newFakePlaces(t)
	client, _ := newTestClient(t, fake)

	result, err := client.FetchFromProvider(context.Background(), "Nowhere", "")

	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestFetchFromProvider_TransportErrorIsRetried(t *testing.T) {
	fake := newFakePlaces(t)
	fake.searchCode = http.StatusBadGateway
	client, sleeps := newTestClient(t, fake)

	result, err := client.FetchFromProvider(context.Background(), "Austin", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProviderTransport)
	assert.Len(t, fake.searchQueries, searchAttempts)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, *sleeps)
}

func TestFetchFromProvider_ErrorStatus(t *testing.T) {
	fake := newFakePlaces(t)
	fake.status = "REQUEST_DENIED"
	client, _ := newTestClient(t, fake)

	result, err := client.FetchFromProvider(context.Background(), "Austin", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProviderResponse)
	assert.Len(t, fake.searchQueries, 1, "error statuses are not retried")
}

func TestFetchFromProvider_MalformedSearchResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	}))

	_, err := client.FetchFromProvider(context.Background(), "Austin", "")

	assert.ErrorIs(t, err, domain.ErrProviderResponse)
}

func TestFetchFromProvider_UnreachableProvider(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := NewClient(ClientConfig{APIKey: "test-api-key", BaseURL: baseURL, RequestsPerSecond: 10000})
	client.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	_, err := client.FetchFromProvider(context.Background(), "Austin", "")

	require.ErrorIs(t, err, domain.ErrProviderTransport)
	assert.NotContains(t, err.Error(), "test-api-key")
}

func TestPlaceDetails_ErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.PlaceDetailsResponse{Status: "NOT_FOUND"})
	}))

	details, err := client.PlaceDetails(context.Background(), "missing")

	assert.Nil(t, details)
	assert.ErrorIs(t, err, domain.ErrProviderResponse)
}

func TestPhotoURL(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "test-api-key", BaseURL: "https://places.example.com"})

	assert.Equal(t, "", client.photoURL(&domain.PlaceDetails{}))

	got := client.photoURL(&domain.PlaceDetails{
		Photos: []domain.PlacePhoto{{PhotoReference: "ref-1"}, {PhotoReference: "ref-2"}},
	})
	assert.True(t, strings.HasPrefix(got, "https://places.example.com/photo?"))
	assert.Contains(t, got, "maxwidth=400")
	assert.Contains(t, got, "photoreference=ref-1")
	assert.Contains(t, got, "key=test-api-key")
}
