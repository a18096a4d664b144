package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/biterank/backend/internal/domain"
	"github.com/biterank/backend/internal/observability"
)

// Fixed pagination and batching knobs of the provider integration.
const (
	// MaxPages caps how many text search pages are followed
	MaxPages = 3
	// TargetResults stops the fetch once this many listings are collected
	TargetResults = 100
	// PageTokenDelay is how long a continuation token needs before it becomes valid
	PageTokenDelay = 2 * time.Second
	// DetailBatchSize bounds concurrent detail lookups
	DetailBatchSize = 10
)

const (
	DefaultBaseURL           = "https://maps.googleapis.com/maps/api/place"
	defaultRequestTimeout    = 10 * time.Second
	defaultRequestsPerSecond = 10
	defaultPhotoMaxWidth     = 400
	searchAttempts           = 3

	detailFields = "name,formatted_address,rating,user_ratings_total,price_level,types,photos,url,geometry"
)

// ClientConfig holds configuration for the places client
type ClientConfig struct {
	APIKey            string
	BaseURL           string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	PhotoMaxWidth     int
}

// Client handles communication with the Google Places web service
type Client struct {
	httpClient    *http.Client
	apiKey        string
	baseURL       string
	photoMaxWidth int
	rateLimiter   *rate.Limiter
	tracer        trace.Tracer
	sleep         func(ctx context.Context, d time.Duration) error
	debug         bool
}

// NewClient creates a new places API client
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	photoWidth := cfg.PhotoMaxWidth
	if photoWidth <= 0 {
		photoWidth = defaultPhotoMaxWidth
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:        cfg.APIKey,
		baseURL:       baseURL,
		photoMaxWidth: photoWidth,
		// Burst covers one full detail batch.
		rateLimiter: rate.NewLimiter(rate.Limit(rps), DetailBatchSize),
		tracer:      otel.Tracer("github.com/biterank/backend/places"),
		sleep:       sleepContext,
	}
}

// SetDebug enables logging of every outbound request URL (credential redacted)
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Configured reports whether a provider credential is set
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// FetchFromProvider runs a text search for restaurants in location, follows
// continuation tokens and resolves every hit through a details lookup.
// Hits whose details fail or lack a rating are dropped; if every hit is
// dropped the call fails with ErrProviderResponse.
func (c *Client) FetchFromProvider(ctx context.Context, location, search string) ([]domain.RestaurantListing, error) {
	if !c.Configured() {
		return nil, domain.ErrProviderNotConfigured
	}

	ctx, span := c.tracer.Start(ctx, "places.FetchFromProvider")
	defer span.End()
	span.SetAttributes(attribute.String("location", location), attribute.String("search", search))

	query := BuildSearchQuery(location, search)
	restaurants := make([]domain.RestaurantListing, 0, TargetResults)
	hits := 0
	pageToken := ""

	for page := 0; page < MaxPages; page++ {
		if page > 0 {
			if pageToken == "" {
				break
			}
			// A token used before it has propagated comes back INVALID_REQUEST.
			if err := c.sleep(ctx, PageTokenDelay); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrProviderTransport, err)
			}
		}

		resp, err := c.TextSearch(ctx, query, pageToken)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		hits += len(resp.Results)

		for start := 0; start < len(resp.Results); start += DetailBatchSize {
			end := min(start+DetailBatchSize, len(resp.Results))
			restaurants = append(restaurants, c.fetchDetailsBatch(ctx, resp.Results[start:end])...)

			if len(restaurants) >= TargetResults {
				log.Printf("[PLACES] Reached %d results for query %q", TargetResults, query)
				return restaurants[:TargetResults], nil
			}
		}

		pageToken = resp.NextPageToken
	}

	if hits > 0 && len(restaurants) == 0 {
		err := fmt.Errorf("%w: none of %d places had usable details", domain.ErrProviderResponse, hits)
		span.RecordError(err)
		return nil, err
	}

	log.Printf("[PLACES] Found %d restaurants for query %q (%d hits)", len(restaurants), query, hits)
	span.SetAttributes(attribute.Int("results", len(restaurants)))
	return restaurants, nil
}

// fetchDetailsBatch resolves one batch of hits concurrently. The result keeps
// the provider's order and omits hits that could not be listed.
func (c *Client) fetchDetailsBatch(ctx context.Context, batch []domain.PlaceSearchResult) []domain.RestaurantListing {
	listings := make([]*domain.RestaurantListing, len(batch))

	var g errgroup.Group
	for i, place := range batch {
		g.Go(func() error {
			details, err := c.PlaceDetails(ctx, place.PlaceID)
			if err != nil {
				log.Printf("[PLACES] Error fetching details for place %s: %v", place.PlaceID, err)
				return nil
			}

			listing, ok := MapToListing(place.PlaceID, details, c.photoURL(details))
			if !ok {
				if c.debug {
					log.Printf("[PLACES] Dropping place %s: no rating", place.PlaceID)
				}
				return nil
			}
			listings[i] = &listing
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.RestaurantListing, 0, len(batch))
	for _, l := range listings {
		if l != nil {
			out = append(out, *l)
		}
	}
	return out
}

// TextSearch requests one page of text search results. Transport failures
// are retried with exponential backoff; error statuses are not.
func (c *Client) TextSearch(ctx context.Context, query, pageToken string) (*domain.PlacesTextSearchResponse, error) {
	ctx, span := c.tracer.Start(ctx, "places.TextSearch")
	defer span.End()
	span.SetAttributes(attribute.Bool("continuation", pageToken != ""))

	params := url.Values{}
	params.Add("query", query)
	params.Add("type", "restaurant")
	params.Add("key", c.apiKey)
	if pageToken != "" {
		params.Add("pagetoken", pageToken)
	}
	reqURL := fmt.Sprintf("%s/textsearch/json?%s", c.baseURL, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= searchAttempts; attempt++ {
		body, err := c.get(ctx, reqURL)
		observability.ObservePlacesRequest("textsearch", err)
		if err != nil {
			log.Printf("[PLACES] Search error (attempt %d): %v", attempt, err)
			lastErr = err
			if attempt < searchAttempts {
				if err := c.sleep(ctx, exponentialBackoff(attempt)); err != nil {
					break
				}
			}
			continue
		}

		var searchResp domain.PlacesTextSearchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			return nil, fmt.Errorf("%w: decode search response: %v", domain.ErrProviderResponse, err)
		}

		switch searchResp.Status {
		case domain.PlacesStatusOK, domain.PlacesStatusZeroResults:
			return &searchResp, nil
		default:
			return nil, fmt.Errorf("%w: search status %s: %s",
				domain.ErrProviderResponse, searchResp.Status, searchResp.ErrorMessage)
		}
	}

	log.Printf("[PLACES] All retries failed for query: %q", query)
	span.RecordError(lastErr)
	return nil, lastErr
}

// PlaceDetails looks up the detail fields of a single place. It is not retried.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (*domain.PlaceDetails, error) {
	ctx, span := c.tracer.Start(ctx, "places.PlaceDetails")
	defer span.End()
	span.SetAttributes(attribute.String("place_id", placeID))

	params := url.Values{}
	params.Add("place_id", placeID)
	params.Add("fields", detailFields)
	params.Add("key", c.apiKey)
	reqURL := fmt.Sprintf("%s/details/json?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, reqURL)
	observability.ObservePlacesRequest("details", err)
	if err != nil {
		return nil, err
	}

	var detailsResp domain.PlaceDetailsResponse
	if err := json.Unmarshal(body, &detailsResp); err != nil {
		return nil, fmt.Errorf("%w: decode details response: %v", domain.ErrProviderResponse, err)
	}
	if detailsResp.Status != domain.PlacesStatusOK || detailsResp.Result == nil {
		return nil, fmt.Errorf("%w: details status %s: %s",
			domain.ErrProviderResponse, detailsResp.Status, detailsResp.ErrorMessage)
	}

	return detailsResp.Result, nil
}

// get waits for the rate limiter, executes a GET and returns the body of a 200 response
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrProviderTransport, err)
	}

	if c.debug {
		log.Printf("[PLACES] GET %s", redactKey(reqURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "BiteRank/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the request URL; keep the key out of logs.
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderTransport, redactKey(err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrProviderTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderTransport, resp.StatusCode)
	}

	return body, nil
}

// photoURL builds a fetchable image URL from the first photo reference
func (c *Client) photoURL(details *domain.PlaceDetails) string {
	if details == nil || len(details.Photos) == 0 || details.Photos[0].PhotoReference == "" {
		return ""
	}
	params := url.Values{}
	params.Add("maxwidth", fmt.Sprintf("%d", c.photoMaxWidth))
	params.Add("photoreference", details.Photos[0].PhotoReference)
	params.Add("key", c.apiKey)
	return fmt.Sprintf("%s/photo?%s", c.baseURL, params.Encode())
}

// BuildSearchQuery folds the optional search text into the text search query
func BuildSearchQuery(location, search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return fmt.Sprintf("restaurants in %s", location)
	}
	return fmt.Sprintf("%s restaurant in %s", search, location)
}

// exponentialBackoff returns the wait before retry number attempt+1
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func redactKey(s string) string {
	idx := strings.Index(s, "key=")
	if idx < 0 {
		return s
	}
	end := strings.IndexAny(s[idx:], "&\" ")
	if end < 0 {
		return s[:idx] + "key=REDACTED"
	}
	return s[:idx] + "key=REDACTED" + s[idx+end:]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
