package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fallback reasons recorded by the recommendations facade.
const (
	FallbackNotConfigured = "not_configured"
	FallbackProviderError = "provider_error"
)

var (
	requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of incoming HTTP requests.",
	}, []string{"method", "path", "status"})

	latencyHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency distributions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "biterank_recommendation_cache_total",
		Help: "Recommendation cache lookups by result.",
	}, []string{"result"})

	fallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "biterank_recommendation_fallback_total",
		Help: "Recommendation requests served from synthetic listings.",
	}, []string{"reason"})

	placesRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "biterank_places_requests_total",
		Help: "Outbound requests to the places provider.",
	}, []string{"endpoint", "outcome"})
)

func init() {
	prometheus.MustRegister(requestCounter, latencyHistogram, cacheLookups, fallbacks, placesRequests)
}

// ObserveHTTPRequest records one served HTTP request
func ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	requestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	latencyHistogram.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveCacheLookup records a recommendation cache hit or miss
func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

// ObserveFallback records a request answered with synthetic listings
func ObserveFallback(reason string) {
	fallbacks.WithLabelValues(reason).Inc()
}

// ObservePlacesRequest records an outbound provider call. Outcome is "ok" or "error".
func ObservePlacesRequest(endpoint string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	placesRequests.WithLabelValues(endpoint, outcome).Inc()
}
