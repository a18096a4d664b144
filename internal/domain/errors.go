package domain

import "errors"

var (
	// ErrCacheMiss is returned when data is not found in cache or has expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache backend cannot be reached
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProviderNotConfigured is returned when no provider credential is set.
	// Callers route to synthetic listings; it is not a failure.
	ErrProviderNotConfigured = errors.New("places provider not configured")

	// ErrProviderTransport is returned when the provider cannot be reached,
	// times out, or answers with a non-2xx status
	ErrProviderTransport = errors.New("places provider request failed")

	// ErrProviderResponse is returned when the provider payload is malformed
	// or carries an error status
	ErrProviderResponse = errors.New("unexpected places provider response")
)
