package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCartNotFound is returned when no cart exists for the given id
	ErrCartNotFound = errors.New("cart not found")

	// ErrItemNotFound is returned when the cart has no item for a search term
	ErrItemNotFound = errors.New("cart item not found")

	// ErrUnknownPlatform is returned for platforms that are not configured
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrNoResult is returned when selecting a platform that has no product for the item
	ErrNoResult = errors.New("platform has no result for item")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrScraperFailure is returned when a platform feed request fails
	ErrScraperFailure = errors.New("platform scrape failed")

	// ErrAIFailure is returned when the text-generation service fails
	ErrAIFailure = errors.New("AI service request failed")

	// ErrAINotConfigured is returned when no API key is set for the AI service
	ErrAINotConfigured = errors.New("AI service not configured")
)
