package providers

import (
	"context"
)

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// DeletePattern removes every key matching a glob pattern such as "suggest:*"
	DeletePattern(ctx context.Context, pattern string) error
}

// Cache key prefixes shared by the services and the HTTP cache
const (
	SuggestCachePrefix = "suggest:"
	HTTPCachePrefix    = "http:cache:"
)

// SearchCachePatterns match every cached suggestion lookup and search response
var SearchCachePatterns = []string{
	SuggestCachePrefix + "*",
	HTTPCachePrefix + "*search*",
}
