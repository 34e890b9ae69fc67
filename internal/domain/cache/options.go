package cache

import "time"

// Option applies a configuration option to the in-memory cache.
type Option func(*inMemoryCache)

// WithMaxEntries sets the maximum number of fingerprints to keep.
// If maxEntries > 0: bounded mode with least-recently-used eviction.
// If maxEntries <= 0: unbounded mode.
func WithMaxEntries(maxEntries int) Option {
	return func(c *inMemoryCache) {
		c.maxEntries = maxEntries
	}
}

// WithTTL expires entries that were written longer than ttl ago. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *inMemoryCache) {
		if ttl >= 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(c *inMemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}
