package quota

import (
	"time"

	"github.com/okian/fairmeet/pkg/logger"
)

// Option applies a configuration option to the Guard.
type Option func(*Guard)

// WithDailyLimit sets the number of searches allowed per calendar day.
func WithDailyLimit(limit int) Option {
	return func(g *Guard) {
		if limit > 0 {
			g.limit = limit
		}
	}
}

// WithExpiry sets the instant after which every call fails with ErrExpired.
// The zero time disables expiry.
func WithExpiry(at time.Time) Option {
	return func(g *Guard) {
		g.expiresAt = at
	}
}

// WithLocation sets the time zone that defines the calendar day.
func WithLocation(loc *time.Location) Option {
	return func(g *Guard) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// WithStore sets the persistence backend.
func WithStore(s Store) Option {
	return func(g *Guard) {
		if s != nil {
			g.store = s
		}
	}
}

// WithLogger sets a custom logger for the guard.
func WithLogger(l logger.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}
