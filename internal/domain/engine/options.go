package engine

import (
	"time"

	"github.com/okian/fairmeet/internal/domain/cache"
	"github.com/okian/fairmeet/internal/domain/fairness"
	"github.com/okian/fairmeet/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSearchRadius sets the venue search radius in meters.
func WithSearchRadius(meters float64) Option {
	return func(e *Engine) {
		if meters > 0 {
			e.radiusMeters = meters
		}
	}
}

// WithSearchTimeout bounds the wait for the venue finder.
func WithSearchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.searchTimeout = d
		}
	}
}

// WithScorer sets the fairness scorer.
func WithScorer(s *fairness.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithCache sets the result cache.
func WithCache(c cache.Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStateObserver is called on every state transition of every run.
func WithStateObserver(fn func(State)) Option {
	return func(e *Engine) {
		e.observe = fn
	}
}
