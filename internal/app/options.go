package service

import (
	"io"
	"time"

	"github.com/okian/fairmeet/internal/domain/cache"
	"github.com/okian/fairmeet/internal/domain/fairness"
	"github.com/okian/fairmeet/internal/domain/quota"
	"github.com/okian/fairmeet/internal/domain/travel"
	"github.com/okian/fairmeet/internal/domain/venue"
	"github.com/okian/fairmeet/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of travel estimate workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending travel estimates.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFinder sets the venue finder.
func WithFinder(f venue.Finder) Option {
	return func(s *Service) {
		if f != nil {
			s.finder = f
		}
	}
}

// WithEstimator sets the travel estimator run by the worker pool.
func WithEstimator(e travel.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.estimator = e
		}
	}
}

// WithGuard sets the quota guard.
func WithGuard(g *quota.Guard) Option {
	return func(s *Service) {
		if g != nil {
			s.guard = g
		}
	}
}

// WithCache sets the ranked result cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithScorer sets the fairness scorer.
func WithScorer(sc *fairness.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithSearchRadius sets the venue search radius in meters.
func WithSearchRadius(meters float64) Option {
	return func(s *Service) {
		if meters > 0 {
			s.searchRadius = meters
		}
	}
}

// WithSearchTimeout bounds one venue search.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.searchTimeout = d
		}
	}
}

// WithRunTimeout bounds a whole recommendation before the midpoint fallback is served.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// WithClosers registers resources released by Stop, such as a quota database.
func WithClosers(closers ...io.Closer) Option {
	return func(s *Service) {
		s.closers = append(s.closers, closers...)
	}
}
