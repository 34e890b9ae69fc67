// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	jobqueue "github.com/okian/fairmeet/internal/adapters/mq/queue"
	workerpool "github.com/okian/fairmeet/internal/adapters/mq/worker"
	"github.com/okian/fairmeet/internal/domain/cache"
	"github.com/okian/fairmeet/internal/domain/engine"
	"github.com/okian/fairmeet/internal/domain/fairness"
	"github.com/okian/fairmeet/internal/domain/quota"
	"github.com/okian/fairmeet/internal/domain/session"
	"github.com/okian/fairmeet/internal/domain/travel"
	"github.com/okian/fairmeet/internal/domain/venue"
	"github.com/okian/fairmeet/pkg/logger"
	"github.com/okian/fairmeet/pkg/metrics"
)

// Default service configuration constants.
const (
	DefaultRunTimeout  = 15 * time.Second
	defaultQueueSize   = 10_000
	workerMultiplier   = 4
	stopTimeout        = 10 * time.Second
	defaultSessionSize = 64
)

// Service implements the API dependencies for meetup recommendations.
type Service struct {
	mu sync.RWMutex

	// Core components
	finder    venue.Finder
	estimator travel.Estimator
	guard     *quota.Guard
	cache     cache.Cache
	scorer    *fairness.Scorer
	queue     *jobqueue.InMemoryQueue
	pool      *workerpool.Pool
	engine    *engine.Engine
	closers   []io.Closer

	// Configuration
	workerCount   int
	queueSize     int
	searchRadius  float64
	searchTimeout time.Duration
	runTimeout    time.Duration

	// Sessions
	sessMu   sync.RWMutex
	sessions map[string]*session.Session

	// Counters
	recommendations atomic.Int64
	degraded        atomic.Int64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a Service. Without options it searches and estimates with
// the simulated providers and keeps the quota counter in memory.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * workerMultiplier,
		queueSize:     defaultQueueSize,
		searchRadius:  engine.DefaultSearchRadiusMeters,
		searchTimeout: engine.DefaultSearchTimeout,
		runTimeout:    DefaultRunTimeout,
		sessions:      make(map[string]*session.Session, defaultSessionSize),
		logger:        logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.finder == nil {
		s.finder = venue.NewSimulatedFinder()
	}
	if s.estimator == nil {
		s.estimator = travel.NewSimulatedEstimator()
	}
	if s.guard == nil {
		s.guard = quota.NewGuard()
	}
	if s.cache == nil {
		s.cache = cache.NewInMemoryCache()
	}
	if s.scorer == nil {
		s.scorer = fairness.NewScorer()
	}

	s.queue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)
	s.engine = engine.New(
		s.finder,
		workerpool.NewDispatcher(s.queue),
		s.guard,
		engine.WithScorer(s.scorer),
		engine.WithCache(s.cache),
		engine.WithSearchRadius(s.searchRadius),
		engine.WithSearchTimeout(s.searchTimeout),
	)
	return s
}

// Start launches the travel estimate workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting meetup service...")

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.estimator)
	s.pool.Start(ctx)
	metrics.UpdateQueueCapacity(s.queueSize)
	metrics.UpdateQuotaUsage(0, s.guard.DailyLimit())

	s.started = true
	s.logger.Info(ctx, "meetup service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Float64("searchRadiusM", s.searchRadius),
		logger.Duration("searchTimeout", s.searchTimeout),
		logger.Duration("runTimeout", s.runTimeout),
	)
	return nil
}

// Stop drains the worker pool and releases owned resources. A stopped
// service cannot be restarted because its queue is closed.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping meetup service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
		}
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Error(ctx, "failed to close resource", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "meetup service stopped")
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// QuotaStatus reports the daily search budget.
func (s *Service) QuotaStatus(ctx context.Context) (quota.Status, error) {
	st, err := s.guard.Status(ctx)
	if err != nil {
		return quota.Status{}, err
	}
	metrics.UpdateQuotaUsage(st.CallCount, st.DailyLimit)
	return st, nil
}

// QuotaHistory reports up to days of persisted usage, newest first.
func (s *Service) QuotaHistory(ctx context.Context, days int) ([]quota.State, error) {
	return s.guard.History(ctx, days)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"recommendations": s.recommendations.Load(),
		"degraded":        s.degraded.Load(),
		"cacheEntries":    s.cache.Len(),
		"activeSessions":  s.SessionCount(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	if st, err := s.guard.Status(ctx); err == nil {
		stats["quotaUsed"] = st.CallCount
		stats["quotaRemaining"] = st.Remaining
	}

	return stats
}
