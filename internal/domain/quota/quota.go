// Package quota guards the external venue search with a daily call budget
// and a hard expiry date.
//
// Callers reserve a slot before searching and either commit it once the search
// has completed or release it when the search timed out or failed. Reserved
// but unsettled slots count against the budget so concurrent requests cannot
// overshoot the limit.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/fairmeet/pkg/logger"
	"github.com/okian/fairmeet/pkg/metrics"
)

// DefaultDailyLimit is the number of searches allowed per day.
const DefaultDailyLimit = 100

const dateKeyLayout = "2006-01-02"

// Status is a snapshot of the guard for reporting.
type Status struct {
	DateKey    string     `json:"date_key"`
	CallCount  int        `json:"call_count"`
	DailyLimit int        `json:"daily_limit"`
	Remaining  int        `json:"remaining"`
	InFlight   int        `json:"in_flight"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Expired    bool       `json:"expired"`
}

// Guard enforces the daily budget and the expiry date. It is safe for concurrent use.
type Guard struct {
	mu        sync.Mutex
	store     Store
	limit     int
	expiresAt time.Time
	loc       *time.Location
	now       func() time.Time
	logger    logger.Logger

	state   State
	loaded  bool
	pending int
	expired bool
}

// NewGuard creates a guard with configuration options.
func NewGuard(opts ...Option) *Guard {
	g := &Guard{
		store:  NewMemoryStore(),
		limit:  DefaultDailyLimit,
		loc:    time.Local,
		now:    time.Now,
		logger: logger.Get().Named("quota"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Reservation is a held search slot.
type Reservation struct {
	guard *Guard
	once  sync.Once
}

// CheckExpiry fails with ErrExpired once the expiry instant has passed.
// Expiry is sticky: later calls fail even if the clock moves backwards.
func (g *Guard) CheckExpiry() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkExpiryLocked()
}

func (g *Guard) checkExpiryLocked() error {
	if g.expired {
		return ErrExpired
	}
	if !g.expiresAt.IsZero() && !g.now().Before(g.expiresAt) {
		g.expired = true
		return ErrExpired
	}
	return nil
}

// CheckAndReserve admits one search or fails with ErrExpired or ErrQuotaExceeded.
// A refused call does not change the stored counter.
func (g *Guard) CheckAndReserve(ctx context.Context) (*Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkExpiryLocked(); err != nil {
		metrics.RecordQuotaRejection("expired")
		return nil, err
	}
	if err := g.rolloverLocked(ctx); err != nil {
		return nil, err
	}
	if g.state.CallCount+g.pending >= g.limit {
		metrics.RecordQuotaRejection("quota_exceeded")
		g.logger.Warn(ctx, "daily quota exhausted",
			logger.Int("call_count", g.state.CallCount),
			logger.Int("in_flight", g.pending),
			logger.Int("limit", g.limit),
		)
		return nil, ErrQuotaExceeded
	}

	g.pending++
	return &Reservation{guard: g}, nil
}

// Commit records one completed external search and persists the counter.
// Committing or releasing more than once has no further effect.
func (r *Reservation) Commit(ctx context.Context) error {
	var err error
	r.once.Do(func() {
		err = r.guard.recordUsage(ctx)
	})
	return err
}

// Release returns an unused slot.
func (r *Reservation) Release() {
	r.once.Do(func() {
		g := r.guard
		g.mu.Lock()
		g.pending--
		g.mu.Unlock()
	})
}

func (g *Guard) recordUsage(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pending--
	if err := g.rolloverLocked(ctx); err != nil {
		return err
	}
	next := State{DateKey: g.state.DateKey, CallCount: g.state.CallCount + 1}
	if err := g.store.Save(ctx, next); err != nil {
		g.logger.Error(ctx, "failed to persist quota usage", logger.Error(err))
		return fmt.Errorf("%w: save: %w", ErrStore, err)
	}
	g.state = next
	metrics.UpdateQuotaUsage(g.state.CallCount, g.limit)
	return nil
}

// rolloverLocked loads the persisted state on first use and resets the
// counter when the calendar day changed.
func (g *Guard) rolloverLocked(ctx context.Context) error {
	if !g.loaded {
		s, err := g.store.Load(ctx)
		if err != nil {
			return fmt.Errorf("%w: load: %w", ErrStore, err)
		}
		g.state = s
		g.loaded = true
	}

	today := g.now().In(g.loc).Format(dateKeyLayout)
	if g.state.DateKey == today {
		return nil
	}
	next := State{DateKey: today}
	if err := g.store.Save(ctx, next); err != nil {
		return fmt.Errorf("%w: save: %w", ErrStore, err)
	}
	if g.state.DateKey != "" {
		g.logger.Info(ctx, "quota day rolled over",
			logger.String("previous", g.state.DateKey),
			logger.String("current", today),
		)
	}
	g.state = next
	metrics.UpdateQuotaUsage(0, g.limit)
	return nil
}

// Status reports the current counter, applying expiry and day rollover first.
func (g *Guard) Status(ctx context.Context) (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	expired := g.checkExpiryLocked() != nil
	if err := g.rolloverLocked(ctx); err != nil {
		return Status{}, err
	}
	st := Status{
		DateKey:    g.state.DateKey,
		CallCount:  g.state.CallCount,
		DailyLimit: g.limit,
		Remaining:  max(0, g.limit-g.state.CallCount-g.pending),
		InFlight:   g.pending,
		Expired:    expired,
	}
	if !g.expiresAt.IsZero() {
		at := g.expiresAt
		st.ExpiresAt = &at
	}
	return st, nil
}

// ExpiresAt returns the configured expiry instant, zero when disabled.
func (g *Guard) ExpiresAt() time.Time {
	return g.expiresAt
}

// DailyLimit returns the configured number of searches per day.
func (g *Guard) DailyLimit() int {
	return g.limit
}

// History returns up to limit days of usage, newest first. Stores that keep
// only the current day report nothing.
func (g *Guard) History(ctx context.Context, limit int) ([]State, error) {
	hs, ok := g.store.(HistoryStore)
	if !ok {
		return nil, nil
	}
	days, err := hs.History(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: history: %w", ErrStore, err)
	}
	return days, nil
}
