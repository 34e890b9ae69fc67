package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fairmeet/internal/domain/engine"
	"github.com/okian/fairmeet/internal/domain/geo"
	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/internal/domain/quota"
	"github.com/okian/fairmeet/pkg/logger"
	"github.com/okian/fairmeet/pkg/metrics"
)

// MaxParties caps the parties accepted in one request.
const MaxParties = 20

// StatusUnavailable is reported when the service has not been started.
const StatusUnavailable engine.State = "unavailable"

// RecommendRequest asks for venues that are fair for the given parties.
type RecommendRequest struct {
	Parties  []model.Party  `json:"parties"`
	Category model.Category `json:"category"`
}

// Validate checks party ids and positions.
func (r RecommendRequest) Validate() error {
	if len(r.Parties) == 0 {
		return fmt.Errorf("%w: at least one party is required", ErrInvalidRequest)
	}
	if len(r.Parties) > MaxParties {
		return fmt.Errorf("%w: at most %d parties are allowed", ErrInvalidRequest, MaxParties)
	}
	seen := make(map[string]struct{}, len(r.Parties))
	for i, p := range r.Parties {
		if p.ID == "" {
			return fmt.Errorf("%w: party %d has no id", ErrInvalidRequest, i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate party id %q", ErrInvalidRequest, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Position != nil {
			if err := p.Position.Validate(); err != nil {
				return fmt.Errorf("%w: party %q: %w", ErrInvalidRequest, p.ID, err)
			}
		}
	}
	return nil
}

// Recommendation is the ranked answer to a RecommendRequest.
type Recommendation struct {
	RequestID string              `json:"request_id"`
	Status    engine.State        `json:"status"`
	Category  model.Category      `json:"category"`
	Center    *model.Point        `json:"center,omitempty"`
	Venues    []model.ScoredVenue `json:"venues"`
	CacheHit  bool                `json:"cache_hit"`
	Degraded  bool                `json:"degraded"`
	Message   string              `json:"message,omitempty"`
	ElapsedMS int64               `json:"elapsed_ms"`
}

// Recommend ranks venues for the request. It never fails: an expired
// project, an exhausted quota, the run timeout or any other failure is
// reported as a single degraded venue at the midpoint of the first two
// positioned parties.
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) Recommendation {
	start := time.Now()
	rec := Recommendation{
		RequestID: uuid.NewString(),
		Category:  req.Category.Normalize(),
		Venues:    []model.ScoredVenue{},
	}
	if rec.Category == "" {
		rec.Category = model.CategoryDining
	}
	s.recommendations.Add(1)

	if !s.isStarted() {
		rec.Status = StatusUnavailable
		rec.Message = "service is not running"
		return rec
	}

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	res, err := s.engine.Run(runCtx, req.Parties, rec.Category)
	rec.ElapsedMS = time.Since(start).Milliseconds()
	if err != nil {
		return s.degrade(ctx, rec, req.Parties, err)
	}

	rec.Status = res.State
	rec.CacheHit = res.CacheHit
	if res.State != engine.StateSkipped {
		center := res.Center
		rec.Center = &center
	}
	if len(res.Venues) > 0 {
		rec.Venues = res.Venues
	}
	s.logger.Debug(ctx, "recommendation served",
		logger.String("request_id", rec.RequestID),
		logger.String("status", string(rec.Status)),
		logger.Int("venues", len(rec.Venues)),
		logger.Bool("cache_hit", rec.CacheHit),
	)
	return rec
}

func (s *Service) degrade(ctx context.Context, rec Recommendation, parties []model.Party, cause error) Recommendation {
	eligible := make([]model.Party, 0, len(parties))
	for _, p := range model.Eligible(parties) {
		if p.Position.Validate() == nil {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) < 2 {
		rec.Status = engine.StateSkipped
		rec.Message = cause.Error()
		return rec
	}
	mid := geo.Midpoint(*eligible[0].Position, *eligible[1].Position)
	rec.Center = &mid
	rec.Degraded = true
	rec.Message = cause.Error()

	var v model.ScoredVenue
	switch {
	case errors.Is(cause, quota.ErrExpired):
		rec.Status = engine.StateExpired
		v = sentinel(model.PlaceIDExpired, "Trial Period Expired", s.expiredNotice(), mid, 0, 0)
	case errors.Is(cause, quota.ErrQuotaExceeded):
		rec.Status = engine.StateQuotaExceeded
		v = sentinel(model.PlaceIDQuotaLimit, "Daily Limit Reached",
			fmt.Sprintf("You have used your %d free searches for today.", s.guard.DailyLimit()), mid, 0, 0)
	default:
		rec.Status = engine.StateTimedOut
		v = sentinel(model.PlaceIDTimeoutFallback, "Geographic Midpoint (Timeout)",
			"Search timed out, showing exact middle.", mid, 5.0, 1)
	}
	v.Category = rec.Category.PlaceType()
	rec.Venues = []model.ScoredVenue{v}

	s.degraded.Add(1)
	metrics.RecordDegradedResult(v.PlaceID)
	s.logger.Warn(ctx, "serving degraded recommendation",
		logger.String("request_id", rec.RequestID),
		logger.String("place_id", v.PlaceID),
		logger.Error(cause),
	)
	return rec
}

// expiredNotice names the configured expiry date. Expiry only triggers when
// one is set.
func (s *Service) expiredNotice() string {
	return fmt.Sprintf("The trial for this app ended on %s. No more searches allowed.",
		s.guard.ExpiresAt().Format("2006-01-02"))
}

func sentinel(placeID, name, vicinity string, at model.Point, rating float64, ratings int) model.ScoredVenue {
	return model.ScoredVenue{
		Venue: model.Venue{
			PlaceID:          placeID,
			Name:             name,
			Vicinity:         vicinity,
			Location:         at,
			Rating:           rating,
			UserRatingsTotal: ratings,
			Types:            []string{"point_of_interest"},
		},
		TravelTimes: []model.TravelSample{},
		Degraded:    true,
	}
}
