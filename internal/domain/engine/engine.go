// Package engine orchestrates a fairness run: validation, quota gating,
// candidate search, travel estimation fan-out, scoring and ranking.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/okian/fairmeet/internal/domain/cache"
	"github.com/okian/fairmeet/internal/domain/fairness"
	"github.com/okian/fairmeet/internal/domain/geo"
	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/internal/domain/quota"
	"github.com/okian/fairmeet/internal/domain/travel"
	"github.com/okian/fairmeet/internal/domain/venue"
	"github.com/okian/fairmeet/pkg/logger"
	"github.com/okian/fairmeet/pkg/metrics"
	"github.com/okian/fairmeet/pkg/tracing"
)

// Default engine configuration constants.
const (
	DefaultSearchRadiusMeters = 4000
	DefaultSearchTimeout      = 5 * time.Second
	minEligibleParties        = 2
)

// Gate admits external searches.
type Gate interface {
	CheckExpiry() error
	CheckAndReserve(ctx context.Context) (*quota.Reservation, error)
}

// Result is the outcome of one run.
type Result struct {
	State    State
	Venues   []model.ScoredVenue
	Center   model.Point
	CacheHit bool
}

// Engine composes the finder, estimator, scorer, gate and cache.
// It is safe for concurrent use.
type Engine struct {
	finder        venue.Finder
	estimator     travel.Estimator
	gate          Gate
	scorer        *fairness.Scorer
	cache         cache.Cache
	radiusMeters  float64
	searchTimeout time.Duration
	observe       func(State)
	logger        logger.Logger
}

// New creates an engine with configuration options.
func New(finder venue.Finder, estimator travel.Estimator, gate Gate, opts ...Option) *Engine {
	e := &Engine{
		finder:        finder,
		estimator:     estimator,
		gate:          gate,
		scorer:        fairness.NewScorer(),
		cache:         cache.NewInMemoryCache(),
		radiusMeters:  DefaultSearchRadiusMeters,
		searchTimeout: DefaultSearchTimeout,
		logger:        logger.Get().Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run ranks candidate venues for the positioned parties.
//
// Fewer than two positioned parties is a no-op that returns StateSkipped.
// ErrExpired and ErrQuotaExceeded from the gate are returned as errors, as is
// the cancellation of ctx. A search timeout, an empty search and a provider
// failure all end with an empty list and a nil error.
func (e *Engine) Run(ctx context.Context, parties []model.Party, category model.Category) (res Result, err error) {
	start := time.Now()
	ctx, span := tracing.Tracer().Start(ctx, "engine.Run")
	defer func() {
		metrics.RecordEngineRun(string(res.State))
		metrics.RecordEngineLatency(float64(time.Since(start).Milliseconds()))
		span.SetAttributes(attribute.String("engine.state", string(res.State)), attribute.Bool("engine.cache_hit", res.CacheHit))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	e.transition(StateIdle)
	e.transition(StateValidating)
	eligible := eligibleParties(parties)
	metrics.RecordParties(len(eligible))
	if len(eligible) < minEligibleParties {
		e.logger.Debug(ctx, "not enough positioned parties, skipping", logger.Int("eligible", len(eligible)))
		return e.finish(Result{State: StateSkipped}), nil
	}

	points := make([]model.Point, len(eligible))
	for i, p := range eligible {
		points[i] = *p.Position
	}
	center, err := geo.Centroid(points)
	if err != nil {
		return e.finish(Result{State: StateSkipped}), nil
	}
	span.SetAttributes(attribute.Int("engine.parties", len(eligible)), attribute.String("engine.category", category.PlaceType()))

	e.transition(StateGating)
	if err := e.gate.CheckExpiry(); err != nil {
		return e.finish(Result{State: StateExpired, Center: center}), err
	}

	fingerprint := cache.Fingerprint(points, category)
	if cached, ok := e.cache.Get(ctx, fingerprint); ok {
		if venues, ok := fromCacheEntry(cached, eligible); ok {
			e.logger.Debug(ctx, "serving cached ranking", logger.String("fingerprint", fingerprint))
			return e.finish(Result{State: StateRanked, Venues: venues, Center: center, CacheHit: true}), nil
		}
	}

	reservation, err := e.gate.CheckAndReserve(ctx)
	switch {
	case errors.Is(err, quota.ErrExpired):
		return e.finish(Result{State: StateExpired, Center: center}), err
	case errors.Is(err, quota.ErrQuotaExceeded):
		return e.finish(Result{State: StateQuotaExceeded, Center: center}), err
	case err != nil:
		metrics.RecordErrorByComponent("engine", "quota_store")
		return e.finish(Result{State: StateNoCandidates, Center: center, Venues: []model.ScoredVenue{}}), fmt.Errorf("quota gate: %w", err)
	}

	e.transition(StateResolvingCandidates)
	candidates, state, err := e.search(ctx, reservation, center, category)
	if err != nil {
		return e.finish(Result{State: StateTimedOut, Center: center}), err
	}
	if state != StateScoring {
		return e.finish(Result{State: state, Center: center, Venues: []model.ScoredVenue{}}), nil
	}

	e.transition(StateScoring)
	ranked, err := e.score(ctx, candidates, eligible)
	if err != nil {
		return e.finish(Result{State: StateTimedOut, Center: center}), err
	}
	if len(ranked) == 0 {
		return e.finish(Result{State: StateNoCandidates, Center: center, Venues: ranked}), nil
	}

	e.cache.Put(ctx, fingerprint, toCacheEntry(ranked, eligible))
	metrics.RecordTopFairnessScore(ranked[0].FairnessScore)
	e.logger.Debug(ctx, "ranked venues",
		logger.Int("venues", len(ranked)),
		logger.String("best", ranked[0].PlaceID),
		logger.Float64("best_score", ranked[0].FairnessScore),
	)
	return e.finish(Result{State: StateRanked, Venues: ranked, Center: center}), nil
}

type searchResult struct {
	venues []model.Venue
	err    error
}

// search asks the finder for candidates, bounded by the search timeout.
// It settles the reservation and returns StateScoring when candidates exist.
func (e *Engine) search(ctx context.Context, reservation *quota.Reservation, center model.Point, category model.Category) ([]model.Venue, State, error) {
	start := time.Now()
	searchCtx, cancel := context.WithTimeout(ctx, e.searchTimeout)
	defer cancel()
	searchCtx, span := tracing.Tracer().Start(searchCtx, "venue.Search")
	defer span.End()

	done := make(chan searchResult, 1)
	go func() {
		venues, err := e.finder.Search(searchCtx, center, e.radiusMeters, category.PlaceType())
		done <- searchResult{venues: venues, err: err}
	}()

	var res searchResult
	select {
	case res = <-done:
	case <-searchCtx.Done():
		res.err = searchCtx.Err()
	}

	// a finder that gave up because of the deadline counts as a timeout
	if res.err != nil && searchCtx.Err() != nil {
		reservation.Release()
		if ctx.Err() != nil {
			metrics.RecordVenueSearch("cancelled", msSince(start))
			return nil, StateTimedOut, fmt.Errorf("venue search: %w", ctx.Err())
		}
		metrics.RecordVenueSearch("timeout", msSince(start))
		metrics.RecordErrorByComponent("engine", "search_timeout")
		e.logger.Warn(ctx, "venue search timed out", logger.Duration("timeout", e.searchTimeout))
		return nil, StateTimedOut, nil
	}

	switch {
	case res.err == nil, errors.Is(res.err, venue.ErrNotFound):
		if err := reservation.Commit(ctx); err != nil {
			e.logger.Error(ctx, "failed to record quota usage", logger.Error(err))
		}
	default:
		reservation.Release()
		metrics.RecordVenueSearch("error", msSince(start))
		metrics.RecordErrorByComponent("engine", "search_error")
		span.RecordError(res.err)
		e.logger.Warn(ctx, "venue search failed", logger.Error(res.err))
		return nil, StateNoCandidates, nil
	}

	metrics.RecordCandidates(len(res.venues))
	if len(res.venues) == 0 {
		metrics.RecordVenueSearch("empty", msSince(start))
		return nil, StateNoCandidates, nil
	}
	metrics.RecordVenueSearch("ok", msSince(start))
	return res.venues, StateScoring, nil
}

// score estimates every (venue, party) pair concurrently, then scores the
// venues whose samples are all present, in input order, and sorts stably.
func (e *Engine) score(ctx context.Context, candidates []model.Venue, parties []model.Party) ([]model.ScoredVenue, error) {
	samples := make([][]model.TravelSample, len(candidates))
	errs := make([][]error, len(candidates))
	var wg sync.WaitGroup
	for i := range candidates {
		samples[i] = make([]model.TravelSample, len(parties))
		errs[i] = make([]error, len(parties))
		for j := range parties {
			wg.Add(1)
			go func(i, j int) {
				defer wg.Done()
				s, err := e.estimate(ctx, *parties[j].Position, candidates[i].Location)
				s.PartyID = parties[j].ID
				samples[i][j] = s
				errs[i][j] = err
			}(i, j)
		}
	}
	wg.Wait()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("travel estimates: %w", ctx.Err())
	}

	ranked := make([]model.ScoredVenue, 0, len(candidates))
	for i, v := range candidates {
		if err := errors.Join(errs[i]...); err != nil {
			metrics.RecordVenueDropped()
			e.logger.Debug(ctx, "dropping venue with failed estimate", logger.String("place_id", v.PlaceID), logger.Error(err))
			continue
		}
		breakdown, err := e.scorer.Score(samples[i])
		if err != nil {
			metrics.RecordVenueDropped()
			continue
		}
		balance, _ := e.scorer.Balance(samples[i])
		ranked = append(ranked, model.ScoredVenue{
			Venue:             v,
			TravelTimes:       samples[i],
			MaxCommuteSeconds: breakdown.MaxCommuteSeconds,
			DispersionSeconds: breakdown.DispersionSeconds,
			FairnessScore:     breakdown.Score,
			Balance:           balance,
		})
		metrics.RecordVenueScored()
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].FairnessScore < ranked[b].FairnessScore
	})
	return ranked, nil
}

func (e *Engine) estimate(ctx context.Context, origin, destination model.Point) (model.TravelSample, error) {
	ctx, span := tracing.Tracer().Start(ctx, "travel.Estimate")
	defer span.End()

	start := time.Now()
	s, err := e.estimator.Estimate(ctx, origin, destination)
	metrics.RecordTravelEstimateLatency(msSince(start))
	if err == nil {
		err = travel.CheckSample(s)
	}
	if err != nil {
		span.RecordError(err)
		return model.TravelSample{}, err
	}
	return s, nil
}

// toCacheEntry copies ranked with every sample tagged by its party's
// position instead of its party id, so the entry can serve any request whose
// parties stand at the same places.
func toCacheEntry(ranked []model.ScoredVenue, parties []model.Party) []model.ScoredVenue {
	out := model.CloneAll(ranked)
	for i := range out {
		for j := range out[i].TravelTimes {
			out[i].TravelTimes[j].PartyID = cache.PointKey(*parties[j].Position)
		}
	}
	return out
}

// fromCacheEntry rebuilds per-party samples in the order of parties, with
// their ids. Parties sharing a position get copies of the same sample.
func fromCacheEntry(cached []model.ScoredVenue, parties []model.Party) ([]model.ScoredVenue, bool) {
	for i := range cached {
		byPosition := make(map[string]model.TravelSample, len(cached[i].TravelTimes))
		for _, s := range cached[i].TravelTimes {
			byPosition[s.PartyID] = s
		}
		samples := make([]model.TravelSample, len(parties))
		for j, p := range parties {
			s, ok := byPosition[cache.PointKey(*p.Position)]
			if !ok {
				return nil, false
			}
			s.PartyID = p.ID
			samples[j] = s
		}
		cached[i].TravelTimes = samples
	}
	return cached, true
}

func (e *Engine) transition(s State) {
	if e.observe != nil {
		e.observe(s)
	}
}

func (e *Engine) finish(r Result) Result {
	e.transition(r.State)
	return r
}

// eligibleParties keeps positioned parties with valid coordinates.
func eligibleParties(parties []model.Party) []model.Party {
	out := model.Eligible(parties)
	valid := out[:0]
	for _, p := range out {
		if p.Position.Validate() == nil {
			valid = append(valid, p)
		}
	}
	return valid
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Milliseconds())
}
