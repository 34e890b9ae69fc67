// Package fairness reduces per-party travel times to a single comparable score.
//
// The score is a weighted sum of the worst commute and the population standard
// deviation of all commutes, in minutes. Lower is better. The same formula is
// used for every party count; for two parties it equals
// 0.35*(t1+t2) + 0.5*|t1-t2| with the default weights, so the gap between the
// two commutes dominates and the total breaks near-ties.
package fairness

import (
	"fmt"
	"math"

	"github.com/okian/fairmeet/internal/domain/model"
)

// Default policy constants.
const (
	DefaultMaxWeight        = 0.7
	DefaultDispersionWeight = 0.3

	defaultPerfectPct    = 5.0
	defaultUnbalancedPct = 15.0
)

// Breakdown is the result of scoring one venue.
type Breakdown struct {
	MaxCommuteSeconds float64
	DispersionSeconds float64
	Score             float64
}

// Scorer computes fairness scores. It is safe for concurrent use.
type Scorer struct {
	maxWeight        float64
	dispersionWeight float64
	perfectPct       float64
	unbalancedPct    float64
}

// NewScorer creates a scorer with the default weights.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		maxWeight:        DefaultMaxWeight,
		dispersionWeight: DefaultDispersionWeight,
		perfectPct:       defaultPerfectPct,
		unbalancedPct:    defaultUnbalancedPct,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the configured weights.
func (s *Scorer) Weights() (maxWeight, dispersionWeight float64) {
	return s.maxWeight, s.dispersionWeight
}

// Score computes the breakdown for the samples of one venue.
func (s *Scorer) Score(samples []model.TravelSample) (Breakdown, error) {
	if len(samples) == 0 {
		return Breakdown{}, ErrNoSamples
	}
	if err := validate(samples); err != nil {
		return Breakdown{}, err
	}

	var maxCommute, sum float64
	for _, t := range samples {
		maxCommute = math.Max(maxCommute, t.DurationSeconds)
		sum += t.DurationSeconds
	}
	mean := sum / float64(len(samples))

	var sq float64
	for _, t := range samples {
		d := t.DurationSeconds - mean
		sq += d * d
	}
	dispersion := math.Sqrt(sq / float64(len(samples)))

	score := (s.maxWeight*maxCommute + s.dispersionWeight*dispersion) / 60
	return Breakdown{
		MaxCommuteSeconds: maxCommute,
		DispersionSeconds: dispersion,
		Score:             score,
	}, nil
}

// Balance labels how evenly the total travel time is split. The deviation is
// the largest distance, in percent, between a party's share and an equal share.
func (s *Scorer) Balance(samples []model.TravelSample) (model.Balance, error) {
	if len(samples) == 0 {
		return "", ErrNoSamples
	}
	if err := validate(samples); err != nil {
		return "", err
	}

	var total float64
	for _, t := range samples {
		total += t.DurationSeconds
	}
	if total == 0 {
		return model.BalancePerfectlyFair, nil
	}

	equal := 1 / float64(len(samples))
	var deviation float64
	for _, t := range samples {
		deviation = math.Max(deviation, math.Abs(t.DurationSeconds/total-equal))
	}
	deviation *= 100

	switch {
	case deviation <= s.perfectPct:
		return model.BalancePerfectlyFair, nil
	case deviation > s.unbalancedPct:
		return model.BalanceUnbalanced, nil
	default:
		return model.BalanceFairEnough, nil
	}
}

func validate(samples []model.TravelSample) error {
	for _, t := range samples {
		if math.IsNaN(t.DurationSeconds) || math.IsInf(t.DurationSeconds, 0) || t.DurationSeconds < 0 {
			return fmt.Errorf("%w: party %s duration %v", ErrInvalidSample, t.PartyID, t.DurationSeconds)
		}
	}
	return nil
}
