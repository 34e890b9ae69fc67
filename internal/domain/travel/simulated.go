package travel

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/fairmeet/internal/domain/geo"
	"github.com/okian/fairmeet/internal/domain/model"
)

// Default simulation constants.
const (
	DefaultUrbanSpeedKMH = 30.0
	DefaultTrafficNoise  = 0.2
	defaultRandomSeed    = 42
)

// SimulatedOption applies a configuration option to the SimulatedEstimator.
type SimulatedOption func(*SimulatedEstimator)

// WithUrbanSpeed sets the assumed average speed in km/h.
func WithUrbanSpeed(kmh float64) SimulatedOption {
	return func(s *SimulatedEstimator) {
		if kmh > 0 {
			s.speedMPS = kmh * 1000 / 3600
		}
	}
}

// WithTrafficNoise sets the half-width of the multiplicative noise band.
// A value of 0.2 draws factors from [0.8, 1.2].
func WithTrafficNoise(noise float64) SimulatedOption {
	return func(s *SimulatedEstimator) {
		if noise >= 0 && noise < 1 {
			s.noise = noise
		}
	}
}

// WithSeed sets the random seed.
func WithSeed(seed int64) SimulatedOption {
	return func(s *SimulatedEstimator) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible simulation
	}
}

// WithLatencyRange sets the simulated lookup latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) SimulatedOption {
	return func(s *SimulatedEstimator) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// SimulatedEstimator derives travel time from great-circle distance, an
// assumed urban speed and a bounded random traffic factor.
type SimulatedEstimator struct {
	speedMPS   float64
	noise      float64
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedEstimator creates a simulated estimator with configuration options.
func NewSimulatedEstimator(opts ...SimulatedOption) *SimulatedEstimator {
	s := &SimulatedEstimator{
		speedMPS: DefaultUrbanSpeedKMH * 1000 / 3600,
		noise:    DefaultTrafficNoise,
		rng:      rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // reproducible simulation
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Estimate implements Estimator.
func (s *SimulatedEstimator) Estimate(ctx context.Context, origin, destination model.Point) (model.TravelSample, error) {
	factor, latency := s.draw()
	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return model.TravelSample{}, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	distance := geo.DistanceMeters(origin, destination)
	return model.TravelSample{
		DistanceMeters:  distance,
		DurationSeconds: distance / s.speedMPS * factor,
	}, nil
}

func (s *SimulatedEstimator) draw() (factor float64, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	factor = 1 - s.noise + 2*s.noise*s.rng.Float64()
	latency = s.minLatency
	if span := s.maxLatency - s.minLatency; span > 0 {
		latency += time.Duration(s.rng.Int63n(int64(span)))
	}
	return factor, latency
}
