// Package travel defines the travel-time estimation contract and the
// implementations that do not need a live routing service.
package travel

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/fairmeet/internal/domain/model"
)

// ErrEstimate is returned when an estimate cannot be produced.
var ErrEstimate = errors.New("travel estimate failed")

// Estimator returns the expected trip from origin to destination.
// Implementations must return finite, non-negative values.
type Estimator interface {
	Estimate(ctx context.Context, origin, destination model.Point) (model.TravelSample, error)
}

// EstimatorFunc adapts a function to the Estimator interface.
type EstimatorFunc func(ctx context.Context, origin, destination model.Point) (model.TravelSample, error)

// Estimate calls f.
func (f EstimatorFunc) Estimate(ctx context.Context, origin, destination model.Point) (model.TravelSample, error) {
	return f(ctx, origin, destination)
}

// CheckSample reports whether s is usable by the scorer.
func CheckSample(s model.TravelSample) error {
	for _, v := range []float64{s.DistanceMeters, s.DurationSeconds} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: non-finite or negative value %v", ErrEstimate, v)
		}
	}
	return nil
}

type fallback struct {
	primary   Estimator
	secondary Estimator
	onFailure func(ctx context.Context, err error)
}

// FallbackOption configures a fallback estimator.
type FallbackOption func(*fallback)

// WithFailureHook is called every time the primary estimator fails.
func WithFailureHook(fn func(ctx context.Context, err error)) FallbackOption {
	return func(f *fallback) {
		f.onFailure = fn
	}
}

// Fallback returns an estimator that asks primary first and secondary when
// primary fails or returns an unusable sample.
func Fallback(primary, secondary Estimator, opts ...FallbackOption) Estimator {
	f := &fallback{primary: primary, secondary: secondary}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *fallback) Estimate(ctx context.Context, origin, destination model.Point) (model.TravelSample, error) {
	s, err := f.primary.Estimate(ctx, origin, destination)
	if err == nil {
		err = CheckSample(s)
	}
	if err == nil {
		return s, nil
	}
	if ctx.Err() != nil {
		return model.TravelSample{}, fmt.Errorf("estimate cancelled: %w", ctx.Err())
	}
	if f.onFailure != nil {
		f.onFailure(ctx, err)
	}
	return f.secondary.Estimate(ctx, origin, destination)
}
