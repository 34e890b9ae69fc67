// Package venue defines the candidate venue search contract and a simulated
// finder that produces plausible venues without an external provider.
package venue

import (
	"context"
	"errors"

	"github.com/okian/fairmeet/internal/domain/model"
)

// ErrNotFound means the search completed and nothing matched.
var ErrNotFound = errors.New("no venues found")

// Finder searches for venues of a place type around a center point.
// A completed search with no matches returns an empty list or ErrNotFound.
type Finder interface {
	Search(ctx context.Context, center model.Point, radiusMeters float64, placeType string) ([]model.Venue, error)
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(ctx context.Context, center model.Point, radiusMeters float64, placeType string) ([]model.Venue, error)

// Search calls f.
func (f FinderFunc) Search(ctx context.Context, center model.Point, radiusMeters float64, placeType string) ([]model.Venue, error) {
	return f(ctx, center, radiusMeters, placeType)
}
