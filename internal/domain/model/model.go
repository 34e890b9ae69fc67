// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// ErrInvalidPoint is returned when a coordinate is out of range or not finite.
var ErrInvalidPoint = errors.New("invalid point")

// Sentinel place ids used for degraded single-entry results.
const (
	PlaceIDExpired         = "project-expired"
	PlaceIDQuotaLimit      = "quota-limit"
	PlaceIDTimeoutFallback = "timeout-fallback"
)

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate reports whether p lies within [-90,90] x [-180,180].
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return fmt.Errorf("%w: coordinates must be finite", ErrInvalidPoint)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: lat %v out of range", ErrInvalidPoint, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: lng %v out of range", ErrInvalidPoint, p.Lng)
	}
	return nil
}

// Party is one person whose position contributes to the search.
// A nil Position means the party has not picked a location yet.
type Party struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	Position *Point `json:"position,omitempty"`
}

// Positioned reports whether the party takes part in computation.
func (p Party) Positioned() bool { return p.Position != nil }

// Eligible returns the parties that have a position, preserving order.
func Eligible(parties []Party) []Party {
	out := make([]Party, 0, len(parties))
	for _, p := range parties {
		if p.Positioned() {
			out = append(out, p)
		}
	}
	return out
}

// Category names a kind of venue. Known values map onto provider place types.
type Category string

// Enumerated categories.
const (
	CategoryDining Category = "dining"
	CategoryCoffee Category = "coffee"
	CategoryDrinks Category = "drinks"
	CategoryMovies Category = "movies"
	CategoryParks  Category = "parks"
)

var placeTypes = map[Category]string{
	CategoryDining: "restaurant",
	CategoryCoffee: "cafe",
	CategoryDrinks: "bar",
	CategoryMovies: "movie_theater",
	CategoryParks:  "park",
}

// Categories lists the enumerated categories in display order.
func Categories() []Category {
	return []Category{CategoryDining, CategoryCoffee, CategoryDrinks, CategoryMovies, CategoryParks}
}

// Normalize trims and case-folds c.
func (c Category) Normalize() Category {
	return Category(cases.Fold().String(strings.TrimSpace(string(c))))
}

// PlaceType returns the provider place type searched for c.
// Unknown categories pass through lower-cased and trimmed; empty means dining.
func (c Category) PlaceType() string {
	norm := c.Normalize()
	if norm == "" {
		norm = CategoryDining
	}
	if t, ok := placeTypes[norm]; ok {
		return t
	}
	return string(norm)
}

// Venue is a candidate meeting place produced by a venue finder.
type Venue struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity"`
	Location         Point    `json:"location"`
	Category         string   `json:"category"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	PriceLevel       int      `json:"price_level"`
	Types            []string `json:"types,omitempty"`
}

// TravelSample is the estimated trip of one party to one venue.
type TravelSample struct {
	PartyID         string  `json:"party_id"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Balance describes how evenly total travel time is split between parties.
type Balance string

// Balance labels.
const (
	BalancePerfectlyFair Balance = "perfectly_fair"
	BalanceFairEnough    Balance = "fair_enough"
	BalanceUnbalanced    Balance = "unbalanced"
)

// ScoredVenue is a venue annotated with per-party travel and its fairness score.
type ScoredVenue struct {
	Venue
	TravelTimes       []TravelSample `json:"travel_times"`
	MaxCommuteSeconds float64        `json:"max_commute_seconds"`
	DispersionSeconds float64        `json:"dispersion_seconds"`
	FairnessScore     float64        `json:"fairness_score"`
	Balance           Balance        `json:"balance,omitempty"`
	Degraded          bool           `json:"degraded"`
}

// Clone returns a deep copy of v.
func (v ScoredVenue) Clone() ScoredVenue {
	out := v
	if v.Types != nil {
		out.Types = append([]string(nil), v.Types...)
	}
	if v.TravelTimes != nil {
		out.TravelTimes = append([]TravelSample(nil), v.TravelTimes...)
	}
	return out
}

// CloneAll deep-copies a ranked list.
func CloneAll(in []ScoredVenue) []ScoredVenue {
	if in == nil {
		return nil
	}
	out := make([]ScoredVenue, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
