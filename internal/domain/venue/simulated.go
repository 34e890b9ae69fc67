package venue

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/fairmeet/internal/domain/geo"
	"github.com/okian/fairmeet/internal/domain/model"
)

const (
	minVenues         = 5
	maxVenues         = 8
	defaultRandomSeed = 42
	maxRating         = 4.9
	// venues are spread over at most this share of the search radius
	spreadFraction = 0.5
)

var namesByType = map[string][]string{
	"restaurant": {
		"Harbor Table", "Cedar Kitchen", "Lantern House", "Fig & Fennel", "Northside Grill",
		"Brass Ladle", "The Long Counter", "Market Street Eatery", "Wildflower Bistro", "Ember Room",
	},
	"cafe": {
		"Corner Roast", "Second Cup", "Oat & Honey", "Drip Theory", "Window Seat Coffee",
		"Little Kettle", "Ground Floor", "Press & Pour", "Slow Morning", "Crema Club",
	},
	"bar": {
		"The Night Owl", "Barrel House", "Low Light", "Tin Roof Tavern", "Last Call",
		"Vine & Tap", "The Anchor", "Starling Lounge", "Cellar Door", "Juniper Bar",
	},
	"movie_theater": {
		"Palace Cinema", "Reel House", "Marquee Theatre", "Nightfall Pictures", "The Projector",
		"Odeon Row", "Encore Cinemas", "Film Society Hall", "Lumiere", "Backlot Screens",
	},
	"park": {
		"Riverbend Park", "Elm Commons", "Heritage Green", "Lookout Hill", "Willow Gardens",
		"Founders Square", "Meadowbrook", "Lakeside Reserve", "Orchard Park", "Pioneer Field",
	},
}

// SimulatedOption applies a configuration option to the SimulatedFinder.
type SimulatedOption func(*SimulatedFinder)

// WithSeed sets the random seed.
func WithSeed(seed int64) SimulatedOption {
	return func(f *SimulatedFinder) {
		f.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible simulation
	}
}

// WithLatencyRange sets the simulated search latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) SimulatedOption {
	return func(f *SimulatedFinder) {
		if minLatency >= 0 && maxLatency >= minLatency {
			f.minLatency = minLatency
			f.maxLatency = maxLatency
		}
	}
}

// SimulatedFinder generates five to eight venues around the search center.
type SimulatedFinder struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedFinder creates a simulated finder with configuration options.
func NewSimulatedFinder(opts ...SimulatedOption) *SimulatedFinder {
	f := &SimulatedFinder{
		rng: rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // reproducible simulation
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Search implements Finder.
func (f *SimulatedFinder) Search(ctx context.Context, center model.Point, radiusMeters float64, placeType string) ([]model.Venue, error) {
	venues, latency := f.generate(center, radiusMeters, placeType)
	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return venues, nil
}

func (f *SimulatedFinder) generate(center model.Point, radiusMeters float64, placeType string) ([]model.Venue, time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	names, ok := namesByType[placeType]
	if !ok {
		names = namesByType["restaurant"]
	}
	price, ratingBase := profile(placeType, f.rng)

	count := minVenues + f.rng.Intn(maxVenues-minVenues+1)
	venues := make([]model.Venue, count)
	for i := range venues {
		// uniform over the disc of the spread radius
		dist := radiusMeters * spreadFraction * math.Sqrt(f.rng.Float64())
		bearing := 2 * math.Pi * f.rng.Float64()
		rating := ratingBase + f.rng.Float64()*(maxRating-ratingBase)

		venues[i] = model.Venue{
			PlaceID:          fmt.Sprintf("mock-%s-%d", placeType, i),
			Name:             names[i%len(names)],
			Vicinity:         fmt.Sprintf("%d Main St", 10+f.rng.Intn(900)),
			Location:         geo.Offset(center, dist*math.Cos(bearing), dist*math.Sin(bearing)),
			Category:         placeType,
			Rating:           math.Round(rating*10) / 10,
			UserRatingsTotal: 50 + f.rng.Intn(800),
			PriceLevel:       price(),
			Types:            []string{placeType, "point_of_interest"},
		}
	}

	latency := f.minLatency
	if span := f.maxLatency - f.minLatency; span > 0 {
		latency += time.Duration(f.rng.Int63n(int64(span)))
	}
	return venues, latency
}

// profile returns the price level generator and the rating floor for a place type.
func profile(placeType string, rng *rand.Rand) (price func() int, ratingBase float64) {
	switch placeType {
	case "park":
		return func() int { return 0 }, 4.5
	case "cafe":
		return func() int {
			if rng.Float64() > 0.7 {
				return 2
			}
			return 1
		}, 4.2
	case "movie_theater":
		return func() int { return 2 }, 3.8
	default:
		return func() int { return 2 }, 4.0
	}
}
