// Package loadtest drives concurrent meetup recommendations against a
// running service and checks the rankings it returns.
package loadtest

import (
	"time"

	"github.com/okian/fairmeet/internal/domain/model"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Requests   int           // Number of recommendations to request
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Center     model.Point   // City center the parties are scattered around
	SpreadKM   float64       // Maximum distance of a party from Center
	MinParties int           // Smallest group size
	MaxParties int           // Largest group size
	Repeat     float64       // Fraction of requests that reuse an earlier group
	Seed       int64         // Generator seed
	OutputFile string        // Optional JSON file for per-request results
	Verbose    bool          // Log every request
}

// Outcome is the client-side view of one recommendation.
type Outcome struct {
	RequestID string        `json:"request_id"`
	HTTPCode  int           `json:"http_code"`
	Status    string        `json:"status"`
	Venues    int           `json:"venues"`
	BestID    string        `json:"best_place_id,omitempty"`
	CacheHit  bool          `json:"cache_hit"`
	Degraded  bool          `json:"degraded"`
	Latency   time.Duration `json:"latency"`
	Err       string        `json:"error,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	Submitted int
	Ranked    int
	Degraded  int
	CacheHits int
	Failed    int
	Unsorted  int
	P50       time.Duration
	P95       time.Duration
	Duration  time.Duration
}
