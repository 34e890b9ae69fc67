package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	service "github.com/okian/fairmeet/internal/app"
	"github.com/okian/fairmeet/pkg/logger"
)

// Runner configuration constants.
const (
	workerChannelMultiplier = 2
	percentile50            = 50
	percentile95            = 95
	percentageMultiplier    = 100
	outputFilePermission    = 0o600
)

// ErrServiceUnhealthy is returned when /healthz does not answer 200.
var ErrServiceUnhealthy = errors.New("service health check failed")

// Run executes a complete load test and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	runID := uuid.NewString()
	log := logger.Get().Named("loadtest")
	log.Info(ctx, "starting meetup load test",
		logger.String("run", runID),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	code, err := client.get(ctx, "/healthz")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnhealthy, err)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnhealthy, code)
	}

	start := time.Now()
	outcomes := submit(ctx, cfg, client, generate(cfg))
	stats := summarize(outcomes)
	stats.Duration = time.Since(start)

	if cfg.OutputFile != "" {
		if err := saveOutcomes(cfg.OutputFile, outcomes); err != nil {
			log.Warn(ctx, "failed to save outcomes", logger.Error(err))
		}
	}

	var rate float64
	if stats.Duration > 0 {
		rate = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	var hitRatio float64
	if stats.Submitted > 0 {
		hitRatio = float64(stats.CacheHits) / float64(stats.Submitted) * percentageMultiplier
	}
	log.Info(ctx, "final statistics",
		logger.String("run", runID),
		logger.Int("submitted", stats.Submitted),
		logger.Int("ranked", stats.Ranked),
		logger.Int("degraded", stats.Degraded),
		logger.Int("failed", stats.Failed),
		logger.Int("unsorted", stats.Unsorted),
		logger.Float64("cacheHitPercent", hitRatio),
		logger.Duration("p50", stats.P50),
		logger.Duration("p95", stats.P95),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", rate),
	)

	if stats.Unsorted > 0 {
		return stats, fmt.Errorf("%d recommendations were not sorted by fairness score", stats.Unsorted)
	}
	return stats, nil
}

// submit fans requests out over cfg.Workers goroutines.
func submit(ctx context.Context, cfg *Config, client *httpClient, reqs []meetupRequest) []Outcome {
	outcomes := make([]Outcome, len(reqs))
	jobs := make(chan int, cfg.Workers*workerChannelMultiplier)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = submitOne(ctx, client, reqs[i])
				if cfg.Verbose {
					o := outcomes[i]
					logger.Get().Info(ctx, "recommendation",
						logger.Int("index", i),
						logger.String("status", o.Status),
						logger.Int("venues", o.Venues),
						logger.Bool("cacheHit", o.CacheHit),
						logger.Duration("latency", o.Latency),
					)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range reqs {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()
	return outcomes
}

func submitOne(ctx context.Context, client *httpClient, req meetupRequest) Outcome {
	start := time.Now()
	var rec service.Recommendation
	code, err := client.postJSON(ctx, "/meetups", req, &rec)
	o := Outcome{HTTPCode: code, Latency: time.Since(start)}
	if err != nil {
		o.Err = err.Error()
		return o
	}
	if code != http.StatusOK {
		o.Err = http.StatusText(code)
		return o
	}

	o.RequestID = rec.RequestID
	o.Status = string(rec.Status)
	o.Venues = len(rec.Venues)
	o.CacheHit = rec.CacheHit
	o.Degraded = rec.Degraded
	if len(rec.Venues) > 0 {
		o.BestID = rec.Venues[0].PlaceID
	}
	for i := 1; i < len(rec.Venues); i++ {
		if rec.Venues[i].FairnessScore < rec.Venues[i-1].FairnessScore {
			o.Err = "unsorted"
			break
		}
	}
	return o
}

func summarize(outcomes []Outcome) *Stats {
	s := &Stats{}
	latencies := make([]time.Duration, 0, len(outcomes))
	for _, o := range outcomes {
		if o.HTTPCode == 0 && o.Err == "" {
			continue // never sent
		}
		s.Submitted++
		latencies = append(latencies, o.Latency)
		switch {
		case o.Err == "unsorted":
			s.Unsorted++
		case o.Err != "":
			s.Failed++
		case o.Degraded:
			s.Degraded++
		case o.Status == "ranked":
			s.Ranked++
		}
		if o.CacheHit {
			s.CacheHits++
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	s.P50 = percentile(latencies, percentile50)
	s.P95 = percentile(latencies, percentile95)
	return s
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted) - 1) * p / percentageMultiplier
	return sorted[idx]
}

func saveOutcomes(path string, outcomes []Outcome) error {
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	if err := os.WriteFile(path, data, outputFilePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
