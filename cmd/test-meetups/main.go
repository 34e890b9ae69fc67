package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/internal/loadtest"
)

// Default configuration constants.
const (
	defaultRequests    = 500
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 20 * time.Second
	defaultTestTimeout = 10 * time.Minute
	defaultSpreadKM    = 8
	defaultMinParties  = 2
	defaultMaxParties  = 5
	defaultRepeat      = 0.2
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		requests   = flag.Int("requests", defaultRequests, "Number of recommendations to request")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		lat        = flag.Float64("lat", 40.7128, "City center latitude")
		lng        = flag.Float64("lng", -74.0060, "City center longitude")
		spread     = flag.Float64("spread", defaultSpreadKM, "Max party distance from the center in km")
		minParties = flag.Int("min", defaultMinParties, "Smallest group size")
		maxParties = flag.Int("max", defaultMaxParties, "Largest group size")
		repeat     = flag.Float64("repeat", defaultRepeat, "Fraction of repeated groups")
		seed       = flag.Int64("seed", 1, "Generator seed")
		outputFile = flag.String("output", "", "Write per-request outcomes as JSON")
		logFile    = flag.String("log", "", "Log file (default: meetup_load_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Log every request")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	if err := loadtest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:    *baseURL,
		Requests:   *requests,
		Workers:    max(1, *workers),
		Timeout:    *timeout,
		Center:     model.Point{Lat: *lat, Lng: *lng},
		SpreadKM:   *spread,
		MinParties: max(2, *minParties),
		MaxParties: *maxParties,
		Repeat:     *repeat,
		Seed:       *seed,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := loadtest.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel is called explicitly above
	}
}
