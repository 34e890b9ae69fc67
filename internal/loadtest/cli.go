package loadtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/fairmeet/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging logs JSON to stdout and to logFile. An empty logFile gets a
// timestamped name.
func SetupLogging(logFile string) error {
	if logFile == "" {
		logFile = "meetup_load_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWith(logger.FormatJSON, io.MultiWriter(os.Stdout, file)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	os.Stdout.WriteString(`fairmeet load tool
==================

Sends concurrent POST /meetups requests with random groups scattered around
a city center and checks every ranking is sorted by fairness score.

Usage:
  go run ./cmd/test-meetups [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -requests int      Number of recommendations (default 500)
  -workers int       Concurrent workers (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 20s)
  -lat, -lng float   City center (default 40.7128,-74.0060)
  -spread float      Max party distance from the center in km (default 8)
  -min, -max int     Group size range (default 2..5)
  -repeat float      Fraction of repeated groups (default 0.2)
  -seed int          Generator seed (default 1)
  -output string     Write per-request outcomes as JSON
  -log string        Log file (default: meetup_load_TIMESTAMP.log)
  -verbose           Log every request
  -help              Show this help message
`)
}
