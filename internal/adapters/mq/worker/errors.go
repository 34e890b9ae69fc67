package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrBackpressure = errors.New("estimate queue full")
)
