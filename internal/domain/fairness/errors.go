package fairness

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrNoSamples     = errors.New("no travel samples")
	ErrInvalidSample = errors.New("invalid travel sample")
)
