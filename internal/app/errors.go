package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidRequest  = errors.New("invalid request")
)
