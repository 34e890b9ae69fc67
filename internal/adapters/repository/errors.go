package repository

import "errors"

// Sentinel kinds for quota store errors.
var (
	ErrPathRequired  = errors.New("storage path is required")
	ErrNotConfigured = errors.New("storage is not configured")
	ErrInvalidState  = errors.New("invalid quota state")
)
