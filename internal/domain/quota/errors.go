package quota

import "errors"

// Sentinel kinds for quota errors.
var (
	ErrExpired       = errors.New("trial period expired")
	ErrQuotaExceeded = errors.New("daily quota exceeded")
	ErrStore         = errors.New("quota store failed")
)
