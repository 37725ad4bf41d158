package tracker

import "errors"

// Sentinel error kinds for this package, matched with errors.Is.
var (
	ErrNotConfigured = errors.New("tracker not configured")
	ErrRequest       = errors.New("tracker request failed")
	ErrDecode        = errors.New("tracker response invalid")
)
