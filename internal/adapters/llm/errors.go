package llm

import "errors"

// Sentinel error kinds for this package, matched with errors.Is.
var (
	ErrRequest         = errors.New("llm request failed")
	ErrRateLimited     = errors.New("llm rate limited")
	ErrInvalidResponse = errors.New("llm response invalid")
)
