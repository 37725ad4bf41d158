package matching

import "errors"

// Sentinel kinds for matching errors.
var (
	// ErrRetrieval marks a failed candidate search. Match degrades it to no match.
	ErrRetrieval = errors.New("candidate retrieval failed")
	// ErrScoring marks a failed batch scoring pass.
	ErrScoring = errors.New("batch scoring failed")
)
