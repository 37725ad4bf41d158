package pipeline

import "errors"

// Sentinel kinds for pipeline errors.
var (
	// ErrPersist aborts the remaining topics of a transcript run.
	ErrPersist = errors.New("persist update record failed")
	// ErrComment marks a failed comment post; the record is still stored.
	ErrComment = errors.New("post comment failed")
)
