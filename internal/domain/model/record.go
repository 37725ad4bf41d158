package model

import "time"

// SummaryKind tags the outcome of summarization.
type SummaryKind int

const (
	// NoUpdate means there is nothing to report for the item.
	NoUpdate SummaryKind = iota
	// Update carries a summary and one-liner to post.
	Update
)

// Summary is the summarizer's result for one topic and item.
// Only Kind == Update carries content; every failure maps to NoUpdate.
type Summary struct {
	Kind     SummaryKind
	Detail   string
	OneLiner string
}

// NoUpdateSummary returns the "nothing to report" result.
func NoUpdateSummary() Summary { return Summary{Kind: NoUpdate} }

// NewUpdate returns an Update result, or NoUpdate when either field is blank.
func NewUpdate(detail, oneLiner string) Summary {
	if detail == "" || oneLiner == "" {
		return NoUpdateSummary()
	}
	return Summary{Kind: Update, Detail: detail, OneLiner: oneLiner}
}

// IsUpdate reports whether the summary should be posted.
func (s Summary) IsUpdate() bool { return s.Kind == Update }

// UpdateRecord is the persisted outcome of one matched topic.
// Summary and OneLiner are nil when nothing was reported.
type UpdateRecord struct {
	ID            string
	MeetingID     string
	ItemID        *string
	OriginalTopic Topic
	Summary       *string
	OneLiner      *string
	ResourceLinks []string
	CreatedAt     time.Time
}
