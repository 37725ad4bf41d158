// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Topic is one segment of a transcript as produced by the segmenter.
// It is never modified after segmentation.
type Topic struct {
	Text        string   `json:"text"`
	WordCount   int      `json:"wordCount"`
	Label       string   `json:"topic"`
	Keywords    []string `json:"keywords"`
	MainConcept string   `json:"mainConcept"`
}

// Fallback topic values used when segmentation output cannot be used.
const (
	FallbackTopicLabel  = "Full transcript"
	FallbackMainConcept = "Complete transcript segment"
)

// FallbackTopic treats the whole transcript as a single topic with no keywords.
func FallbackTopic(transcript string) Topic {
	return Topic{
		Text:        transcript,
		WordCount:   len(strings.Fields(transcript)),
		Label:       FallbackTopicLabel,
		Keywords:    []string{},
		MainConcept: FallbackMainConcept,
	}
}

// Candidate is a tracked work item eligible for matching against a topic.
type Candidate struct {
	ID          string
	Summary     string
	Description string
	Comments    []string
}

// ScoredCandidate is a candidate with its relevance for one topic.
// Relevance is only comparable with candidates scored in the same batch.
type ScoredCandidate struct {
	ID        string
	Relevance float64
	Source    Candidate
}

// MatchResult holds the best candidate for a topic, if any.
type MatchResult struct {
	Best  ScoredCandidate
	Found bool
}

// NoMatch is the empty MatchResult.
func NoMatch() MatchResult { return MatchResult{} }

// Matched wraps a scored candidate in a MatchResult.
func Matched(c ScoredCandidate) MatchResult { return MatchResult{Best: c, Found: true} }

// TranscriptJob is one transcript delivery queued for processing.
type TranscriptJob struct {
	JobID        string    // delivery id, used for idempotency
	MeetingID    string    // meeting the transcript belongs to
	Transcript   string    // raw transcript text
	TrackerHost  string    // tracker host for this delivery
	TrackerToken string    // bearer credential for the tracker
	ReceivedAt   time.Time // when the delivery was accepted
}
