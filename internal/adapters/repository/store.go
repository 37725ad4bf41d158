// Package repository persists update records.
package repository

import (
	"context"

	"github.com/okian/scribe/internal/domain/model"
)

// Store provides read/write access to update records.
type Store interface {
	// InsertRecord assigns an id and creation time and stores the record.
	InsertRecord(ctx context.Context, rec model.UpdateRecord) (model.UpdateRecord, error)

	// GetRecord returns one record. Returns ErrNotFound if the id is unknown.
	GetRecord(ctx context.Context, id string) (model.UpdateRecord, error)

	// ListByMeeting returns a meeting's records, oldest first.
	ListByMeeting(ctx context.Context, meetingID string) ([]model.UpdateRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	Close() error
}
