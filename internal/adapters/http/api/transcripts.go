package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/scribe/internal/adapters/repository"
	"github.com/okian/scribe/internal/domain/model"
)

// RecordReader exposes stored update records.
type RecordReader interface {
	GetRecord(ctx context.Context, id string) (model.UpdateRecord, error)
	ListByMeeting(ctx context.Context, meetingID string) ([]model.UpdateRecord, error)
}

// RecordView is the JSON shape of an update record.
type RecordView struct {
	ID            string      `json:"id"`
	MeetingID     string      `json:"meetingId"`
	ItemID        *string     `json:"itemId"`
	OriginalTopic model.Topic `json:"originalTopic"`
	Summary       *string     `json:"summary"`
	OneLiner      *string     `json:"oneLiner"`
	ResourceLinks []string    `json:"resourceLinks"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// NewRecordView converts a record for output.
func NewRecordView(rec model.UpdateRecord) RecordView {
	links := rec.ResourceLinks
	if links == nil {
		links = []string{}
	}
	return RecordView{
		ID:            rec.ID,
		MeetingID:     rec.MeetingID,
		ItemID:        rec.ItemID,
		OriginalTopic: rec.OriginalTopic,
		Summary:       rec.Summary,
		OneLiner:      rec.OneLiner,
		ResourceLinks: links,
		CreatedAt:     rec.CreatedAt,
	}
}

// TranscriptsHandler serves stored update records.
type TranscriptsHandler struct {
	deps RecordReader
}

// NewTranscriptsHandler creates a new transcripts handler.
func NewTranscriptsHandler(deps RecordReader) *TranscriptsHandler {
	return &TranscriptsHandler{deps: deps}
}

// HandleGetRecord handles GET /transcripts/{id} requests.
func (h *TranscriptsHandler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_record"
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.GetRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, NewRecordView(rec))
}

// HandleListMeeting handles GET /meetings/{meetingId}/transcripts requests.
func (h *TranscriptsHandler) HandleListMeeting(w http.ResponseWriter, r *http.Request) {
	recs, err := h.deps.ListByMeeting(r.Context(), r.PathValue("meetingId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	views := make([]RecordView, len(recs))
	for i, rec := range recs {
		views[i] = NewRecordView(rec)
	}
	writeJSON(w, http.StatusOK, views)
}
