package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/scribe/internal/domain/dedupe"
	"github.com/okian/scribe/internal/domain/model"
	"github.com/okian/scribe/pkg/metrics"
)

// TranscriptResource is the webhook resource carrying meeting transcripts.
const TranscriptResource = "meetingTranscripts"

// maxWebhookBody bounds the request body; transcripts of long meetings are large.
const maxWebhookBody = 8 << 20

// WebhookDependencies defines what the webhook handler needs.
type WebhookDependencies interface {
	dedupe.Deduper
	EnqueueTranscript(ctx context.Context, job model.TranscriptJob) bool
}

// webhookRequest is the body of POST /webhooks/transcripts.
type webhookRequest struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
	Data     struct {
		MeetingID    string `json:"meetingId"`
		Transcript   string `json:"transcript"`
		TrackerHost  string `json:"trackerHost"`
		TrackerToken string `json:"trackerToken"`
	} `json:"data"`
}

func (r *webhookRequest) validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return errors.New("missing id")
	case strings.TrimSpace(r.Data.MeetingID) == "":
		return errors.New("missing data.meetingId")
	case strings.TrimSpace(r.Data.Transcript) == "":
		return errors.New("missing data.transcript")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	JobID     string `json:"jobId,omitempty"`
}

// WebhookHandler accepts transcript deliveries.
type WebhookHandler struct {
	deps WebhookDependencies
	now  func() time.Time
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(deps WebhookDependencies) *WebhookHandler {
	return &WebhookHandler{deps: deps, now: time.Now}
}

// HandleTranscriptWebhook handles POST /webhooks/transcripts requests.
func (h *WebhookHandler) HandleTranscriptWebhook(w http.ResponseWriter, r *http.Request) {
	const op = "api.transcript_webhook"
	var req webhookRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Resource != TranscriptResource {
		writeJSON(w, http.StatusOK, ackResponse{Status: "ignored"})
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if h.deps.SeenAndRecord(r.Context(), req.ID) {
		metrics.RecordDeliveryDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, JobID: req.ID})
		return
	}

	job := model.TranscriptJob{
		JobID:        req.ID,
		MeetingID:    req.Data.MeetingID,
		Transcript:   req.Data.Transcript,
		TrackerHost:  req.Data.TrackerHost,
		TrackerToken: req.Data.TrackerToken,
		ReceivedAt:   h.now().UTC(),
	}
	if ok := h.deps.EnqueueTranscript(r.Context(), job); !ok {
		// a later re-delivery must not be mistaken for a duplicate
		h.deps.Unrecord(r.Context(), req.ID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", JobID: req.ID})
}
