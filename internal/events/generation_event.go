package events

import (
	"time"

	"github.com/google/uuid"

	"prompter/internal/models"
)

const (
	GenerationStatus = "events:generation:status"
	GenerationChunk  = "events:generation:chunk"
)

// GenerationEvent is the payload sent to the frontend whenever a history
// record changes state or a streamed chunk arrives.
type GenerationEvent struct {
	ID           string                  `json:"id"`
	RecordID     string                  `json:"recordId"`
	Status       models.GenerationStatus `json:"status"`
	Message      string                  `json:"message,omitempty"`
	Chunk        string                  `json:"chunk,omitempty"`
	VersionCount int                     `json:"versionCount"`
	Timestamp    time.Time               `json:"timestamp"`
}

// Name returns the frontend event name for evt.
func (e GenerationEvent) Name() string {
	if e.Chunk != "" {
		return GenerationChunk
	}
	return GenerationStatus
}

// NewStatusEvent builds a status event from a record snapshot.
func NewStatusEvent(rec *models.HistoryRecord, at time.Time) GenerationEvent {
	return GenerationEvent{
		ID:           uuid.NewString(),
		RecordID:     rec.ID,
		Status:       rec.Status,
		Message:      rec.ErrorMessage,
		VersionCount: len(rec.Versions),
		Timestamp:    at,
	}
}

// NewChunkEvent builds a streaming chunk event.
func NewChunkEvent(recordID, chunk string, at time.Time) GenerationEvent {
	return GenerationEvent{
		ID:        uuid.NewString(),
		RecordID:  recordID,
		Status:    models.StatusGenerating,
		Chunk:     chunk,
		Timestamp: at,
	}
}
