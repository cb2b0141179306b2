package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompter/internal/models"
)

func TestEmitGeneration_UsesCustomEmitter(t *testing.T) {
	t.Cleanup(func() { SetCustomEmitter(nil) })

	var got []GenerationEvent
	SetCustomEmitter(func(_ context.Context, evt GenerationEvent) {
		got = append(got, evt)
	})

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := models.NewHistoryRecord("Explain recursion", now)
	rec.AppendVersion("Recursion is...", "", now)
	rec.Status = models.StatusCompleted

	EmitGeneration(context.Background(), NewStatusEvent(rec, now))
	EmitGeneration(context.Background(), NewChunkEvent(rec.ID, "Recur", now))

	require.Len(t, got, 2)
	assert.Equal(t, GenerationStatus, got[0].Name())
	assert.Equal(t, rec.ID, got[0].RecordID)
	assert.Equal(t, models.StatusCompleted, got[0].Status)
	assert.Equal(t, 1, got[0].VersionCount)
	assert.Equal(t, GenerationChunk, got[1].Name())
	assert.Equal(t, "Recur", got[1].Chunk)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestSetCustomEmitter_NilDisables(t *testing.T) {
	SetCustomEmitter(nil)
	assert.NotPanics(t, func() {
		EmitGeneration(context.Background(), GenerationEvent{RecordID: "x"})
	})
}
