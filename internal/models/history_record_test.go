package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func TestNewHistoryRecord(t *testing.T) {
	rec := NewHistoryRecord("  Explain recursion \n", t0)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Explain recursion", rec.PromptText)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, t0, rec.CreatedAt)
	assert.NotNil(t, rec.Versions)
	assert.Empty(t, rec.Versions)
	assert.False(t, rec.IsPlaceholder())
	assert.True(t, NewHistoryRecord(" ", t0).IsPlaceholder())
}

func TestAppendVersion_IsAppendOnlyAndSelectsNewest(t *testing.T) {
	rec := NewHistoryRecord("idea", t0)

	first := rec.AppendVersion("one", "m", t0)
	snapshot := rec.Clone()
	second := rec.AppendVersion("two", "m", t0.Add(time.Minute))

	require.Len(t, rec.Versions, 2)
	assert.Equal(t, first, rec.Versions[0])
	assert.Equal(t, snapshot.Versions[0], rec.Versions[0])
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, rec.ID, second.RecordID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, rec.SelectedVersionIndex)

	v, ok := rec.SelectedVersion()
	require.True(t, ok)
	assert.Equal(t, "two", v.Output)
}

func TestSelectVersion(t *testing.T) {
	rec := NewHistoryRecord("idea", t0)
	_, ok := rec.SelectedVersion()
	assert.False(t, ok)
	assert.Error(t, rec.SelectVersion(0))

	rec.AppendVersion("one", "", t0)
	rec.AppendVersion("two", "", t0)
	assert.NoError(t, rec.SelectVersion(0))
	assert.Equal(t, 0, rec.SelectedVersionIndex)
	assert.Error(t, rec.SelectVersion(2))
	assert.Error(t, rec.SelectVersion(-1))

	rec.SelectedVersionIndex = 9
	rec.NormalizeSelection()
	assert.Equal(t, 1, rec.SelectedVersionIndex)
}

func TestClone_IsDeep(t *testing.T) {
	rec := NewHistoryRecord("idea", t0)
	rec.AppendVersion("one", "", t0)

	clone := rec.Clone()
	clone.Versions[0].Output = "changed"
	clone.AppendVersion("two", "", t0)

	assert.Equal(t, "one", rec.Versions[0].Output)
	assert.Len(t, rec.Versions, 1)

	var nilRec *HistoryRecord
	assert.Nil(t, nilRec.Clone())
}

func TestHistoryRecord_JSONRoundTrip(t *testing.T) {
	rec := NewHistoryRecord("Explain recursion", t0)
	rec.UpdatedAt = t0.Add(time.Hour)
	rec.IsArchived = true
	rec.IsFavorite = false
	rec.SystemPrompt = "be precise"
	rec.ModelKey = "openai|gpt-5"
	rec.AppendVersion("first", "openai|gpt-5", t0.Add(time.Minute))
	rec.AppendVersion("second", "openai|gpt-5", t0.Add(2*time.Minute))
	rec.AppendVersion("third", "anthropic|claude", t0.Add(3*time.Minute))
	require.NoError(t, rec.SelectVersion(1))
	rec.Status = StatusCompleted

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded HistoryRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *rec, decoded)
}

func TestHistoryRecord_UnmarshalLegacyOutput(t *testing.T) {
	raw := `{
		"id": "legacy-1",
		"promptText": "old idea",
		"createdAt": "2024-05-01T10:00:00Z",
		"isArchived": false,
		"isFavorite": true,
		"output": "the only output"
	}`

	var rec HistoryRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	assert.Equal(t, StatusCompleted, rec.Status)
	assert.True(t, rec.IsFavorite)
	require.Len(t, rec.Versions, 1)
	assert.Equal(t, "the only output", rec.Versions[0].Output)
	assert.Equal(t, "legacy-1", rec.Versions[0].RecordID)
	assert.Equal(t, 0, rec.SelectedVersionIndex)
}

func TestHistoryRecord_UnmarshalDefaultsAndErrors(t *testing.T) {
	var rec HistoryRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","promptText":"p"}`), &rec))
	assert.Equal(t, StatusPending, rec.Status)
	assert.NotNil(t, rec.Versions)

	var bad HistoryRecord
	assert.Error(t, json.Unmarshal([]byte(`{"id":"b","status":"queued"}`), &bad))
}

func TestHistoryRecord_UnmarshalAssignsVersionIDs(t *testing.T) {
	raw := `{"id":"r1","promptText":"p","createdAt":"2024-05-01T10:00:00Z","selectedVersionIndex":2,
		"versions":[{"output":"x"},{"id":"v","output":"y"},{"id":"v","output":"z"}]}`

	var rec HistoryRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	require.Len(t, rec.Versions, 3)

	ids := map[string]bool{}
	for i, v := range rec.Versions {
		assert.NotEmpty(t, v.ID)
		assert.Equal(t, i, v.Position)
		assert.Equal(t, "r1", v.RecordID)
		assert.Equal(t, rec.CreatedAt, v.CreatedAt)
		ids[v.ID] = true
	}
	assert.Len(t, ids, 3)
	assert.Equal(t, "v", rec.Versions[1].ID)
	assert.Equal(t, 2, rec.SelectedVersionIndex)
}

func TestMigrateLegacyOutput(t *testing.T) {
	rec := &HistoryRecord{ID: "r", PromptText: "p", CreatedAt: t0, Status: StatusPending, LegacyOutput: "legacy"}
	assert.True(t, rec.MigrateLegacyOutput())
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Empty(t, rec.LegacyOutput)
	require.Len(t, rec.Versions, 1)
	assert.Equal(t, "legacy", rec.Versions[0].Output)

	assert.False(t, rec.MigrateLegacyOutput())

	withVersions := &HistoryRecord{ID: "s", LegacyOutput: "dup", Status: StatusCompleted}
	withVersions.AppendVersion("kept", "", t0)
	assert.True(t, withVersions.MigrateLegacyOutput())
	assert.Len(t, withVersions.Versions, 1)
	assert.Equal(t, "kept", withVersions.Versions[0].Output)
}
