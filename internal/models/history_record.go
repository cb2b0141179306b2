package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HistoryRecord is one submitted prompt idea and every version generated for it.
type HistoryRecord struct {
	ID                   string              `gorm:"primaryKey;size:36" json:"id"`
	PromptText           string              `gorm:"type:text;not null;index" json:"promptText"`
	SystemPrompt         string              `gorm:"type:text" json:"systemPrompt,omitempty"`
	ModelKey             string              `gorm:"size:255" json:"modelKey,omitempty"`
	CreatedAt            time.Time           `gorm:"not null;index" json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
	IsArchived           bool                `gorm:"not null;default:false;index" json:"isArchived"`
	IsFavorite           bool                `gorm:"not null;default:false" json:"isFavorite"`
	Status               GenerationStatus    `gorm:"size:20;not null;default:pending;index" json:"status"`
	ErrorMessage         string              `gorm:"type:text" json:"errorMessage,omitempty"`
	Versions             []GenerationVersion `gorm:"foreignKey:RecordID;references:ID;constraint:OnDelete:CASCADE" json:"versions"`
	SelectedVersionIndex int                 `gorm:"not null;default:0" json:"selectedVersionIndex"`

	// Deprecated: single-output column written before versions existed.
	LegacyOutput string `gorm:"column:output;type:text" json:"-"`
}

// GenerationVersion is one successful generation. Versions are append-only.
type GenerationVersion struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	RecordID  string    `gorm:"size:36;not null;uniqueIndex:idx_version_record_position" json:"recordId"`
	Position  int       `gorm:"not null;uniqueIndex:idx_version_record_position" json:"position"`
	Output    string    `gorm:"type:text;not null" json:"output"`
	ModelKey  string    `gorm:"size:255" json:"modelKey,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// NormalizePromptText is the comparison form used for dedup: surrounding
// whitespace trimmed, case preserved.
func NormalizePromptText(text string) string {
	return strings.TrimSpace(text)
}

// NewHistoryRecord creates a pending record for the given prompt text.
func NewHistoryRecord(promptText string, now time.Time) *HistoryRecord {
	return &HistoryRecord{
		ID:         uuid.NewString(),
		PromptText: NormalizePromptText(promptText),
		CreatedAt:  now,
		UpdatedAt:  now,
		Status:     StatusPending,
		Versions:   []GenerationVersion{},
	}
}

// IsPlaceholder reports whether the record is an empty draft that has never
// been generated.
func (r *HistoryRecord) IsPlaceholder() bool {
	return r.PromptText == "" && len(r.Versions) == 0
}

// AppendVersion adds a new version and selects it.
func (r *HistoryRecord) AppendVersion(output, modelKey string, at time.Time) GenerationVersion {
	v := GenerationVersion{
		ID:        uuid.NewString(),
		RecordID:  r.ID,
		Position:  len(r.Versions),
		Output:    output,
		ModelKey:  modelKey,
		CreatedAt: at,
	}
	r.Versions = append(r.Versions, v)
	r.SelectedVersionIndex = len(r.Versions) - 1
	return v
}

// SelectedVersion returns the version currently shown, if any.
func (r *HistoryRecord) SelectedVersion() (*GenerationVersion, bool) {
	if len(r.Versions) == 0 {
		return nil, false
	}
	idx := r.SelectedVersionIndex
	if idx < 0 || idx >= len(r.Versions) {
		idx = len(r.Versions) - 1
	}
	return &r.Versions[idx], true
}

// SelectVersion changes the displayed version.
func (r *HistoryRecord) SelectVersion(index int) error {
	if index < 0 || index >= len(r.Versions) {
		return fmt.Errorf("version index %d out of range (record has %d versions)", index, len(r.Versions))
	}
	r.SelectedVersionIndex = index
	return nil
}

// NormalizeSelection pulls an out-of-range selection back to the last version.
func (r *HistoryRecord) NormalizeSelection() {
	if len(r.Versions) == 0 {
		r.SelectedVersionIndex = 0
		return
	}
	if r.SelectedVersionIndex < 0 || r.SelectedVersionIndex >= len(r.Versions) {
		r.SelectedVersionIndex = len(r.Versions) - 1
	}
}

// Clone returns a deep copy safe to hand to callers or persistence.
func (r *HistoryRecord) Clone() *HistoryRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Versions = make([]GenerationVersion, len(r.Versions))
	copy(out.Versions, r.Versions)
	return &out
}

// UnmarshalJSON accepts both the current shape and the legacy shape that
// stored a single "output" string instead of a versions list.
func (r *HistoryRecord) UnmarshalJSON(data []byte) error {
	type recordAlias HistoryRecord
	aux := struct {
		*recordAlias
		Output string `json:"output"`
	}{recordAlias: (*recordAlias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if r.Status != "" && !r.Status.Valid() {
		return fmt.Errorf("record %s: unknown generation status %q", r.ID, r.Status)
	}
	if r.Versions == nil {
		r.Versions = []GenerationVersion{}
	}
	if aux.Output != "" && len(r.Versions) == 0 {
		r.migrateLegacyOutput(aux.Output)
	}
	if r.Status == "" {
		if len(r.Versions) > 0 {
			r.Status = StatusCompleted
		} else {
			r.Status = StatusPending
		}
	}
	seen := make(map[string]bool, len(r.Versions))
	for i := range r.Versions {
		v := &r.Versions[i]
		// Older files carry no version ids; each version is its own row.
		if v.ID == "" || seen[v.ID] {
			v.ID = uuid.NewString()
		}
		seen[v.ID] = true
		if v.RecordID == "" {
			v.RecordID = r.ID
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = r.CreatedAt
		}
		v.Position = i
	}
	r.NormalizeSelection()
	return nil
}

// MigrateLegacyOutput moves the deprecated single output into the versions
// list. It reports whether anything changed.
func (r *HistoryRecord) MigrateLegacyOutput() bool {
	if r.LegacyOutput == "" {
		return false
	}
	if len(r.Versions) == 0 {
		r.migrateLegacyOutput(r.LegacyOutput)
		if r.Status != StatusGenerating {
			r.Status = StatusCompleted
		}
	}
	r.LegacyOutput = ""
	return true
}

func (r *HistoryRecord) migrateLegacyOutput(output string) {
	at := r.CreatedAt
	if !r.UpdatedAt.IsZero() {
		at = r.UpdatedAt
	}
	r.AppendVersion(output, r.ModelKey, at)
}
