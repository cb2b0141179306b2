package models

import "fmt"

// GenerationStatus is the lifecycle state of a history record's generation.
type GenerationStatus string

const (
	StatusPending    GenerationStatus = "pending"
	StatusGenerating GenerationStatus = "generating"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
	StatusCancelled  GenerationStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []GenerationStatus{
	StatusPending,
	StatusGenerating,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

func (s GenerationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusGenerating, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no generation can be running in this state.
func (s GenerationStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	case StatusPending, StatusGenerating:
		return false
	default:
		return false
	}
}

// IsActive reports whether the state may still be cancelled.
func (s GenerationStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusGenerating:
		return true
	case StatusCompleted, StatusFailed, StatusCancelled:
		return false
	default:
		return false
	}
}

// ParseGenerationStatus converts a persisted string into a status.
func ParseGenerationStatus(raw string) (GenerationStatus, error) {
	s := GenerationStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown generation status %q", raw)
	}
	return s, nil
}
