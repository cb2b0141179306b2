package models

// SystemPromptVariant names one of the instruction texts sent along with the
// user's prompt idea.
type SystemPromptVariant string

const (
	SystemPromptDefault  SystemPromptVariant = "default"
	SystemPromptConcise  SystemPromptVariant = "concise"
	SystemPromptDetailed SystemPromptVariant = "detailed"
	SystemPromptCustom   SystemPromptVariant = "custom"
)

func (v SystemPromptVariant) Valid() bool {
	switch v {
	case SystemPromptDefault, SystemPromptConcise, SystemPromptDetailed, SystemPromptCustom:
		return true
	default:
		return false
	}
}
