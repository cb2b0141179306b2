package models

// ModelChoice is one entry of the embedded model catalog as offered to the
// user. Key is stable across releases and is what AppSettings.DefaultModelKey
// and GenerationVersion.ModelKey store.
type ModelChoice struct {
	Key             string `json:"key"`
	Provider        string `json:"provider"`
	ProviderName    string `json:"providerName"`
	Label           string `json:"label"`
	APIName         string `json:"apiName"`
	ReasoningEffort string `json:"reasoningEffort,omitempty"`
	Thinking        bool   `json:"thinking,omitempty"`
	Enabled         bool   `json:"enabled"`
}

// ProviderModels lists a provider's choices in catalog order.
type ProviderModels struct {
	Provider string        `json:"provider"`
	Name     string        `json:"name"`
	Models   []ModelChoice `json:"models"`
}
