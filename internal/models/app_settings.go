package models

import "time"

const (
	BackendAPI = "api" // remote provider through its HTTP API
	BackendCLI = "cli" // local CLI subprocess
)

type AppSettings struct {
	ID                  uint      `gorm:"primaryKey" json:"id"` // single-row table (ID=1)
	Version             int       `gorm:"not null;default:1" json:"version"`
	Theme               string    `gorm:"not null;default:system" json:"theme"` // "light" | "dark" | "system"
	Locale              string    `gorm:"not null" json:"locale"`
	Backend             string    `gorm:"size:10;not null;default:api" json:"backend"`
	DefaultModelKey     string    `gorm:"size:255" json:"defaultModelKey"`
	SystemPromptVariant string    `gorm:"size:50;not null;default:default" json:"systemPromptVariant"`
	CustomSystemPrompt  string    `gorm:"type:text" json:"customSystemPrompt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}
