package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"prompter/internal/assets"
	"prompter/internal/models"
	"prompter/internal/repositories"
)

type AppSettingsService interface {
	Get() (*models.AppSettings, error)
	Update(theme, locale string) (*models.AppSettings, error)
	UpdateGeneration(backend, modelKey string, variant models.SystemPromptVariant, customPrompt string) (*models.AppSettings, error)
	ResolveSystemPrompt() (string, error)
	Startup(ctx context.Context)
}

type appSettingsService struct {
	appSettings repositories.AppSettingsRepository
	context     context.Context
	now         func() time.Time
}

func (s *appSettingsService) Startup(ctx context.Context) {
	s.context = ctx
}

func NewAppSettingsService(appSettings repositories.AppSettingsRepository) AppSettingsService {
	return &appSettingsService{
		appSettings: appSettings,
		context:     context.Background(),
		now:         time.Now,
	}
}

func (s *appSettingsService) Get() (*models.AppSettings, error) {
	settings, err := s.appSettings.Get(s.context)
	if err != nil {
		return nil, fmt.Errorf("service: get settings: %w", err)
	}
	return settings, nil
}

func (s *appSettingsService) Update(theme, locale string) (*models.AppSettings, error) {
	if theme == "" {
		return nil, errors.New("theme is required")
	}
	if locale == "" {
		return nil, errors.New("locale is required")
	}

	if theme != "light" && theme != "dark" && theme != "system" {
		return nil, errors.New("theme must be 'light', 'dark', or 'system'")
	}

	current, err := s.Get()
	if err != nil {
		return nil, err
	}

	current.Theme = theme
	current.Locale = locale
	current.UpdatedAt = s.now()

	if err := s.appSettings.Update(s.context, current); err != nil {
		return nil, fmt.Errorf("service: update settings: %w", err)
	}
	return current, nil
}

// UpdateGeneration changes the backend, default model and system prompt used
// for new generations.
func (s *appSettingsService) UpdateGeneration(backend, modelKey string, variant models.SystemPromptVariant, customPrompt string) (*models.AppSettings, error) {
	backend = strings.TrimSpace(backend)
	if backend != models.BackendAPI && backend != models.BackendCLI {
		return nil, fmt.Errorf("backend must be %q or %q", models.BackendAPI, models.BackendCLI)
	}
	if variant == "" {
		variant = models.SystemPromptDefault
	}
	if !variant.Valid() {
		return nil, fmt.Errorf("unknown system prompt variant %q", variant)
	}
	if variant == models.SystemPromptCustom && strings.TrimSpace(customPrompt) == "" {
		return nil, errors.New("custom system prompt is required")
	}

	current, err := s.Get()
	if err != nil {
		return nil, err
	}
	current.Backend = backend
	current.DefaultModelKey = strings.TrimSpace(modelKey)
	current.SystemPromptVariant = string(variant)
	current.CustomSystemPrompt = customPrompt
	current.UpdatedAt = s.now()

	if err := s.appSettings.Update(s.context, current); err != nil {
		return nil, fmt.Errorf("service: update generation settings: %w", err)
	}
	return current, nil
}

// ResolveSystemPrompt returns the instruction text sent with each prompt.
func (s *appSettingsService) ResolveSystemPrompt() (string, error) {
	current, err := s.Get()
	if err != nil {
		return "", err
	}
	variant := models.SystemPromptVariant(current.SystemPromptVariant)
	switch variant {
	case models.SystemPromptCustom:
		if text := strings.TrimSpace(current.CustomSystemPrompt); text != "" {
			return text, nil
		}
		variant = models.SystemPromptDefault
	case models.SystemPromptDefault, models.SystemPromptConcise, models.SystemPromptDetailed:
	default:
		variant = models.SystemPromptDefault
	}
	text, err := assets.SystemPrompt(string(variant))
	if err != nil {
		return "", fmt.Errorf("service: resolve system prompt: %w", err)
	}
	return text, nil
}
