package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"prompter/internal/assets"
	"prompter/internal/llm/client"
	"prompter/internal/models"
	"prompter/internal/repositories"
)

var (
	ErrModelNotFound   = errors.New("model not in catalog")
	ErrModelDisabled   = errors.New("model is disabled")
	ErrNoModelEnabled  = errors.New("no model is enabled")
	errModelKeyMissing = errors.New("model key is required")
)

// ModelCatalogService answers which model a generation should use. The
// catalog itself is embedded; only the enabled flags are stored.
type ModelCatalogService interface {
	Startup(ctx context.Context) error
	Providers() []models.ProviderModels
	// Choose validates preferredKey and returns its model. An empty key picks
	// the first enabled model in catalog order. Failures carry the not_found
	// generation error kind.
	Choose(preferredKey string) (*models.ModelChoice, error)
	// FirstEnabled returns provider's first enabled model, or nil.
	FirstEnabled(provider string) *models.ModelChoice
	SetEnabled(modelKey string, enabled bool) error
	SetProviderEnabled(provider string, enabled bool) error
}

type catalogProvider struct {
	id     string
	name   string
	models []*models.ModelChoice
}

type modelCatalogService struct {
	repo repositories.ModelSettingRepository
	ctx  context.Context

	mu        sync.RWMutex
	providers []*catalogProvider
	byKey     map[string]*models.ModelChoice
}

type catalogFile struct {
	Providers []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		Models      []struct {
			DisplayName     string `json:"displayName"`
			APIName         string `json:"apiName"`
			ReasoningEffort string `json:"reasoningEffort,omitempty"`
			Thinking        bool   `json:"thinking,omitempty"`
		} `json:"models"`
	} `json:"providers"`
}

func NewModelCatalogService(repo repositories.ModelSettingRepository) ModelCatalogService {
	return &modelCatalogService{
		repo:  repo,
		ctx:   context.Background(),
		byKey: make(map[string]*models.ModelChoice),
	}
}

// Startup loads the embedded catalog, applies the stored toggles and enables
// models that have never been toggled.
func (s *modelCatalogService) Startup(ctx context.Context) error {
	s.ctx = ctx

	var file catalogFile
	if err := json.Unmarshal(assets.ModelsData, &file); err != nil {
		return fmt.Errorf("service: parse model catalog: %w", err)
	}

	stored, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("service: load model settings: %w", err)
	}
	enabled := make(map[string]bool, len(stored))
	for _, setting := range stored {
		enabled[setting.ModelKey] = setting.Enabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.providers = s.providers[:0]
	clear(s.byKey)
	for _, p := range file.Providers {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}
		provider := &catalogProvider{id: id, name: strings.TrimSpace(p.DisplayName)}
		if provider.name == "" {
			provider.name = id
		}
		for _, m := range p.Models {
			choice := &models.ModelChoice{
				Provider:        id,
				ProviderName:    provider.name,
				Label:           strings.TrimSpace(m.DisplayName),
				APIName:         strings.TrimSpace(m.APIName),
				ReasoningEffort: strings.TrimSpace(m.ReasoningEffort),
				Thinking:        m.Thinking,
			}
			choice.Key = modelKey(choice)
			if _, dup := s.byKey[choice.Key]; dup {
				continue
			}

			on, known := enabled[choice.Key]
			if !known {
				if _, err := s.repo.Upsert(ctx, choice.Key, id, true); err != nil {
					return fmt.Errorf("service: seed model setting %s: %w", choice.Key, err)
				}
				on = true
			}
			choice.Enabled = on

			provider.models = append(provider.models, choice)
			s.byKey[choice.Key] = choice
		}
		s.providers = append(s.providers, provider)
	}
	return nil
}

func (s *modelCatalogService) Providers() []models.ProviderModels {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ProviderModels, 0, len(s.providers))
	for _, p := range s.providers {
		group := models.ProviderModels{Provider: p.id, Name: p.name, Models: make([]models.ModelChoice, 0, len(p.models))}
		for _, m := range p.models {
			group.Models = append(group.Models, *m)
		}
		out = append(out, group)
	}
	return out
}

func (s *modelCatalogService) Choose(preferredKey string) (*models.ModelChoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := strings.TrimSpace(preferredKey)
	if key == "" {
		for _, p := range s.providers {
			for _, m := range p.models {
				if m.Enabled {
					choice := *m
					return &choice, nil
				}
			}
		}
		return nil, client.NotConfigured("No model is enabled. Enable one in settings.", ErrNoModelEnabled)
	}

	m, ok := s.byKey[key]
	if !ok {
		return nil, client.NotConfigured(fmt.Sprintf("Model %s is not available.", key), ErrModelNotFound)
	}
	if !m.Enabled {
		return nil, client.NotConfigured(fmt.Sprintf("Model %s is disabled.", m.Label), ErrModelDisabled)
	}
	choice := *m
	return &choice, nil
}

func (s *modelCatalogService) FirstEnabled(provider string) *models.ModelChoice {
	provider = strings.TrimSpace(provider)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.providers {
		if p.id != provider {
			continue
		}
		for _, m := range p.models {
			if m.Enabled {
				choice := *m
				return &choice
			}
		}
	}
	return nil
}

func (s *modelCatalogService) SetEnabled(key string, enabled bool) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errModelKeyMissing
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byKey[key]
	if !ok {
		return fmt.Errorf("service: %s: %w", key, ErrModelNotFound)
	}
	if _, err := s.repo.Upsert(s.ctx, key, m.Provider, enabled); err != nil {
		return fmt.Errorf("service: toggle model %s: %w", key, err)
	}
	m.Enabled = enabled
	return nil
}

func (s *modelCatalogService) SetProviderEnabled(provider string, enabled bool) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return errors.New("provider is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SetProviderEnabled(s.ctx, provider, enabled); err != nil {
		return fmt.Errorf("service: toggle provider %s: %w", provider, err)
	}
	for _, p := range s.providers {
		if p.id != provider {
			continue
		}
		for _, m := range p.models {
			m.Enabled = enabled
		}
	}
	return nil
}

// modelKey is provider|apiName, suffixed with the options that change the
// request so two catalog entries for the same API model stay distinct.
func modelKey(m *models.ModelChoice) string {
	key := m.Provider + "|" + m.APIName
	var attrs []string
	if m.ReasoningEffort != "" {
		attrs = append(attrs, "reasoning="+m.ReasoningEffort)
	}
	if m.Thinking {
		attrs = append(attrs, "thinking=true")
	}
	if len(attrs) > 0 {
		key += "|" + strings.Join(attrs, ",")
	}
	return key
}
