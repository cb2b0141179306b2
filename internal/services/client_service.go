package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"prompter/internal/llm/client"
	"prompter/internal/models"
)

// ClientOptions are process-level overrides for building generators.
type ClientOptions struct {
	// Backend, when set, wins over the stored settings.
	Backend  string
	CLIPath  string
	CLIModel string
	Timeout  time.Duration
}

// ClientService builds the Generator for each attempt from the current
// settings, the model catalog and the stored API keys.
type ClientService struct {
	context        context.Context
	keyringService *KeyringService
	catalog        ModelCatalogService
	settings       AppSettingsService
	opts           ClientOptions
}

func NewClientService(keyringService *KeyringService, catalog ModelCatalogService, settings AppSettingsService, opts ClientOptions) *ClientService {
	if opts.Timeout <= 0 {
		opts.Timeout = client.DefaultTimeout
	}
	return &ClientService{
		context:        context.Background(),
		keyringService: keyringService,
		catalog:        catalog,
		settings:       settings,
		opts:           opts,
	}
}

func (s *ClientService) Startup(ctx context.Context) error {
	s.context = ctx
	if s.settings == nil {
		return fmt.Errorf("app settings service not configured")
	}
	if s.catalog == nil {
		return fmt.Errorf("model catalog service not configured")
	}
	return nil
}

// Resolve implements GeneratorResolver. Configuration problems come back as
// not_found generation errors so the record shows a readable reason.
func (s *ClientService) Resolve(ctx context.Context) (client.Generator, string, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return nil, "", err
	}

	backend := strings.TrimSpace(s.opts.Backend)
	if backend == "" {
		backend = settings.Backend
	}

	switch backend {
	case models.BackendCLI:
		return client.NewCLIClient(client.CLIOptions{
			Path:    s.opts.CLIPath,
			Model:   s.opts.CLIModel,
			Timeout: s.opts.Timeout,
		}), "cli", nil
	case models.BackendAPI, "":
		model, err := s.catalog.Choose(settings.DefaultModelKey)
		if err != nil {
			return nil, "", err
		}
		llmClient, err := s.instantiateLLMClient(ctx, model)
		if err != nil {
			return nil, "", err
		}
		return llmClient, model.Key, nil
	default:
		return nil, "", client.NotConfigured("Unsupported backend "+backend+".",
			fmt.Errorf("unsupported backend: %s", backend))
	}
}

func (s *ClientService) instantiateLLMClient(ctx context.Context, model *models.ModelChoice) (*client.LLMClient, error) {
	if s.keyringService == nil {
		return nil, fmt.Errorf("keyring service not configured")
	}

	apiKey, err := s.keyringService.GetApiKey(model.Provider)
	switch {
	case errors.Is(err, ErrAPIKeyNotFound):
		return nil, client.MissingCredentials(model.Provider, err)
	case err != nil:
		return nil, fmt.Errorf("failed to get API key for %s: %w", model.Provider, err)
	case strings.TrimSpace(apiKey) == "":
		return nil, client.MissingCredentials(model.Provider, nil)
	}

	var (
		llmClient *client.LLMClient
		createErr error
	)
	switch model.Provider {
	case "anthropic":
		llmClient, createErr = client.NewClaudeClient(ctx, apiKey, client.ClaudeModelOptions{
			Model:    model.APIName,
			Thinking: model.Thinking,
			Timeout:  s.opts.Timeout,
		})
	case "openai":
		llmClient, createErr = client.NewOpenAIClient(ctx, apiKey, client.OpenAIModelOptions{
			Model:           model.APIName,
			ReasoningEffort: model.ReasoningEffort,
			Timeout:         s.opts.Timeout,
		})
	case "gemini":
		llmClient, createErr = client.NewGeminiClient(ctx, apiKey, client.GeminiModelOptions{
			Model:    model.APIName,
			Thinking: model.Thinking,
			Timeout:  s.opts.Timeout,
		})
	default:
		return nil, client.NotConfigured("Provider "+model.Provider+" is not supported.",
			fmt.Errorf("unsupported provider: %s", model.Provider))
	}

	if createErr != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", model.Provider, createErr)
	}
	return llmClient, nil
}

// ProvidersWithKeys lists the first enabled model of every provider that has
// an API key stored, so the UI can offer only usable choices.
func (s *ClientService) ProvidersWithKeys() ([]models.ModelChoice, error) {
	if s.keyringService == nil {
		return nil, fmt.Errorf("keyring service not configured")
	}
	keys, err := s.keyringService.ListApiKeys()
	if err != nil {
		return nil, err
	}
	var out []models.ModelChoice
	for _, entry := range keys {
		if model := s.catalog.FirstEnabled(entry["provider"]); model != nil {
			out = append(out, *model)
		}
	}
	return out, nil
}
