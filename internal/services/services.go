package services

import (
	"context"
	"log/slog"

	"github.com/99designs/keyring"
	"gorm.io/gorm"

	"prompter/internal/logging"
)

// Options configures the parts of the container that do not come from the
// database.
type Options struct {
	Client    ClientOptions
	Streaming bool
	LegacyDir string
	Logger    *slog.Logger
	// Resolver replaces the settings-driven ClientService as the source of
	// generators.
	Resolver  GeneratorResolver
	GenOpts   []GenerationOption
}

// Services is the full container used by the desktop app and the CLI.
type Services struct {
	*DbServices
	Keyring     *KeyringService
	Clients     *ClientService
	Generations GenerationService
	History     HistoryService
}

// NewServices constructs every service. ring holds the provider API keys.
func NewServices(db *gorm.DB, ring keyring.Keyring, opts Options) *Services {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	dbServices := NewDbServices(db)
	keyringService := NewKeyringService(ring)
	clients := NewClientService(keyringService, dbServices.ModelCatalog, dbServices.AppSettings, opts.Client)

	genOpts := []GenerationOption{
		WithGenerationLogger(logger.With("component", "generation")),
		WithStreaming(opts.Streaming),
		WithTemplates(dbServices.Templates),
	}
	genOpts = append(genOpts, opts.GenOpts...)
	var resolver GeneratorResolver = clients
	if opts.Resolver != nil {
		resolver = opts.Resolver
	}
	generations := NewGenerationService(dbServices.HistoryRepo, resolver, genOpts...)

	return &Services{
		DbServices:  dbServices,
		Keyring:     keyringService,
		Clients:     clients,
		Generations: generations,
		History:     NewHistoryService(generations, dbServices.HistoryRepo, opts.LegacyDir),
	}
}

// Startup runs each service's startup in dependency order.
func (s *Services) Startup(ctx context.Context) error {
	s.AppSettings.Startup(ctx)
	if err := s.Templates.Startup(ctx); err != nil {
		return err
	}
	if err := s.ModelCatalog.Startup(ctx); err != nil {
		return err
	}
	if err := s.Clients.Startup(ctx); err != nil {
		return err
	}
	if err := s.Generations.Startup(ctx); err != nil {
		return err
	}
	s.History.Startup(ctx)
	return nil
}

// Shutdown stops in-flight generations.
func (s *Services) Shutdown() {
	s.Generations.Shutdown()
}
