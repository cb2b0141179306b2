package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	gormlogger "gorm.io/gorm/logger"

	appconfig "prompter/internal/config"
	"prompter/internal/database"
	"prompter/internal/logging"
	"prompter/internal/services"
)

// config holds flag values that override the environment configuration.
type config struct {
	dbPath   string
	backend  string
	logLevel string
}

func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db",
			Usage:       "Path to the history database",
			Destination: &cfg.dbPath,
		},
		&cli.StringFlag{
			Name:        "backend",
			Aliases:     []string{"b"},
			Usage:       "Generation backend: api or cli",
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "warn",
			Destination: &cfg.logLevel,
		},
	}
}

// session is an opened service container plus the resources behind it.
type session struct {
	*services.Services
	close func()
}

func (cfg *config) open(ctx context.Context) (*session, error) {
	env, err := appconfig.Load()
	if err != nil {
		return nil, err
	}
	if cfg.dbPath != "" {
		env.DBPath = cfg.dbPath
	}
	if cfg.backend != "" {
		env.Backend = cfg.backend
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)

	db, err := database.Init(database.Config{Path: env.DBPath, LogLevel: gormlogger.Silent, Logger: logger})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", env.DBPath))
	}

	ring, err := services.OpenKeyring(services.KeyringOptions{
		Backend: env.KeyringBackend,
		FileDir: env.KeyringFileDir,
	})
	if err != nil {
		_ = database.Close(db)
		return nil, goerr.Wrap(err, "failed to open keyring")
	}

	legacyDir := env.LegacyHistoryDir
	if legacyDir == "" {
		legacyDir = database.ConfigDir()
	}

	svc := services.NewServices(db, ring, services.Options{
		Client: services.ClientOptions{
			Backend: env.Backend,
			CLIPath: env.CLIPath,
			Timeout: env.GenerationTimeout,
		},
		Streaming: env.Streaming,
		LegacyDir: legacyDir,
		Logger:    logger,
	})
	if err := svc.Startup(ctx); err != nil {
		_ = database.Close(db)
		return nil, goerr.Wrap(err, "failed to start services")
	}

	return &session{
		Services: svc,
		close: func() {
			svc.Shutdown()
			_ = database.Close(db)
		},
	}, nil
}
