package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"prompter/internal/database"
	"prompter/internal/models"
	"prompter/internal/utils"
)

// Config holds process-level settings read from the environment. User
// preferences that the UI can change live in models.AppSettings instead.
type Config struct {
	DBPath   string `env:"PROMPTER_DB_PATH"`
	LogLevel string `env:"PROMPTER_LOG_LEVEL" envDefault:"info"`

	// Backend overrides the stored backend choice when set ("api" or "cli").
	Backend           string        `env:"PROMPTER_BACKEND"`
	CLIPath           string        `env:"PROMPTER_CLI_PATH" envDefault:"claude"`
	GenerationTimeout time.Duration `env:"PROMPTER_GENERATION_TIMEOUT" envDefault:"90s"`
	Streaming         bool          `env:"PROMPTER_STREAMING" envDefault:"true"`

	LegacyHistoryDir string `env:"PROMPTER_LEGACY_HISTORY_DIR"`
	KeyringBackend   string `env:"PROMPTER_KEYRING_BACKEND"`
	KeyringFileDir   string `env:"PROMPTER_KEYRING_FILE_DIR"`
}

// Load reads .env from the project root and from the per-user config
// directory when present, then the environment.
func Load() (Config, error) {
	if err := utils.LoadEnv(filepath.Join(database.ConfigDir(), ".env")); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(env.Options{})
}

// Parse parses the configuration with explicit env options.
func Parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.TrimSpace(c.Backend) {
	case "", models.BackendAPI, models.BackendCLI:
	default:
		return fmt.Errorf("config: PROMPTER_BACKEND must be %q or %q, got %q", models.BackendAPI, models.BackendCLI, c.Backend)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("config: PROMPTER_GENERATION_TIMEOUT must be positive, got %s", c.GenerationTimeout)
	}
	return nil
}
