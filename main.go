package main

import (
	"context"
	"embed"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	gormlogger "gorm.io/gorm/logger"

	"prompter/internal/config"
	"prompter/internal/database"
	"prompter/internal/logging"
	"prompter/internal/services"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading configuration:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)
	logging.SetDefault(logger)

	db, err := database.Init(database.Config{
		Path:     cfg.DBPath,
		LogLevel: gormlogger.Warn,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	ring, err := services.OpenKeyring(services.KeyringOptions{
		Backend: cfg.KeyringBackend,
		FileDir: cfg.KeyringFileDir,
	})
	if err != nil {
		logger.Error("failed to open keyring", "error", err)
		os.Exit(1)
	}

	legacyDir := cfg.LegacyHistoryDir
	if legacyDir == "" {
		legacyDir = database.ConfigDir()
	}

	//Create each service
	svc := services.NewServices(db, ring, services.Options{
		Client: services.ClientOptions{
			Backend: cfg.Backend,
			CLIPath: cfg.CLIPath,
			Timeout: cfg.GenerationTimeout,
		},
		Streaming: cfg.Streaming,
		LegacyDir: legacyDir,
		Logger:    logger,
	})
	app := NewApp(svc, logger, func() error { return database.Close(db) })

	// Create application with options
	err = wails.Run(&options.App{
		Title:     "Prompter",
		Width:     420,
		Height:    640,
		MinWidth:  360,
		MinHeight: 480,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: false,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,
			ProgramName:         "Prompter",
		},
		Mac: &mac.Options{
			About: &mac.AboutInfo{
				Title:   "Prompter",
				Message: "Turn rough ideas into better prompts.",
			},
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup: func(ctx context.Context) {
			app.startup(ctx)
		},
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
			svc.AppSettings,
			svc.ModelCatalog,
			svc.Templates,
			svc.History,
			svc.Clients,
			svc.Keyring,
		},
	})

	if err != nil {
		logger.Error("wails run failed", "error", err)
	}
}
