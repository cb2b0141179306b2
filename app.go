package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"prompter/internal/events"
	"prompter/internal/models"
	"prompter/internal/repositories"
	"prompter/internal/services"
)

// App struct
type App struct {
	ctx      context.Context
	services *services.Services
	logger   *slog.Logger
	dbClose  func() error
}

// NewApp creates a new App application struct
func NewApp(svc *services.Services, logger *slog.Logger, dbClose func() error) *App {
	return &App{
		ctx:      context.Background(),
		services: svc,
		logger:   logger,
		dbClose:  dbClose,
	}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	events.EnableRuntimeEmitter()

	if err := a.services.Startup(ctx); err != nil {
		a.logger.Error("service startup failed", "error", err)
		runtime.LogError(ctx, fmt.Sprintf("failed to start services: %v", err))
		return
	}
	runtime.LogInfo(ctx, "prompter started")
}

// shutdown is called when the app is closing. Clean up resources here.
func (a *App) shutdown(ctx context.Context) {
	a.services.Shutdown()
	events.SetCustomEmitter(nil)

	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			runtime.LogError(ctx, fmt.Sprintf("failed to close database: %v", err))
		} else {
			runtime.LogInfo(ctx, "database closed")
		}
		a.dbClose = nil
	}
}

// SubmitPrompt starts a generation for text with the configured system prompt
// and returns the record id right away.
func (a *App) SubmitPrompt(text string) (string, error) {
	system, err := a.services.AppSettings.ResolveSystemPrompt()
	if err != nil {
		return "", err
	}
	id, err := a.services.Generations.Submit(text, system)
	if err != nil && !errors.Is(err, services.ErrGenerationInProgress) {
		runtime.LogError(a.ctx, fmt.Sprintf("failed to submit prompt: %v", err))
	}
	return id, err
}

// SubmitWithTemplate renders the template around text before submitting.
func (a *App) SubmitWithTemplate(templateID uint, text string) (string, error) {
	system, err := a.services.AppSettings.ResolveSystemPrompt()
	if err != nil {
		return "", err
	}
	return a.services.Generations.SubmitWithTemplate(templateID, text, system)
}

// CreateDraft adds an empty record the user can type into.
func (a *App) CreateDraft() (string, error) {
	return a.services.Generations.CreateDraft()
}

// SubmitDraft fills in a draft's prompt and starts its first generation.
func (a *App) SubmitDraft(id, text string) error {
	system, err := a.services.AppSettings.ResolveSystemPrompt()
	if err != nil {
		return err
	}
	return a.services.Generations.SubmitDraft(id, text, system)
}

func (a *App) CancelGeneration(id string) bool {
	return a.services.Generations.Cancel(id)
}

func (a *App) RetryGeneration(id string) error {
	return a.services.Generations.Retry(id)
}

// ActiveGenerations lists the ids that currently have a request in flight.
func (a *App) ActiveGenerations() []string {
	return a.services.Generations.ActiveIDs()
}

// LivePreview returns the partial output streamed so far for id.
func (a *App) LivePreview(id string) string {
	preview, _ := a.services.Generations.LivePreview(id)
	return preview
}

// GetAppSettings returns the current application settings
func (a *App) GetAppSettings() (*models.AppSettings, error) {
	return a.services.AppSettings.Get()
}

// ExportHistory asks for a destination and writes a history snapshot there.
// It returns 0 when the dialog is dismissed.
func (a *App) ExportHistory() (int, error) {
	path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Export History",
		DefaultFilename: "prompter-history.json",
		Filters:         []runtime.FileFilter{{DisplayName: "JSON", Pattern: "*.json"}},
	})
	if err != nil || path == "" {
		return 0, err
	}
	n, err := a.services.History.ExportSnapshot(path)
	if err != nil {
		runtime.LogError(a.ctx, fmt.Sprintf("failed to export history: %v", err))
		return 0, err
	}
	runtime.LogInfo(a.ctx, fmt.Sprintf("exported %d history records to %s", n, path))
	return n, nil
}

// ImportHistory loads a snapshot chosen by the user. Known records are skipped.
func (a *App) ImportHistory() (*repositories.ImportResult, error) {
	path, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title:   "Import History",
		Filters: []runtime.FileFilter{{DisplayName: "JSON", Pattern: "*.json"}},
	})
	if err != nil || path == "" {
		return nil, err
	}
	result, err := a.services.History.ImportSnapshot(path)
	if err != nil {
		runtime.LogError(a.ctx, fmt.Sprintf("failed to import history: %v", err))
		return result, err
	}
	runtime.LogInfo(a.ctx, fmt.Sprintf("imported %d history records (%d skipped)", result.Imported, result.Skipped))
	return result, nil
}

// ImportLegacyHistory migrates flat-file history from a directory the user
// picks, or from the configured legacy directory when the dialog is dismissed.
func (a *App) ImportLegacyHistory() (*repositories.ImportResult, error) {
	dir, err := runtime.OpenDirectoryDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select Legacy History Directory",
	})
	if err != nil {
		return nil, err
	}
	result, err := a.services.History.ImportLegacy(dir)
	if err != nil {
		runtime.LogError(a.ctx, fmt.Sprintf("failed to import legacy history: %v", err))
		return result, err
	}
	runtime.LogInfo(a.ctx, fmt.Sprintf("imported %d legacy records from %d files", result.Imported, len(result.Files)))
	return result, nil
}

// GetOS reports the platform so the frontend can adjust keyboard hints.
func (a *App) GetOS() string {
	return services.GetOS()
}
