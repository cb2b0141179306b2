package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prompter/internal/models"
	"prompter/internal/repositories"
	"prompter/internal/utils"
)

// HistoryService is the history surface exposed to the UI and the CLI. Reads
// and edits go through the generation service, which owns the live state;
// imports go to the store and are then picked up with Reload.
type HistoryService interface {
	Startup(ctx context.Context)
	List(includeArchived bool) []*models.HistoryRecord
	Get(id string) (*models.HistoryRecord, error)
	Delete(id string) error
	SetArchived(id string, archived bool) error
	SetFavorite(id string, favorite bool) error
	SelectVersion(id string, index int) error
	ExportSnapshot(path string) (int, error)
	ImportSnapshot(path string) (*repositories.ImportResult, error)
	ImportLegacy(dir string) (*repositories.ImportResult, error)
}

type historyService struct {
	generations GenerationService
	importer    *repositories.LegacyImporter
	legacyDir   string
	ctx         context.Context
	now         func() time.Time
}

// NewHistoryService wires history access. legacyDir is searched by
// ImportLegacy when no directory is given.
func NewHistoryService(generations GenerationService, repo repositories.HistoryRepository, legacyDir string) HistoryService {
	return &historyService{
		generations: generations,
		importer:    repositories.NewLegacyImporter(repo),
		legacyDir:   legacyDir,
		ctx:         context.Background(),
		now:         time.Now,
	}
}

func (s *historyService) Startup(ctx context.Context) {
	s.ctx = ctx
}

func (s *historyService) List(includeArchived bool) []*models.HistoryRecord {
	return s.generations.List(includeArchived)
}

func (s *historyService) Get(id string) (*models.HistoryRecord, error) {
	return s.generations.Get(id)
}

func (s *historyService) Delete(id string) error {
	return s.generations.Delete(id)
}

func (s *historyService) SetArchived(id string, archived bool) error {
	return s.generations.SetArchived(id, archived)
}

func (s *historyService) SetFavorite(id string, favorite bool) error {
	return s.generations.SetFavorite(id, favorite)
}

func (s *historyService) SelectVersion(id string, index int) error {
	return s.generations.SelectVersion(id, index)
}

// ExportSnapshot writes every record, archived included, to path.
func (s *historyService) ExportSnapshot(path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, fmt.Errorf("service: export history: path is required")
	}
	records := s.generations.List(true)
	if err := repositories.WriteSnapshotFile(path, records, s.now()); err != nil {
		return 0, fmt.Errorf("service: export history: %w", err)
	}
	return len(records), nil
}

func (s *historyService) ImportSnapshot(path string) (*repositories.ImportResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("service: import history: path is required")
	}
	records, err := repositories.ReadSnapshotFile(path)
	if err != nil {
		return nil, fmt.Errorf("service: import history: %w", err)
	}
	result, err := s.importer.ImportRecords(s.ctx, records)
	if err != nil {
		return result, fmt.Errorf("service: import history: %w", err)
	}
	result.Files = []string{path}
	if _, err := s.generations.Reload(); err != nil {
		return result, err
	}
	return result, nil
}

func (s *historyService) ImportLegacy(dir string) (*repositories.ImportResult, error) {
	if strings.TrimSpace(dir) == "" {
		dir = s.legacyDir
	}
	if !utils.DirectoryExists(dir) {
		return nil, fmt.Errorf("service: import legacy history: %q is not a directory", dir)
	}
	result, err := s.importer.Import(s.ctx, dir)
	if err != nil {
		return result, fmt.Errorf("service: import legacy history: %w", err)
	}
	if _, err := s.generations.Reload(); err != nil {
		return result, err
	}
	return result, nil
}
