package repositories

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/yargevad/filepathx"

	"prompter/internal/models"
)

// LegacyHistoryPattern matches the history files written by the flat-file
// releases.
const LegacyHistoryPattern = "prompt_history*.json"

// ImportResult summarises a legacy import run.
type ImportResult struct {
	Files    []string `json:"files"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
}

// LegacyImporter copies history from old flat files into the store.
type LegacyImporter struct {
	repo HistoryRepository
}

func NewLegacyImporter(repo HistoryRepository) *LegacyImporter {
	return &LegacyImporter{repo: repo}
}

// Discover returns every legacy history file below root, sorted.
func (i *LegacyImporter) Discover(root string) ([]string, error) {
	if root == "" {
		return nil, errors.New("legacy history root is required")
	}
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range []string{
		filepath.Join(root, LegacyHistoryPattern),
		filepath.Join(root, "**", LegacyHistoryPattern),
	} {
		matches, err := filepathx.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("globbing %s: %w", pattern, err)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Import loads every legacy file below root. Records whose id is already
// stored are skipped, so running it twice is harmless.
func (i *LegacyImporter) Import(ctx context.Context, root string) (*ImportResult, error) {
	files, err := i.Discover(root)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{Files: files}
	for _, file := range files {
		records, err := ReadSnapshotFile(file)
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", file, err)
		}
		if err := i.importRecords(ctx, records, result); err != nil {
			return result, fmt.Errorf("importing %s: %w", file, err)
		}
	}
	return result, nil
}

// ImportRecords stores already decoded records, skipping known ids.
func (i *LegacyImporter) ImportRecords(ctx context.Context, records []*models.HistoryRecord) (*ImportResult, error) {
	result := &ImportResult{}
	err := i.importRecords(ctx, records, result)
	return result, err
}

func (i *LegacyImporter) importRecords(ctx context.Context, records []*models.HistoryRecord, result *ImportResult) error {
	for _, rec := range records {
		imported, err := i.importRecord(ctx, rec)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if imported {
			result.Imported++
		} else {
			result.Skipped++
		}
	}
	return nil
}

func (i *LegacyImporter) importRecord(ctx context.Context, rec *models.HistoryRecord) (bool, error) {
	if rec == nil || rec.ID == "" {
		return false, nil
	}
	if _, err := i.repo.Get(ctx, rec.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrHistoryRecordNotFound) {
		return false, err
	}

	rec.PromptText = models.NormalizePromptText(rec.PromptText)
	// No process survives a restart, let alone a release upgrade.
	if rec.Status == models.StatusGenerating {
		rec.Status = models.StatusPending
	}
	if err := i.repo.Insert(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}
