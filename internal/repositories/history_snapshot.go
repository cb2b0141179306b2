package repositories

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"prompter/internal/models"
)

const historySnapshotVersion = 2

// HistorySnapshot is the flat-file form of the history table. Version 1 files
// written by older releases are a bare JSON array of records.
type HistorySnapshot struct {
	Version    int                     `json:"version"`
	ExportedAt time.Time               `json:"exportedAt"`
	Records    []*models.HistoryRecord `json:"records"`
}

// EncodeSnapshot writes records as an indented snapshot document.
func EncodeSnapshot(w io.Writer, records []*models.HistoryRecord, now time.Time) error {
	if records == nil {
		records = []*models.HistoryRecord{}
	}
	snap := HistorySnapshot{
		Version:    historySnapshotVersion,
		ExportedAt: now.UTC(),
		Records:    records,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding history snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads either snapshot shape. Legacy fields are migrated by
// models.HistoryRecord's JSON decoding.
func DecodeSnapshot(r io.Reader) ([]*models.HistoryRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading history snapshot: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []*models.HistoryRecord{}, nil
	}

	if trimmed[0] == '[' {
		var records []*models.HistoryRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decoding legacy history list: %w", err)
		}
		return records, nil
	}

	var snap HistorySnapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, fmt.Errorf("decoding history snapshot: %w", err)
	}
	if snap.Version > historySnapshotVersion {
		return nil, fmt.Errorf("unsupported history snapshot version %d", snap.Version)
	}
	if snap.Records == nil {
		snap.Records = []*models.HistoryRecord{}
	}
	return snap.Records, nil
}

// WriteSnapshotFile writes a snapshot using a temp file + rename so readers
// never see a partial file.
func WriteSnapshotFile(path string, records []*models.HistoryRecord, now time.Time) error {
	if path == "" {
		return errors.New("snapshot path is empty")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prompter-history-*.json")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := EncodeSnapshot(tmp, records, now); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// ReadSnapshotFile loads a snapshot file. A missing file yields no records.
func ReadSnapshotFile(path string) ([]*models.HistoryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.HistoryRecord{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return DecodeSnapshot(f)
}
