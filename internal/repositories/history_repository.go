package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prompter/internal/models"
)

// ErrHistoryRecordNotFound is returned when no record matches the id.
var ErrHistoryRecordNotFound = errors.New("history record not found")

// ListOptions controls History List queries.
type ListOptions struct {
	IncludeArchived bool
	Limit           int
	Offset          int
}

type HistoryRepository interface {
	List(ctx context.Context, opts ListOptions) ([]*models.HistoryRecord, error)
	ListByStatus(ctx context.Context, statuses ...models.GenerationStatus) ([]*models.HistoryRecord, error)
	Get(ctx context.Context, id string) (*models.HistoryRecord, error)
	Insert(ctx context.Context, record *models.HistoryRecord) error
	Update(ctx context.Context, record *models.HistoryRecord) error
	Delete(ctx context.Context, id string) error
	FindByPromptText(ctx context.Context, normalized string) (*models.HistoryRecord, error)
	MigrateLegacyOutputs(ctx context.Context) (int, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func preloadVersions(db *gorm.DB) *gorm.DB {
	return db.Preload("Versions", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("generation_versions.position ASC")
	})
}

func (r *historyRepository) List(ctx context.Context, opts ListOptions) ([]*models.HistoryRecord, error) {
	var records []*models.HistoryRecord
	q := preloadVersions(r.db.WithContext(ctx)).Order("created_at DESC, id DESC")
	if !opts.IncludeArchived {
		q = q.Where("is_archived = ?", false)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return records, nil
}

func (r *historyRepository) ListByStatus(ctx context.Context, statuses ...models.GenerationStatus) ([]*models.HistoryRecord, error) {
	if len(statuses) == 0 {
		return []*models.HistoryRecord{}, nil
	}
	var records []*models.HistoryRecord
	err := preloadVersions(r.db.WithContext(ctx)).
		Where("status IN ?", statuses).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("listing history by status: %w", err)
	}
	return records, nil
}

func (r *historyRepository) Get(ctx context.Context, id string) (*models.HistoryRecord, error) {
	var rec models.HistoryRecord
	if err := preloadVersions(r.db.WithContext(ctx)).Take(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("history record %s: %w", id, ErrHistoryRecordNotFound)
		}
		return nil, fmt.Errorf("getting history record %s: %w", id, err)
	}
	return &rec, nil
}

func (r *historyRepository) Insert(ctx context.Context, record *models.HistoryRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("history record id is required")
	}
	for i := range record.Versions {
		record.Versions[i].RecordID = record.ID
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("inserting history record %s: %w", record.ID, err)
	}
	return nil
}

// Update replaces the record's columns. Versions are only ever added: rows
// that already exist are left untouched.
func (r *historyRepository) Update(ctx context.Context, record *models.HistoryRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("history record id is required")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(record).Error; err != nil {
			return err
		}
		if len(record.Versions) == 0 {
			return nil
		}
		versions := make([]models.GenerationVersion, len(record.Versions))
		copy(versions, record.Versions)
		for i := range versions {
			versions[i].RecordID = record.ID
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&versions).Error
	})
	if err != nil {
		return fmt.Errorf("updating history record %s: %w", record.ID, err)
	}
	return nil
}

func (r *historyRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("record_id = ?", id).Delete(&models.GenerationVersion{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.HistoryRecord{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrHistoryRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting history record %s: %w", id, err)
	}
	return nil
}

// FindByPromptText returns the newest non-archived record whose prompt equals
// normalized exactly, or nil when there is none.
func (r *historyRepository) FindByPromptText(ctx context.Context, normalized string) (*models.HistoryRecord, error) {
	normalized = models.NormalizePromptText(normalized)
	if normalized == "" {
		return nil, nil
	}
	var rec models.HistoryRecord
	err := preloadVersions(r.db.WithContext(ctx)).
		Where("prompt_text = ? AND is_archived = ?", normalized, false).
		Order("created_at DESC").
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding history by prompt: %w", err)
	}
	return &rec, nil
}

// MigrateLegacyOutputs converts rows written with the deprecated single
// output column into version rows.
func (r *historyRepository) MigrateLegacyOutputs(ctx context.Context) (int, error) {
	var legacy []*models.HistoryRecord
	err := preloadVersions(r.db.WithContext(ctx)).
		Where("output IS NOT NULL AND output <> ''").
		Find(&legacy).Error
	if err != nil {
		return 0, fmt.Errorf("loading legacy history rows: %w", err)
	}

	migrated := 0
	for _, rec := range legacy {
		if !rec.MigrateLegacyOutput() {
			continue
		}
		if err := r.Update(ctx, rec); err != nil {
			return migrated, err
		}
		migrated++
	}
	return migrated, nil
}
