package mocks

import (
	"context"

	"prompter/internal/models"
	"prompter/internal/repositories"
)

type HistoryRepositoryMock struct {
	ListFunc                 func(ctx context.Context, opts repositories.ListOptions) ([]*models.HistoryRecord, error)
	ListByStatusFunc         func(ctx context.Context, statuses ...models.GenerationStatus) ([]*models.HistoryRecord, error)
	GetFunc                  func(ctx context.Context, id string) (*models.HistoryRecord, error)
	InsertFunc               func(ctx context.Context, record *models.HistoryRecord) error
	UpdateFunc               func(ctx context.Context, record *models.HistoryRecord) error
	DeleteFunc               func(ctx context.Context, id string) error
	FindByPromptTextFunc     func(ctx context.Context, normalized string) (*models.HistoryRecord, error)
	MigrateLegacyOutputsFunc func(ctx context.Context) (int, error)
}

func (m *HistoryRepositoryMock) List(ctx context.Context, opts repositories.ListOptions) ([]*models.HistoryRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, opts)
	}
	return []*models.HistoryRecord{}, nil
}

func (m *HistoryRepositoryMock) ListByStatus(ctx context.Context, statuses ...models.GenerationStatus) ([]*models.HistoryRecord, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, statuses...)
	}
	return []*models.HistoryRecord{}, nil
}

func (m *HistoryRepositoryMock) Get(ctx context.Context, id string) (*models.HistoryRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, repositories.ErrHistoryRecordNotFound
}

func (m *HistoryRepositoryMock) Insert(ctx context.Context, record *models.HistoryRecord) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, record)
	}
	return nil
}

func (m *HistoryRepositoryMock) Update(ctx context.Context, record *models.HistoryRecord) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, record)
	}
	return nil
}

func (m *HistoryRepositoryMock) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *HistoryRepositoryMock) FindByPromptText(ctx context.Context, normalized string) (*models.HistoryRecord, error) {
	if m.FindByPromptTextFunc != nil {
		return m.FindByPromptTextFunc(ctx, normalized)
	}
	return nil, nil
}

func (m *HistoryRepositoryMock) MigrateLegacyOutputs(ctx context.Context) (int, error) {
	if m.MigrateLegacyOutputsFunc != nil {
		return m.MigrateLegacyOutputsFunc(ctx)
	}
	return 0, nil
}
