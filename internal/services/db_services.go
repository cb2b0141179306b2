package services

import (
	"prompter/internal/repositories"

	"gorm.io/gorm"
)

// DbServices aggregates the services backed only by the database.
type DbServices struct {
	Templates    TemplateService
	AppSettings  AppSettingsService
	ModelCatalog ModelCatalogService
	HistoryRepo  repositories.HistoryRepository
}

// NewDbServices constructs the service container using repositories backed by db.
func NewDbServices(db *gorm.DB) *DbServices {
	return &DbServices{
		Templates:    NewTemplateService(repositories.NewTemplateRepository(db)),
		AppSettings:  NewAppSettingsService(repositories.NewAppSettingsRepository(db)),
		ModelCatalog: NewModelCatalogService(repositories.NewModelSettingRepository(db)),
		HistoryRepo:  repositories.NewHistoryRepository(db),
	}
}
