package service

import (
	"context"

	"github.com/mohanatextiles/storefront/internal/model"
	"github.com/mohanatextiles/storefront/internal/repository"
)

// SettingsService reads and edits the singleton site settings.
type SettingsService interface {
	Get(ctx context.Context) (model.SiteSettings, error)
	Update(ctx context.Context, patch model.SettingsPatch) (model.SiteSettings, error)
}

type SettingsServiceImpl struct {
	repo     repository.SettingsRepository
	defaults model.SiteSettings
}

// NewSettingsService constructs SettingsService. defaults seed the row on first access.
func NewSettingsService(repo repository.SettingsRepository, defaults model.SiteSettings) *SettingsServiceImpl {
	return &SettingsServiceImpl{repo: repo, defaults: defaults}
}

// Get returns the settings, creating the row if needed.
func (s *SettingsServiceImpl) Get(ctx context.Context) (model.SiteSettings, error) {
	return s.repo.GetOrCreate(ctx, s.defaults)
}

// Update applies only the fields present in patch.
func (s *SettingsServiceImpl) Update(ctx context.Context, patch model.SettingsPatch) (model.SiteSettings, error) {
	return s.repo.Update(ctx, s.defaults, patch)
}
