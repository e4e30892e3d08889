package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mohanatextiles/storefront/internal/model"
)

// SettingsRepo implements SettingsRepository using PostgreSQL.
type SettingsRepo struct{ db *DB }

// NewSettingsRepo constructs a settings repository.
func NewSettingsRepo(db *DB) *SettingsRepo { return &SettingsRepo{db: db} }

const (
	settingsEnsure = `
INSERT INTO site_settings (id, homepage_enabled, products_page_enabled, site_name, site_description, drive_folder_id)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`
	settingsSelect = `
SELECT homepage_enabled, products_page_enabled, site_name, site_description, drive_folder_id
FROM site_settings WHERE id=$1`
	settingsUpdate = `
UPDATE site_settings
SET homepage_enabled=$2, products_page_enabled=$3, site_name=$4, site_description=$5, drive_folder_id=$6
WHERE id=$1`
)

func ensureArgs(d model.SiteSettings) []any {
	return []any{model.SiteSettingsID, d.HomepageEnabled, d.ProductsPageEnabled, d.SiteName, d.SiteDescription, d.DriveFolderID}
}

func scanSettings(row rowScanner) (model.SiteSettings, error) {
	var s model.SiteSettings
	err := row.Scan(&s.HomepageEnabled, &s.ProductsPageEnabled, &s.SiteName, &s.SiteDescription, &s.DriveFolderID)
	return s, err
}

// GetOrCreate inserts the defaults if the row is absent, then reads it.
func (r *SettingsRepo) GetOrCreate(ctx context.Context, defaults model.SiteSettings) (model.SiteSettings, error) {
	if _, err := r.db.Pool.Exec(ctx, settingsEnsure, ensureArgs(defaults)...); err != nil {
		return model.SiteSettings{}, err
	}
	return scanSettings(r.db.Pool.QueryRow(ctx, settingsSelect, model.SiteSettingsID))
}

// Update applies patch to the locked row in a single transaction.
func (r *SettingsRepo) Update(ctx context.Context, defaults model.SiteSettings, patch model.SettingsPatch) (model.SiteSettings, error) {
	var out model.SiteSettings
	err := r.db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, settingsEnsure, ensureArgs(defaults)...); err != nil {
			return err
		}
		s, err := scanSettings(tx.QueryRow(ctx, settingsSelect+` FOR UPDATE`, model.SiteSettingsID))
		if err != nil {
			return err
		}
		patch.Apply(&s)
		if _, err := tx.Exec(ctx, settingsUpdate,
			model.SiteSettingsID, s.HomepageEnabled, s.ProductsPageEnabled, s.SiteName, s.SiteDescription, s.DriveFolderID,
		); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}
