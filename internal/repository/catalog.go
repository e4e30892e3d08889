package repository

import (
	"context"

	"github.com/mohanatextiles/storefront/internal/model"
)

// ProductMutator edits a locked product row in place.
type ProductMutator func(p *model.Product) error

// ProductRepository provides catalog storage for products.
type ProductRepository interface {
	// List returns products newest first. enabledOnly hides disabled rows;
	// a non-empty category restricts to an exact label match.
	List(ctx context.Context, enabledOnly bool, category string) ([]model.Product, error)
	// Get loads a single product.
	Get(ctx context.Context, id string) (*model.Product, error)
	// Create inserts p and fills its timestamps.
	Create(ctx context.Context, p *model.Product) error
	// Update locks the row, applies mutate and writes the result in one transaction.
	Update(ctx context.Context, id string, mutate ProductMutator) (*model.Product, error)
	// SetEnabled sets the flag and bumps updated_at; false when no row matched.
	SetEnabled(ctx context.Context, id string, enabled bool) (bool, error)
	// Delete removes the row; false when no row matched.
	Delete(ctx context.Context, id string) (bool, error)
	// Stats counts products and lists distinct category labels.
	Stats(ctx context.Context) (model.ProductStats, error)
}

// CategoryRepository provides storage for categories.
type CategoryRepository interface {
	// ListEnabled returns enabled categories ordered by name.
	ListEnabled(ctx context.Context) ([]model.Category, error)
	// ListAll returns every category newest first.
	ListAll(ctx context.Context) ([]model.Category, error)
	// Get loads a category by ID.
	Get(ctx context.Context, id string) (*model.Category, error)
	// GetBySlug loads a category by slug.
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	// CreateBatch inserts all categories in one transaction.
	CreateBatch(ctx context.Context, cs []*model.Category) error
	// Update writes name, slug, description and enabled of c.
	Update(ctx context.Context, c *model.Category) error
	// Delete removes the row; false when no row matched.
	Delete(ctx context.Context, id string) (bool, error)
}

// SettingsRepository stores the singleton site settings row.
type SettingsRepository interface {
	// GetOrCreate returns the row, inserting defaults when it is missing.
	GetOrCreate(ctx context.Context, defaults model.SiteSettings) (model.SiteSettings, error)
	// Update locks the row, applies patch and writes it back.
	Update(ctx context.Context, defaults model.SiteSettings, patch model.SettingsPatch) (model.SiteSettings, error)
}
