package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mohanatextiles/storefront/internal/errs"
	"github.com/mohanatextiles/storefront/internal/model"
)

const categoryColumns = `id, name, slug, description, enabled, created_at`

// CategoryRepo implements CategoryRepository using PostgreSQL.
type CategoryRepo struct{ db *DB }

// NewCategoryRepo constructs a category repository.
func NewCategoryRepo(db *DB) *CategoryRepo { return &CategoryRepo{db: db} }

func scanCategory(row rowScanner) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Enabled, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListEnabled returns enabled categories ordered by name.
func (r *CategoryRepo) ListEnabled(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories WHERE enabled = true ORDER BY name`
	return r.list(ctx, q)
}

// ListAll returns every category newest first.
func (r *CategoryRepo) ListAll(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories ORDER BY created_at DESC`
	return r.list(ctx, q)
}

func (r *CategoryRepo) list(ctx context.Context, q string) ([]model.Category, error) {
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Get loads a category by id.
func (r *CategoryRepo) Get(ctx context.Context, id string) (*model.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories WHERE id=$1`
	return scanCategory(r.db.Pool.QueryRow(ctx, q, id))
}

// GetBySlug loads a category by slug.
func (r *CategoryRepo) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories WHERE slug=$1`
	return scanCategory(r.db.Pool.QueryRow(ctx, q, slug))
}

// CreateBatch inserts categories atomically; a duplicate slug aborts the whole batch.
func (r *CategoryRepo) CreateBatch(ctx context.Context, cs []*model.Category) error {
	const ins = `
INSERT INTO categories (id, name, slug, description, enabled)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`
	err := r.db.withTx(ctx, func(tx pgx.Tx) error {
		for _, c := range cs {
			if err := tx.QueryRow(ctx, ins, c.ID, c.Name, c.Slug, c.Description, c.Enabled).Scan(&c.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return errs.ErrConflict
	}
	return err
}

// Update writes the mutable category columns.
func (r *CategoryRepo) Update(ctx context.Context, c *model.Category) error {
	const q = `UPDATE categories SET name=$2, slug=$3, description=$4, enabled=$5 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, c.ID, c.Name, c.Slug, c.Description, c.Enabled)
	if isUniqueViolation(err) {
		return errs.ErrConflict
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a category row.
func (r *CategoryRepo) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM categories WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
