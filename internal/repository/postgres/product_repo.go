package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mohanatextiles/storefront/internal/errs"
	"github.com/mohanatextiles/storefront/internal/model"
	"github.com/mohanatextiles/storefront/internal/repository"
)

const productColumns = `id, name, category, price, discount, final_price, description, image_data, enabled, sizes, colors, created_at, updated_at`

// ProductRepo implements ProductRepository using PostgreSQL.
type ProductRepo struct{ db *DB }

// NewProductRepo constructs a product repository.
func NewProductRepo(db *DB) *ProductRepo { return &ProductRepo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Discount, &p.FinalPrice,
		&p.Description, &p.ImageData, &p.Enabled, &p.Sizes, &p.Colors, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns products ordered by created_at DESC.
func (r *ProductRepo) List(ctx context.Context, enabledOnly bool, category string) ([]model.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE ($1::boolean = false OR enabled = true)
  AND ($2::text = '' OR category = $2)
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, enabledOnly, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Get returns a single product by id.
func (r *ProductRepo) Get(ctx context.Context, id string) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	p, err := scanProduct(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a product row and reads back the generated timestamps.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const q = `
INSERT INTO products (id, name, category, price, discount, final_price, description, image_data, enabled, sizes, colors)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING created_at, updated_at`
	return r.db.Pool.QueryRow(ctx, q,
		p.ID, p.Name, p.Category, p.Price, p.Discount, p.FinalPrice,
		p.Description, p.ImageData, p.Enabled, p.Sizes, p.Colors,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// Update applies mutate to the locked row and persists every column.
func (r *ProductRepo) Update(ctx context.Context, id string, mutate repository.ProductMutator) (*model.Product, error) {
	const sel = `SELECT ` + productColumns + ` FROM products WHERE id=$1 FOR UPDATE`
	const upd = `
UPDATE products
SET name=$2, category=$3, price=$4, discount=$5, final_price=$6, description=$7,
    image_data=$8, enabled=$9, sizes=$10, colors=$11, updated_at=now()
WHERE id=$1
RETURNING updated_at`

	var out *model.Product
	err := r.db.withTx(ctx, func(tx pgx.Tx) error {
		p, err := scanProduct(tx.QueryRow(ctx, sel, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		if err := mutate(p); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, upd,
			p.ID, p.Name, p.Category, p.Price, p.Discount, p.FinalPrice,
			p.Description, p.ImageData, p.Enabled, p.Sizes, p.Colors,
		).Scan(&p.UpdatedAt); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetEnabled flips the enabled flag.
func (r *ProductRepo) SetEnabled(ctx context.Context, id string, enabled bool) (bool, error) {
	const q = `UPDATE products SET enabled=$2, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, enabled)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a product row.
func (r *ProductRepo) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM products WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Stats returns counts and the distinct category labels in use.
func (r *ProductRepo) Stats(ctx context.Context) (model.ProductStats, error) {
	const counts = `SELECT COUNT(*), COUNT(*) FILTER (WHERE enabled) FROM products`
	const cats = `SELECT DISTINCT category FROM products ORDER BY category`

	st := model.ProductStats{Categories: []string{}}
	if err := r.db.Pool.QueryRow(ctx, counts).Scan(&st.TotalProducts, &st.EnabledProducts); err != nil {
		return model.ProductStats{}, err
	}

	rows, err := r.db.Pool.Query(ctx, cats)
	if err != nil {
		return model.ProductStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return model.ProductStats{}, err
		}
		st.Categories = append(st.Categories, c)
	}
	return st, rows.Err()
}
