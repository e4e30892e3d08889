package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/mohanatextiles/storefront/internal/errs"
	"github.com/mohanatextiles/storefront/internal/model"
)

var productCols = []string{"id", "name", "category", "price", "discount", "final_price", "description",
	"image_data", "enabled", "sizes", "colors", "created_at", "updated_at"}

func shirtRow(rows *pgxmock.Rows, now time.Time) *pgxmock.Rows {
	return rows.AddRow("p1", "Shirt", "mens", 1000.0, 10.0, 900.0, "", "", true,
		[]string{"S", "M"}, []model.ColorVariant{{Name: "Black", Hex: "#000000"}}, now, now)
}

func TestProductRepo_List_Filters(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`FROM products WHERE .* ORDER BY created_at DESC`).
		WithArgs(true, "mens").
		WillReturnRows(shirtRow(pgxmock.NewRows(productCols), now))
	got, err := r.List(ctx, true, "mens")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 900.0, got[0].FinalPrice)
	require.Equal(t, []string{"S", "M"}, got[0].Sizes)

	mock.ExpectQuery(`FROM products WHERE`).
		WithArgs(false, "").
		WillReturnRows(pgxmock.NewRows(productCols))
	got, err = r.List(ctx, false, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	mock.ExpectQuery(`FROM products WHERE id=\$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err := r.Get(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProductRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	now := time.Now()

	p := &model.Product{ID: "p1", Name: "Shirt", Category: "mens", Price: 1000, Discount: 10, FinalPrice: 900,
		Enabled: true, Sizes: []string{"S"}, Colors: []model.ColorVariant{{Name: "Black", Hex: "#000000"}}}

	mock.ExpectQuery(`INSERT INTO products \(id, name, category, price, discount, final_price, description, image_data, enabled, sizes, colors\)`).
		WithArgs(p.ID, p.Name, p.Category, p.Price, p.Discount, p.FinalPrice, p.Description, p.ImageData, p.Enabled, p.Sizes, p.Colors).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	require.NoError(t, r.Create(context.Background(), p))
	require.Equal(t, now, p.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_Update_CommitsMutation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	now := time.Now()
	later := now.Add(time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM products WHERE id=\$1 FOR UPDATE`).
		WithArgs("p1").
		WillReturnRows(shirtRow(pgxmock.NewRows(productCols), now))
	mock.ExpectQuery(`UPDATE products SET name=\$2, .* WHERE id=\$1 RETURNING updated_at`).
		WithArgs("p1", "Shirt", "mens", 1000.0, 50.0, 500.0, "", "", true, []string{"S", "M"}, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(later))
	mock.ExpectCommit()

	p, err := r.Update(context.Background(), "p1", func(p *model.Product) error {
		p.Discount = 50
		p.FinalPrice = 500
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 500.0, p.FinalPrice)
	require.Equal(t, later, p.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_Update_RollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	now := time.Now()

	// missing row
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("nope").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()
	_, err := r.Update(context.Background(), "nope", func(*model.Product) error { return nil })
	require.ErrorIs(t, err, errs.ErrNotFound)

	// mutator rejects
	boom := errors.New("rejected")
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("p1").WillReturnRows(shirtRow(pgxmock.NewRows(productCols), now))
	mock.ExpectRollback()
	_, err = r.Update(context.Background(), "p1", func(*model.Product) error { return boom })
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_SetEnabled_and_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE products SET enabled=\$2, updated_at=now\(\) WHERE id=\$1`).
		WithArgs("p1", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	ok, err := r.SetEnabled(ctx, "p1", false)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectExec(`UPDATE products SET enabled`).
		WithArgs("gone", true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	ok, err = r.SetEnabled(ctx, "gone", true)
	require.NoError(t, err)
	require.False(t, ok)

	mock.ExpectExec(`DELETE FROM products WHERE id=\$1`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	ok, err = r.Delete(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectExec(`DELETE FROM products`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	ok, err = r.Delete(ctx, "p1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProductRepo_Stats(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(\*\) FILTER \(WHERE enabled\) FROM products`).
		WillReturnRows(pgxmock.NewRows([]string{"count", "count"}).AddRow(3, 2))
	mock.ExpectQuery(`SELECT DISTINCT category FROM products`).
		WillReturnRows(pgxmock.NewRows([]string{"category"}).AddRow("kids").AddRow("mens"))

	st, err := r.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, st.TotalProducts)
	require.Equal(t, 2, st.EnabledProducts)
	require.Equal(t, []string{"kids", "mens"}, st.Categories)
}
