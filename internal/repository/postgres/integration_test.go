//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mohanatextiles/storefront/internal/errs"
	"github.com/mohanatextiles/storefront/internal/limiter"
	"github.com/mohanatextiles/storefront/internal/migrate"
	"github.com/mohanatextiles/storefront/internal/model"
	"github.com/mohanatextiles/storefront/internal/repository/postgres"
	"github.com/mohanatextiles/storefront/internal/service"
	"github.com/mohanatextiles/storefront/internal/session"
)

// setupDB starts PostgreSQL, applies the embedded migrations and connects.
func setupDB(t *testing.T) (*postgres.DB, string) {
	t.Helper()
	ctx := context.Background()

	pg, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, migrate.Up(ctx, dsn))

	db, err := postgres.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Ping(ctx))
	return db, dsn
}

func TestIntegration(t *testing.T) {
	db, dsn := setupDB(t)
	ctx := context.Background()

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, migrate.Up(ctx, dsn))
		v, err := migrate.Version(ctx, dsn)
		require.NoError(t, err)
		require.EqualValues(t, 2, v)
	})

	t.Run("products", func(t *testing.T) {
		svc := service.NewProductService(postgres.NewProductRepo(db))

		shirt, err := svc.Create(ctx, model.ProductInput{Name: "Shirt", Category: "mens", Price: 1000, Discount: 10}, "")
		require.NoError(t, err)
		require.Equal(t, 900.0, shirt.FinalPrice)

		got, err := svc.Get(ctx, shirt.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"S", "M", "L", "XL"}, got.Sizes)
		require.Equal(t, service.DefaultColors(), got.Colors)

		ok, err := svc.ToggleEnabled(ctx, shirt.ID, false)
		require.NoError(t, err)
		require.True(t, ok)

		public, err := svc.ListEnabled(ctx, "")
		require.NoError(t, err)
		require.Empty(t, public)
		all, err := svc.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)

		discount := 50.0
		updated, err := svc.Update(ctx, shirt.ID, model.ProductPatch{Discount: &discount})
		require.NoError(t, err)
		require.Equal(t, 500.0, updated.FinalPrice)
		require.False(t, updated.UpdatedAt.Before(shirt.UpdatedAt))

		st, err := svc.Stats(ctx)
		require.NoError(t, err)
		require.Equal(t, model.ProductStats{TotalProducts: 1, EnabledProducts: 0, Categories: []string{"mens"}}, st)

		ok, err = svc.Delete(ctx, shirt.ID)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = svc.Delete(ctx, shirt.ID)
		require.NoError(t, err)
		require.False(t, ok)
		_, err = svc.Get(ctx, shirt.ID)
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("categories", func(t *testing.T) {
		svc := service.NewCategoryService(postgres.NewCategoryRepo(db))

		first, inserted, err := svc.SeedDefaults(ctx)
		require.NoError(t, err)
		require.True(t, inserted)
		require.Len(t, first, len(service.DefaultCategories))

		second, inserted, err := svc.SeedDefaults(ctx)
		require.NoError(t, err)
		require.False(t, inserted)
		slugs := func(cs []model.Category) []string {
			out := make([]string, 0, len(cs))
			for _, c := range cs {
				out = append(out, c.Slug)
			}
			return out
		}
		require.ElementsMatch(t, slugs(first), slugs(second))

		_, err = svc.Create(ctx, model.CategoryInput{Name: "Other", Slug: "mens"})
		require.ErrorIs(t, err, errs.ErrConflict)
		mens, err := svc.GetBySlug(ctx, "mens")
		require.NoError(t, err)
		require.Equal(t, "Men's", mens.Name)
	})

	t.Run("settings", func(t *testing.T) {
		svc := service.NewSettingsService(postgres.NewSettingsRepo(db), model.DefaultSiteSettings())

		s, err := svc.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, model.DefaultSiteSettings(), s)

		off := false
		s, err = svc.Update(ctx, model.SettingsPatch{ProductsPageEnabled: &off})
		require.NoError(t, err)
		require.False(t, s.ProductsPageEnabled)
		require.True(t, s.HomepageEnabled)

		again, err := svc.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, s, again)
	})

	t.Run("login lockout", func(t *testing.T) {
		lim := limiter.NewPG(db.Pool, limiter.Policy{Window: time.Minute, MaxFailures: 2, BlockFor: time.Minute})
		auth := service.NewAuthService(postgres.NewAdminRepo(db), session.NewRegistry(time.Hour), lim)

		_, err := auth.CreateAdmin(ctx, "owner@example.com", "secret1", "")
		require.NoError(t, err)
		_, err = auth.CreateAdmin(ctx, "owner@example.com", "secret1", "")
		require.ErrorIs(t, err, errs.ErrConflict)

		res, err := auth.Login(ctx, "owner@example.com", "secret1", "10.0.0.1")
		require.NoError(t, err)
		require.NotEmpty(t, res.AccessToken)

		_, err = auth.Login(ctx, "owner@example.com", "wrong", "10.0.0.2")
		require.ErrorIs(t, err, errs.ErrUnauthorized)
		_, err = auth.Login(ctx, "owner@example.com", "wrong", "10.0.0.2")
		require.ErrorIs(t, err, errs.ErrRateLimited)
		_, err = auth.Login(ctx, "owner@example.com", "secret1", "10.0.0.2")
		require.ErrorIs(t, err, errs.ErrRateLimited)

		// other clients are unaffected
		_, err = auth.Login(ctx, "owner@example.com", "secret1", "10.0.0.3")
		require.NoError(t, err)
	})
}
