package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/sync/singleflight"

	"github.com/mohanatextiles/storefront/internal/errs"
	"github.com/mohanatextiles/storefront/internal/model"
	"github.com/mohanatextiles/storefront/internal/repository"
)

// DefaultCategories are inserted by SeedDefaults into an empty table.
var DefaultCategories = []model.CategoryInput{
	{Name: "Men's", Slug: "mens", Description: "Men's clothing"},
	{Name: "Women's", Slug: "womens", Description: "Women's clothing"},
	{Name: "Accessories", Slug: "accessories", Description: "Fashion accessories"},
	{Name: "Kids", Slug: "kids", Description: "Kids clothing"},
}

// CategoryService defines operations on storefront categories.
type CategoryService interface {
	ListEnabled(ctx context.Context) ([]model.Category, error)
	ListAll(ctx context.Context) ([]model.Category, error)
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	Create(ctx context.Context, in model.CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id string, patch model.CategoryPatch) (*model.Category, error)
	Delete(ctx context.Context, id string) (bool, error)
	// SeedDefaults fills an empty table with DefaultCategories and reports
	// whether it inserted anything.
	SeedDefaults(ctx context.Context) ([]model.Category, bool, error)
}

type CategoryServiceImpl struct {
	repo repository.CategoryRepository
	seed singleflight.Group
}

// NewCategoryService constructs CategoryService.
func NewCategoryService(repo repository.CategoryRepository) *CategoryServiceImpl {
	return &CategoryServiceImpl{repo: repo}
}

func (s *CategoryServiceImpl) ListEnabled(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListEnabled(ctx)
}

func (s *CategoryServiceImpl) ListAll(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListAll(ctx)
}

func (s *CategoryServiceImpl) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// slugTaken reports whether slug belongs to a category other than exceptID.
func (s *CategoryServiceImpl) slugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return c.ID != exceptID, nil
}

// Create rejects a slug that is already in use before inserting.
func (s *CategoryServiceImpl) Create(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	if err := validateName("name", in.Name, MaxCategoryNameLen); err != nil {
		return nil, err
	}
	if err := validateName("slug", in.Slug, MaxCategoryNameLen); err != nil {
		return nil, err
	}
	taken, err := s.slugTaken(ctx, in.Slug, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.ErrConflict
	}
	c, err := newCategory(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateBatch(ctx, []*model.Category{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func newCategory(in model.CategoryInput) (*model.Category, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &model.Category{
		ID:          id.String(),
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Enabled:     true,
	}, nil
}

// Update applies the present fields of patch.
func (s *CategoryServiceImpl) Update(ctx context.Context, id string, patch model.CategoryPatch) (*model.Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if err := validateName("name", *patch.Name, MaxCategoryNameLen); err != nil {
			return nil, err
		}
		c.Name = *patch.Name
	}
	if patch.Slug != nil && *patch.Slug != c.Slug {
		if err := validateName("slug", *patch.Slug, MaxCategoryNameLen); err != nil {
			return nil, err
		}
		taken, err := s.slugTaken(ctx, *patch.Slug, c.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, errs.ErrConflict
		}
		c.Slug = *patch.Slug
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Enabled != nil {
		c.Enabled = *patch.Enabled
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a category; false when it did not exist.
func (s *CategoryServiceImpl) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

type seedResult struct {
	cats    []model.Category
	created bool
}

// SeedDefaults is idempotent. Concurrent callers in this process share one
// attempt; a writer in another process that wins the insert race is detected
// through the unique slug and its rows are returned.
func (s *CategoryServiceImpl) SeedDefaults(ctx context.Context) ([]model.Category, bool, error) {
	v, err, _ := s.seed.Do("seed", func() (any, error) {
		// The shared attempt must outlive whichever caller started it.
		ctx := context.WithoutCancel(ctx)
		existing, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return seedResult{cats: existing}, nil
		}

		batch := make([]*model.Category, 0, len(DefaultCategories))
		for _, in := range DefaultCategories {
			c, err := newCategory(in)
			if err != nil {
				return nil, err
			}
			batch = append(batch, c)
		}
		err = s.repo.CreateBatch(ctx, batch)
		if errors.Is(err, errs.ErrConflict) {
			winner, lerr := s.repo.ListAll(ctx)
			return seedResult{cats: winner}, lerr
		}
		if err != nil {
			return nil, err
		}
		out := make([]model.Category, len(batch))
		for i, c := range batch {
			out[i] = *c
		}
		return seedResult{cats: out, created: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	r := v.(seedResult)
	return r.cats, r.created, nil
}
