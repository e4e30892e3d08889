package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"

	"github.com/mohanatextiles/storefront/internal/errs"
	"github.com/mohanatextiles/storefront/internal/model"
	"github.com/mohanatextiles/storefront/internal/pricing"
	"github.com/mohanatextiles/storefront/internal/repository"
)

// Field limits for products.
const (
	MaxProductNameLen  = 255
	MaxCategoryNameLen = 100
)

// DefaultSizes is applied when a product is created without sizes.
func DefaultSizes() []string { return []string{"S", "M", "L", "XL"} }

// DefaultColors is applied when a product is created without colors.
func DefaultColors() []model.ColorVariant {
	return []model.ColorVariant{{Name: "Black", Hex: "#000000"}}
}

// ProductService defines catalog operations on products.
type ProductService interface {
	ListEnabled(ctx context.Context, category string) ([]model.Product, error)
	ListAll(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, in model.ProductInput, imageData string) (*model.Product, error)
	Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)
	ToggleEnabled(ctx context.Context, id string, enabled bool) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context) (model.ProductStats, error)
}

type ProductServiceImpl struct {
	repo repository.ProductRepository
}

// NewProductService constructs ProductService.
func NewProductService(repo repository.ProductRepository) *ProductServiceImpl {
	return &ProductServiceImpl{repo: repo}
}

func validateName(field, v string, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(v))
	if n == 0 || n > max {
		return fmt.Errorf("%w: %s must be 1-%d characters", errs.ErrValidation, field, max)
	}
	return nil
}

func validatePrice(price float64) error {
	if price <= 0 {
		return fmt.Errorf("%w: price must be greater than 0", errs.ErrValidation)
	}
	return nil
}

func validateDiscount(d float64) error {
	if d < 0 || d > 100 {
		return fmt.Errorf("%w: discount must be between 0 and 100", errs.ErrValidation)
	}
	return nil
}

// ListEnabled returns the public catalog, optionally narrowed to one category label.
func (s *ProductServiceImpl) ListEnabled(ctx context.Context, category string) ([]model.Product, error) {
	return s.repo.List(ctx, true, category)
}

// ListAll returns every product including disabled ones.
func (s *ProductServiceImpl) ListAll(ctx context.Context) ([]model.Product, error) {
	return s.repo.List(ctx, false, "")
}

// Get returns a product or errs.ErrNotFound.
func (s *ProductServiceImpl) Get(ctx context.Context, id string) (*model.Product, error) {
	return s.repo.Get(ctx, id)
}

// Create validates in, fills defaults and derives FinalPrice before storing.
func (s *ProductServiceImpl) Create(ctx context.Context, in model.ProductInput, imageData string) (*model.Product, error) {
	if err := validateName("name", in.Name, MaxProductNameLen); err != nil {
		return nil, err
	}
	if err := validateName("category", in.Category, MaxCategoryNameLen); err != nil {
		return nil, err
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if err := validateDiscount(in.Discount); err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	p := &model.Product{
		ID:          id.String(),
		Name:        in.Name,
		Category:    in.Category,
		Price:       in.Price,
		Discount:    in.Discount,
		FinalPrice:  pricing.FinalPrice(in.Price, in.Discount),
		Description: in.Description,
		ImageData:   imageData,
		Enabled:     true,
		Sizes:       in.Sizes,
		Colors:      in.Colors,
	}
	if in.Enabled != nil {
		p.Enabled = *in.Enabled
	}
	if p.Sizes == nil {
		p.Sizes = DefaultSizes()
	}
	if p.Colors == nil {
		p.Colors = DefaultColors()
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// validatePatch checks only the fields present in patch.
func validatePatch(patch model.ProductPatch) error {
	if patch.Name != nil {
		if err := validateName("name", *patch.Name, MaxProductNameLen); err != nil {
			return err
		}
	}
	if patch.Category != nil {
		if err := validateName("category", *patch.Category, MaxCategoryNameLen); err != nil {
			return err
		}
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return err
		}
	}
	if patch.Discount != nil {
		return validateDiscount(*patch.Discount)
	}
	return nil
}

// applyPatch merges present fields into p and recomputes FinalPrice.
func applyPatch(p *model.Product, patch model.ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Discount != nil {
		p.Discount = *patch.Discount
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Enabled != nil {
		p.Enabled = *patch.Enabled
	}
	if patch.Sizes != nil {
		p.Sizes = *patch.Sizes
	}
	if patch.Colors != nil {
		p.Colors = *patch.Colors
	}
	if patch.ImageData != nil {
		p.ImageData = *patch.ImageData
	}
	p.FinalPrice = pricing.FinalPrice(p.Price, p.Discount)
}

// Update applies patch to the stored row atomically.
func (s *ProductServiceImpl) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, func(p *model.Product) error {
		applyPatch(p, patch)
		return nil
	})
}

// ToggleEnabled sets the visibility flag; false when the product does not exist.
func (s *ProductServiceImpl) ToggleEnabled(ctx context.Context, id string, enabled bool) (bool, error) {
	return s.repo.SetEnabled(ctx, id, enabled)
}

// Delete removes a product; false when it did not exist.
func (s *ProductServiceImpl) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// Stats summarises the catalog.
func (s *ProductServiceImpl) Stats(ctx context.Context) (model.ProductStats, error) {
	return s.repo.Stats(ctx)
}
