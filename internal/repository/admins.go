// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/mohanatextiles/storefront/internal/model"
)

// AdminRepository provides access to back-office accounts.
type AdminRepository interface {
	// Create inserts a new admin; a taken email yields errs.ErrConflict.
	Create(ctx context.Context, a *model.Admin) error
	// GetByID loads an admin by ID.
	GetByID(ctx context.Context, id string) (*model.Admin, error)
	// GetByEmail loads an admin by email.
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	// List returns all admins, oldest first.
	List(ctx context.Context) ([]model.Admin, error)
}
