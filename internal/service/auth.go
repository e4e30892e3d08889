// Package service contains the application services behind the storefront API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/mohanatextiles/storefront/internal/crypto"
	"github.com/mohanatextiles/storefront/internal/errs"
	"github.com/mohanatextiles/storefront/internal/limiter"
	"github.com/mohanatextiles/storefront/internal/model"
	"github.com/mohanatextiles/storefront/internal/repository"
)

// MinPasswordLen is the shortest password CreateAdmin accepts.
const MinPasswordLen = 6

// SessionStore issues and checks opaque admin session tokens.
type SessionStore interface {
	Issue(adminID, email string) (string, error)
	Validate(token string) (model.Session, bool)
	Revoke(token string) bool
}

// AuthService defines admin authentication and account bootstrap.
type AuthService interface {
	// Authenticate checks credentials of an admin account.
	Authenticate(ctx context.Context, email, password string) (*model.Admin, error)
	// Login applies rate limiting, authenticates and opens a session.
	Login(ctx context.Context, email, password, ip string) (model.LoginResult, error)
	// Logout revokes a session token; false when it was not active.
	Logout(token string) bool
	// Session resolves a bearer token to a live session.
	Session(token string) (model.Session, error)
	// Me loads the admin behind a session.
	Me(ctx context.Context, adminID string) (*model.Admin, error)
	// CreateAdmin registers a new admin account.
	CreateAdmin(ctx context.Context, email, password, displayName string) (*model.Admin, error)
	// ListAdmins returns every account.
	ListAdmins(ctx context.Context) ([]model.Admin, error)
}

type AuthServiceImpl struct {
	admins   repository.AdminRepository
	sessions SessionStore
	lim      limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
// A nil limiter disables login throttling.
func NewAuthService(admins repository.AdminRepository, sessions SessionStore, lim limiter.Limiter) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Nop{}
	}
	return &AuthServiceImpl{admins: admins, sessions: sessions, lim: lim}
}

func normalizeEmail(email string) string { return strings.TrimSpace(email) }

// Authenticate returns ErrUnauthorized for an unknown email, a wrong password
// and a non-admin account alike.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, email, password string) (*model.Admin, error) {
	a, err := s.admins.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !pkgcrypto.VerifyPassword(password, a.PasswordHash) || !a.IsAdmin {
		return nil, errs.ErrUnauthorized
	}
	return a, nil
}

// Login authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, email, password, ip string) (model.LoginResult, error) {
	email = normalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.LoginResult{}, err
	}
	if !allowed {
		return model.LoginResult{}, errs.ErrRateLimited
	}

	a, err := s.Authenticate(ctx, email, password)
	if errors.Is(err, errs.ErrUnauthorized) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.LoginResult{}, errs.ErrRateLimited
		}
		return model.LoginResult{}, errs.ErrUnauthorized
	}
	if err != nil {
		return model.LoginResult{}, err
	}

	// best-effort reset
	_ = s.lim.Success(ctx, email, ipHash)

	token, err := s.sessions.Issue(a.ID, a.Email)
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("issue session: %w", err)
	}
	sess, _ := s.sessions.Validate(token)
	return model.LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   sess.ExpiresAt,
		User:        *a,
	}, nil
}

// Logout revokes token. Revoking an unknown token is not an error.
func (s *AuthServiceImpl) Logout(token string) bool {
	if token == "" {
		return false
	}
	return s.sessions.Revoke(token)
}

// Session resolves token or returns ErrUnauthorized.
func (s *AuthServiceImpl) Session(token string) (model.Session, error) {
	if token == "" {
		return model.Session{}, errs.ErrUnauthorized
	}
	sess, ok := s.sessions.Validate(token)
	if !ok {
		return model.Session{}, errs.ErrUnauthorized
	}
	return sess, nil
}

// Me loads the admin of a session. A deleted account reads as unauthorized.
func (s *AuthServiceImpl) Me(ctx context.Context, adminID string) (*model.Admin, error) {
	a, err := s.admins.GetByID(ctx, adminID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrUnauthorized
	}
	return a, err
}

// CreateAdmin validates input, hashes the password and stores the account.
func (s *AuthServiceImpl) CreateAdmin(ctx context.Context, email, password, displayName string) (*model.Admin, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", errs.ErrValidation)
	}
	if len(password) < MinPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", errs.ErrValidation, MinPasswordLen)
	}
	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil, errs.ErrConflict
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = email
	}
	a := &model.Admin{
		ID:           id.String(),
		Email:        email,
		PasswordHash: pkgcrypto.HashPassword(password),
		DisplayName:  displayName,
		IsAdmin:      true,
	}
	if err := s.admins.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAdmins returns every account oldest first.
func (s *AuthServiceImpl) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	return s.admins.List(ctx)
}
