// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness clash (duplicate slug or email).
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized indicates failed authentication or a missing/expired session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrValidation indicates malformed input rejected before persistence.
	ErrValidation = errors.New("validation")

	// ErrUpstreamUnavailable indicates the image host or the description API failed.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
