package service

import (
	"github.com/acm-uiuc/authcore/internal/errors"
)

// Signing key resolution errors. Fetch and timeout failures are infrastructure errors
// and are not reported to clients as authentication failures.
var (
	// ErrJWKSFetch indicates the JWKS document could not be retrieved or decoded.
	ErrJWKSFetch = errors.New("failed to fetch jwks")

	// ErrJWKSTimeout indicates the JWKS request did not complete within its timeout.
	ErrJWKSTimeout = errors.New("jwks fetch timed out")

	// ErrSigningKeyNotFound indicates the JWKS has no usable RSA key for the kid.
	ErrSigningKeyNotFound = errors.Wrap(errors.ErrNotFound, "signing key not found")
)
