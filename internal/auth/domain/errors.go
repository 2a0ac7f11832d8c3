package domain

import (
	"github.com/acm-uiuc/authcore/internal/errors"
)

// Authentication and authorization errors.
var (
	// ErrAPIKeyNotFound indicates no API key record exists for the key id.
	ErrAPIKeyNotFound = errors.Wrap(errors.ErrNotFound, "api key not found")

	// ErrAPIKeyExists indicates a key id collision on insert.
	ErrAPIKeyExists = errors.Wrap(errors.ErrConflict, "api key already exists")

	// ErrRoleMappingNotFound indicates no role mapping exists for a group or user.
	ErrRoleMappingNotFound = errors.Wrap(errors.ErrNotFound, "role mapping not found")

	// ErrInvalidCredentialFormat indicates an API key string failed structural validation.
	ErrInvalidCredentialFormat = errors.Wrap(errors.ErrInvalidInput, "invalid credential format")
)
