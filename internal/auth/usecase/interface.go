// Package usecase defines the authentication and authorization workflows: API key lookup,
// role resolution, the authorization gate, sessions, key management and IAM role mappings.
package usecase

import (
	"context"
	"time"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
)

// APIKeyRepository defines persistence operations for organization API keys.
// Implementations must support transaction-aware operations via context propagation.
type APIKeyRepository interface {
	// Create stores a new key. Returns ErrAPIKeyExists on a key id collision.
	Create(ctx context.Context, key *authDomain.APIKey) error

	// Get retrieves a key by id. Returns ErrAPIKeyNotFound if not found.
	Get(ctx context.Context, keyID string) (*authDomain.APIKey, error)

	// Delete removes a key by id. Returns ErrAPIKeyNotFound if no row was deleted.
	Delete(ctx context.Context, keyID string) error

	// List returns keys ordered by creation time descending.
	List(ctx context.Context, offset, limit int) ([]*authDomain.APIKey, error)

	// DeleteExpired removes keys whose expiry is at or before now and returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RoleMappingRepository defines persistence operations for group and user role mappings.
type RoleMappingRepository interface {
	// GetGroupRoles returns the stored roles for a group. Returns ErrRoleMappingNotFound
	// if the group has no mapping.
	GetGroupRoles(ctx context.Context, groupID string) ([]string, error)

	// GetUserRoles returns the stored override roles for a user. Returns
	// ErrRoleMappingNotFound if the user has no override.
	GetUserRoles(ctx context.Context, userEmail string) ([]string, error)

	// SetGroupRoles creates or replaces a group mapping.
	SetGroupRoles(ctx context.Context, groupID string, roles []string) error

	// SetUserRoles creates or replaces a user override.
	SetUserRoles(ctx context.Context, userEmail string, roles []string) error
}

// AuditLogRepository defines persistence operations for audit entries.
type AuditLogRepository interface {
	Create(ctx context.Context, auditLog *authDomain.AuditLog) error

	// List returns entries newest first, optionally filtered by module.
	List(ctx context.Context, module string, offset, limit int) ([]*authDomain.AuditLog, error)

	// DeleteOlderThan removes entries created before olderThan. With dryRun it only
	// counts them.
	DeleteOlderThan(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error)
}

// KeyStore resolves API key records through the shared cache.
type KeyStore interface {
	// Fetch returns the live record for keyID, or nil when it is unknown, expired or
	// unusable. Only infrastructure failures are returned as errors.
	Fetch(ctx context.Context, keyID string) (*authDomain.APIKey, error)

	// Evict drops the cached record for keyID.
	Evict(ctx context.Context, keyID string) error
}

// RoleResolver computes the application roles of a bearer token principal.
type RoleResolver interface {
	// Resolve returns the principal's role set. Group and override lookup failures
	// degrade to fewer roles instead of failing.
	Resolve(ctx context.Context, claims authDomain.Claims) (authDomain.RoleSet, error)

	// ClearCache drops the cached role decisions for the given usernames.
	ClearCache(ctx context.Context, usernames ...string) error
}

// SessionUseCase manages logout and the token revocation list.
type SessionUseCase interface {
	// IsRevoked reports whether the token with the given uti was revoked.
	IsRevoked(ctx context.Context, uti string) (bool, error)

	// ClearSession drops the caller's role cache and, for tokens carrying a uti and
	// expiry, revokes the token until it expires.
	ClearSession(ctx context.Context, username string, claims authDomain.Claims) error
}

// Authorizer is the authorization gate run before protected handlers.
type Authorizer interface {
	// Authorize authenticates the request credential and checks the required roles.
	// Failures are *errors.AppError except for unexpected infrastructure errors.
	Authorize(ctx context.Context, req *AuthorizationRequest) (*Decision, error)
}

// APIKeyUseCase manages organization API keys.
type APIKeyUseCase interface {
	// Create issues a key and records an audit entry in the same transaction. The full
	// key is returned exactly once.
	Create(ctx context.Context, input *authDomain.CreateAPIKeyInput) (*authDomain.CreateAPIKeyOutput, error)

	// Revoke deletes a key, records an audit entry and evicts the cached record.
	Revoke(ctx context.Context, keyID, actor, requestID string) error

	// List returns key records without their hashes.
	List(ctx context.Context, offset, limit int) ([]*authDomain.APIKey, error)

	// CleanExpired deletes expired keys and returns how many were removed.
	CleanExpired(ctx context.Context) (int64, error)
}

// IAMUseCase administers group and user role mappings.
type IAMUseCase interface {
	GetGroupRoles(ctx context.Context, groupID string) (*authDomain.GroupRoles, error)
	SetGroupRoles(ctx context.Context, input *authDomain.SetRolesInput) error
	GetUserRoles(ctx context.Context, userEmail string) (*authDomain.UserRoles, error)
	SetUserRoles(ctx context.Context, input *authDomain.SetRolesInput) error
}

// AuditLogUseCase reads and prunes audit entries.
type AuditLogUseCase interface {
	List(ctx context.Context, module string, offset, limit int) ([]*authDomain.AuditLog, error)
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)
}
