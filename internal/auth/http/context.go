// Package http provides the gin middleware and handlers of the authorization core.
package http

import (
	"context"
	"log/slog"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
)

type usernameKey struct{}

type rolesKey struct{}

type tokenPayloadKey struct{}

type policyRestrictionsKey struct{}

type loggerKey struct{}

// WithUsername stores the authenticated principal identifier in the context.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

// GetUsername retrieves the authenticated principal identifier.
// Returns ("", false) if the authorization middleware did not run.
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey{}).(string)
	return username, ok
}

// WithRoles stores the roles granted to the principal.
func WithRoles(ctx context.Context, roles authDomain.RoleSet) context.Context {
	return context.WithValue(ctx, rolesKey{}, roles)
}

// GetRoles retrieves the roles granted to the principal.
func GetRoles(ctx context.Context) (authDomain.RoleSet, bool) {
	roles, ok := ctx.Value(rolesKey{}).(authDomain.RoleSet)
	return roles, ok
}

// WithTokenPayload stores the verified bearer token claims. API key requests carry no payload.
func WithTokenPayload(ctx context.Context, claims authDomain.Claims) context.Context {
	return context.WithValue(ctx, tokenPayloadKey{}, claims)
}

// GetTokenPayload retrieves the verified bearer token claims.
func GetTokenPayload(ctx context.Context) (authDomain.Claims, bool) {
	claims, ok := ctx.Value(tokenPayloadKey{}).(authDomain.Claims)
	return claims, ok && claims != nil
}

// WithPolicyRestrictions stores the policy restrictions attached to an API key.
func WithPolicyRestrictions(ctx context.Context, restrictions []authDomain.PolicyRestriction) context.Context {
	return context.WithValue(ctx, policyRestrictionsKey{}, restrictions)
}

// GetPolicyRestrictions retrieves the policy restrictions of the request principal.
func GetPolicyRestrictions(ctx context.Context) ([]authDomain.PolicyRestriction, bool) {
	restrictions, ok := ctx.Value(policyRestrictionsKey{}).([]authDomain.PolicyRestriction)
	return restrictions, ok
}

// WithLogger stores a request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom returns the request-scoped logger, or fallback when none was stored.
func LoggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return fallback
}
