package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	authService "github.com/acm-uiuc/authcore/internal/auth/service"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

// Client-facing gate failure messages.
const (
	MsgInvalidAPIKey      = "Invalid API key."
	MsgMissingBearerToken = "Did not find bearer token in expected header."
	msgWrongTokenScheme   = "Did not find bearer token, found %s token."
)

// AuthorizationRequest carries the credentials and route requirements of a request.
type AuthorizationRequest struct {
	// APIKey is the x-api-key header value.
	APIKey string
	// AuthorizationHeader is the raw Authorization header value.
	AuthorizationHeader string
	// RequiredRoles must intersect the principal's roles. Empty means any
	// authenticated principal.
	RequiredRoles     authDomain.RoleSet
	DisableAPIKeyAuth bool
}

// Decision is the identity attached to an authorized request.
type Decision struct {
	Username string
	Roles    authDomain.RoleSet
	// TokenPayload is nil for API key requests.
	TokenPayload       authDomain.Claims
	PolicyRestrictions []authDomain.PolicyRestriction
}

type authorizer struct {
	codec    authService.APIKeyCodec
	keys     KeyStore
	verifier authService.TokenVerifier
	resolver RoleResolver
	sessions SessionUseCase
	logger   *slog.Logger
}

// NewAuthorizer creates the authorization gate.
func NewAuthorizer(
	codec authService.APIKeyCodec,
	keys KeyStore,
	verifier authService.TokenVerifier,
	resolver RoleResolver,
	sessions SessionUseCase,
	logger *slog.Logger,
) Authorizer {
	return &authorizer{
		codec:    codec,
		keys:     keys,
		verifier: verifier,
		resolver: resolver,
		sessions: sessions,
		logger:   logger,
	}
}

func (a *authorizer) Authorize(ctx context.Context, req *AuthorizationRequest) (*Decision, error) {
	if !req.DisableAPIKeyAuth && req.APIKey != "" {
		return a.authorizeAPIKey(ctx, req)
	}
	return a.authorizeBearer(ctx, req)
}

func (a *authorizer) authorizeAPIKey(ctx context.Context, req *AuthorizationRequest) (*Decision, error) {
	start := time.Now()

	parts, err := a.codec.Decompose(req.APIKey)
	if err != nil {
		return nil, apperrors.NewUnauthenticated(MsgInvalidAPIKey)
	}
	username := authDomain.APIKeyUsername(parts.ID)

	record, err := a.keys.Fetch(ctx, parts.ID)
	if err != nil {
		return nil, a.unexpected("fetch_api_key", username, err)
	}
	if record == nil {
		return nil, apperrors.NewUnauthenticated(MsgInvalidAPIKey)
	}

	ok, err := a.codec.Verify(req.APIKey, record.KeyHash)
	if err != nil {
		return nil, a.unexpected("verify_api_key", username, err)
	}
	if !ok {
		return nil, apperrors.NewUnauthenticated(MsgInvalidAPIKey)
	}

	roles := record.RoleSet()
	if !roles.Satisfies(req.RequiredRoles) {
		return nil, apperrors.NewUnauthorized("")
	}

	a.logger.Debug("api key authorization complete",
		slog.String("user", username),
		slog.Duration("took", time.Since(start)),
	)

	return &Decision{
		Username:           username,
		Roles:              roles,
		PolicyRestrictions: record.Restrictions,
	}, nil
}

func (a *authorizer) authorizeBearer(ctx context.Context, req *AuthorizationRequest) (*Decision, error) {
	if req.AuthorizationHeader == "" {
		return nil, apperrors.NewUnauthenticated(MsgMissingBearerToken)
	}
	scheme, token, _ := strings.Cut(req.AuthorizationHeader, " ")
	if scheme != "Bearer" {
		return nil, apperrors.NewUnauthenticated(fmt.Sprintf(msgWrongTokenScheme, scheme))
	}

	start := time.Now()
	claims, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return nil, a.unexpected("verify_token", "", err)
	}
	username := authDomain.PrincipalID(claims)
	a.logger.Debug("verified bearer token", slog.String("user", username), slog.Duration("took", time.Since(start)))

	revoked, err := a.sessions.IsRevoked(ctx, claims.Common().UTI)
	if err != nil {
		return nil, a.unexpected("check_revocation", username, err)
	}
	if revoked {
		a.logger.Info("revoked token was attempted",
			slog.String("user", username),
			slog.String("uti", claims.Common().UTI),
		)
		return nil, apperrors.NewUnauthenticated(authService.MsgInvalidToken)
	}

	start = time.Now()
	roles, err := a.resolver.Resolve(ctx, claims)
	if err != nil {
		return nil, a.unexpected("resolve_roles", username, err)
	}
	a.logger.Debug("resolved user roles", slog.String("user", username), slog.Duration("took", time.Since(start)))

	if !roles.Satisfies(req.RequiredRoles) {
		return nil, apperrors.NewUnauthorized("")
	}

	return &Decision{
		Username:     username,
		Roles:        roles,
		TokenPayload: claims,
	}, nil
}

// unexpected passes typed errors through and logs anything else with its phase.
func (a *authorizer) unexpected(phase, username string, err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	a.logger.Error("authorization failed",
		slog.String("phase", phase),
		slog.String("user", username),
		slog.Any("error", err),
	)
	return err
}
