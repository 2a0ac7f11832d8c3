package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	authUseCase "github.com/acm-uiuc/authcore/internal/auth/usecase"
	"github.com/acm-uiuc/authcore/internal/httputil"
)

// Credential headers read by the authorization middleware.
const (
	HeaderAPIKey        = "x-api-key"
	HeaderAuthorization = "Authorization"
)

// RouteAuth describes the authorization requirements of a route.
type RouteAuth struct {
	// RequiredRoles must intersect the principal's roles. Empty admits any
	// authenticated principal.
	RequiredRoles []authDomain.Role
	// DisableAPIKeyAuth forces the bearer token path even when x-api-key is present.
	DisableAPIKeyAuth bool
}

// AuthorizeMiddleware authenticates the request and enforces the route's required roles.
//
// When API keys are allowed on the route and the x-api-key header is non-empty the key
// is verified; otherwise the Authorization header must carry a bearer token. On success
// the decision is attached to the request context (see GetUsername, GetRoles,
// GetTokenPayload and GetPolicyRestrictions) together with a logger carrying a user
// attribute. On failure the request is aborted with the typed JSON error:
//   - credential problems → 403 Unauthenticated
//   - missing roles → 401 Unauthorized
//   - infrastructure failures → 500 Internal Server Error
//
// Usage:
//
//	router.DELETE("/api/v1/apiKey/org/:keyId",
//	    AuthorizeMiddleware(authorizer, RouteAuth{
//	        RequiredRoles:     []authDomain.Role{authDomain.RoleManageOrgAPIKeys},
//	        DisableAPIKeyAuth: true,
//	    }, logger),
//	    handler)
func AuthorizeMiddleware(
	authorizer authUseCase.Authorizer,
	route RouteAuth,
	logger *slog.Logger,
) gin.HandlerFunc {
	required := authDomain.NewRoleSet(route.RequiredRoles...)

	return func(c *gin.Context) {
		decision, err := authorizer.Authorize(c.Request.Context(), &authUseCase.AuthorizationRequest{
			APIKey:              c.GetHeader(HeaderAPIKey),
			AuthorizationHeader: c.GetHeader(HeaderAuthorization),
			RequiredRoles:       required,
			DisableAPIKeyAuth:   route.DisableAPIKeyAuth,
		})
		if err != nil {
			httputil.AbortWithErrorGin(c, err, logger)
			return
		}

		ctx := c.Request.Context()
		ctx = WithUsername(ctx, decision.Username)
		ctx = WithRoles(ctx, decision.Roles)
		if decision.TokenPayload != nil {
			ctx = WithTokenPayload(ctx, decision.TokenPayload)
		}
		ctx = WithPolicyRestrictions(ctx, decision.PolicyRestrictions)
		ctx = WithLogger(ctx, logger.With(slog.String("user", decision.Username)))
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authorization successful",
			slog.String("user", decision.Username),
			slog.Any("roles", decision.Roles.Strings()),
			slog.String("path", c.FullPath()))

		c.Next()
	}
}
