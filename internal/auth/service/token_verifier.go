package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/acm-uiuc/authcore/internal/auth/domain"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

// Client-facing token failure messages.
const (
	MsgInvalidToken      = "Invalid token."
	MsgTokenExpired      = "Token has expired."
	MsgCustomJWTInProd   = "Custom JWTs cannot be used in Prod environment."
	MsgAuthMisconfigured = "Server authentication is misconfigured, please contact your administrator."
)

// TokenVerifierConfig configures bearer token verification.
type TokenVerifierConfig struct {
	RunEnvironment domain.RunEnvironment
	// ClientID is the identity provider application id; the expected audience is
	// api://<ClientID>.
	ClientID string
	// LocalSigningKey is the HS256 secret for locally issued development tokens.
	LocalSigningKey string
	// Now overrides the clock used for exp/nbf/iat checks.
	Now func() time.Time
}

// tokenClaims is the wire shape of both token classes.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email    string   `json:"email,omitempty"`
	UPN      string   `json:"upn,omitempty"`
	Name     string   `json:"name,omitempty"`
	Groups   []string `json:"groups,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	UTI      string   `json:"uti,omitempty"`
	TenantID string   `json:"tid,omitempty"`
	ObjectID string   `json:"oid,omitempty"`
	AppID    string   `json:"appid,omitempty"`
}

func (c *tokenClaims) common() domain.TokenClaims {
	common := domain.TokenClaims{
		Issuer:   c.Issuer,
		Subject:  c.Subject,
		Audience: c.Audience,
		Email:    c.Email,
		UPN:      c.UPN,
		Name:     c.Name,
		Groups:   c.Groups,
		Roles:    c.Roles,
		UTI:      c.UTI,
	}
	if c.ExpiresAt != nil {
		common.ExpiresAt = c.ExpiresAt.Unix()
	}
	if c.IssuedAt != nil {
		common.IssuedAt = c.IssuedAt.Unix()
	}
	return common
}

func (c *tokenClaims) hasPrincipal() bool {
	return c.Email != "" || c.UPN != "" || c.Subject != ""
}

type tokenVerifier struct {
	cfg    TokenVerifierConfig
	keys   SigningKeyProvider
	logger *slog.Logger
	parser *jwt.Parser
}

// NewTokenVerifier creates a TokenVerifier that resolves RS256 keys through keys.
func NewTokenVerifier(cfg TokenVerifierConfig, keys SigningKeyProvider, logger *slog.Logger) TokenVerifier {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &tokenVerifier{
		cfg:    cfg,
		keys:   keys,
		logger: logger,
		parser: jwt.NewParser(),
	}
}

func (v *tokenVerifier) Verify(ctx context.Context, rawToken string) (domain.Claims, error) {
	var unverified tokenClaims
	token, _, err := v.parser.ParseUnverified(rawToken, &unverified)
	if err != nil {
		return nil, apperrors.NewUnauthenticated(MsgInvalidToken).WithCause(err)
	}

	if unverified.Issuer == domain.LocalIssuer {
		return v.verifyLocal(rawToken)
	}
	return v.verifyExternal(ctx, rawToken, token)
}

func (v *tokenVerifier) verifyLocal(rawToken string) (domain.Claims, error) {
	if v.cfg.RunEnvironment == domain.RunEnvironmentProd {
		return nil, apperrors.NewUnauthenticated(MsgCustomJWTInProd)
	}
	if v.cfg.LocalSigningKey == "" {
		return nil, apperrors.NewUnauthenticated(MsgInvalidToken)
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims,
		func(*jwt.Token) (any, error) { return []byte(v.cfg.LocalSigningKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.cfg.Now),
	)
	if err != nil {
		return nil, v.mapVerifyError(err)
	}
	if !claims.hasPrincipal() {
		return nil, apperrors.NewUnauthenticated(MsgInvalidToken)
	}

	return &domain.LocalDevToken{TokenClaims: claims.common()}, nil
}

func (v *tokenVerifier) verifyExternal(ctx context.Context, rawToken string, unverified *jwt.Token) (domain.Claims, error) {
	if v.cfg.ClientID == "" {
		v.logger.Error("server is misconfigured, no identity provider client id configured")
		return nil, apperrors.NewInternalServer(MsgAuthMisconfigured)
	}

	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, apperrors.NewUnauthenticated(MsgInvalidToken)
	}

	key, err := v.keys.SigningKey(ctx, kid)
	if err != nil {
		if apperrors.Is(err, ErrSigningKeyNotFound) {
			return nil, apperrors.NewUnauthenticated(MsgInvalidToken).WithCause(err)
		}
		return nil, err
	}

	claims := &tokenClaims{}
	_, err = jwt.ParseWithClaims(rawToken, claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience("api://"+v.cfg.ClientID),
		jwt.WithTimeFunc(v.cfg.Now),
	)
	if err != nil {
		return nil, v.mapVerifyError(err)
	}
	if !claims.hasPrincipal() {
		return nil, apperrors.NewUnauthenticated(MsgInvalidToken)
	}

	return &domain.ExternalIdentityToken{
		TokenClaims: claims.common(),
		TenantID:    claims.TenantID,
		ObjectID:    claims.ObjectID,
		AppID:       claims.AppID,
	}, nil
}

func (v *tokenVerifier) mapVerifyError(err error) error {
	if apperrors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.NewUnauthenticated(MsgTokenExpired).WithCause(err)
	}
	v.logger.Warn("json web token error", slog.Any("error", err))
	return apperrors.NewUnauthenticated(MsgInvalidToken).WithCause(err)
}
