package service

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/acm-uiuc/authcore/internal/auth/domain"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

type mockSigningKeyProvider struct {
	mock.Mock
}

func (m *mockSigningKeyProvider) SigningKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	args := m.Called(ctx, kid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rsa.PublicKey), args.Error(1)
}

const testClientID = "5e08cf0f-53bb-4e09-9df2-e9bdc3fe7d2a"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signHS256(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, status, appErr.HTTPStatus)
	assert.Equal(t, message, appErr.Message)
}

func TestTokenVerifier_LocalTokens(t *testing.T) {
	ctx := context.Background()
	signingKey := "local-development-key"
	validClaims := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":   domain.LocalIssuer,
			"sub":   "dev-user",
			"email": "dev@illinois.edu",
			"exp":   testNow.Add(time.Hour).Unix(),
			"iat":   testNow.Unix(),
		}
	}

	t.Run("Success_DevEnvironment", func(t *testing.T) {
		verifier := NewTokenVerifier(TokenVerifierConfig{
			RunEnvironment:  domain.RunEnvironmentDev,
			LocalSigningKey: signingKey,
			Now:             func() time.Time { return testNow },
		}, &mockSigningKeyProvider{}, discardLogger())

		claims, err := verifier.Verify(ctx, signHS256(t, signingKey, validClaims()))
		require.NoError(t, err)
		require.IsType(t, &domain.LocalDevToken{}, claims)
		assert.Equal(t, "dev@illinois.edu", claims.Common().Email)
		assert.Equal(t, "dev@illinois.edu", domain.PrincipalID(claims))
	})

	t.Run("Error_RejectedInProd", func(t *testing.T) {
		verifier := NewTokenVerifier(TokenVerifierConfig{
			RunEnvironment:  domain.RunEnvironmentProd,
			LocalSigningKey: signingKey,
			Now:             func() time.Time { return testNow },
		}, &mockSigningKeyProvider{}, discardLogger())

		_, err := verifier.Verify(ctx, signHS256(t, signingKey, validClaims()))
		requireAppError(t, err, http.StatusForbidden, MsgCustomJWTInProd)
	})

	t.Run("Error_NoLocalKeyConfigured", func(t *testing.T) {
		verifier := NewTokenVerifier(TokenVerifierConfig{
			RunEnvironment: domain.RunEnvironmentDev,
			Now:            func() time.Time { return testNow },
		}, &mockSigningKeyProvider{}, discardLogger())

		_, err := verifier.Verify(ctx, signHS256(t, signingKey, validClaims()))
		requireAppError(t, err, http.StatusForbidden, MsgInvalidToken)
	})

	t.Run("Error_WrongSignature", func(t *testing.T) {
		verifier := NewTokenVerifier(TokenVerifierConfig{
			RunEnvironment:  domain.RunEnvironmentDev,
			LocalSigningKey: signingKey,
			Now:             func() time.Time { return testNow },
		}, &mockSigningKeyProvider{}, discardLogger())

		_, err := verifier.Verify(ctx, signHS256(t, "another-key", validClaims()))
		requireAppError(t, err, http.StatusForbidden, MsgInvalidToken)
	})

	t.Run("Error_Expired", func(t *testing.T) {
		verifier := NewTokenVerifier(TokenVerifierConfig{
			RunEnvironment:  domain.RunEnvironmentDev,
			LocalSigningKey: signingKey,
			Now:             func() time.Time { return testNow.Add(2 * time.Hour) },
		}, &mockSigningKeyProvider{}, discardLogger())

		_, err := verifier.Verify(ctx, signHS256(t, signingKey, validClaims()))
		requireAppError(t, err, http.StatusForbidden, MsgTokenExpired)
	})

	t.Run("Error_NoPrincipal", func(t *testing.T) {
		verifier := NewTokenVerifier(TokenVerifierConfig{
			RunEnvironment:  domain.RunEnvironmentDev,
			LocalSigningKey: signingKey,
			Now:             func() time.Time { return testNow },
		}, &mockSigningKeyProvider{}, discardLogger())

		_, err := verifier.Verify(ctx, signHS256(t, signingKey, jwt.MapClaims{
			"iss": domain.LocalIssuer,
			"exp": testNow.Add(time.Hour).Unix(),
		}))
		requireAppError(t, err, http.StatusForbidden, MsgInvalidToken)
	})
}

func TestTokenVerifier_ExternalTokens(t *testing.T) {
	ctx := context.Background()
	privateKey := generateRSAKey(t)
	validClaims := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":   "https://sts.windows.net/tenant/",
			"aud":   "api://" + testClientID,
			"sub":   "subject-1",
			"upn":   "netid@acm.illinois.edu",
			"name":  "Test User",
			"uti":   "token-uti",
			"tid":   "tenant",
			"oid":   "object",
			"roles": []string{"events:manage"},
			"exp":   testNow.Add(time.Hour).Unix(),
			"iat":   testNow.Unix(),
		}
	}
	newVerifier := func(keys SigningKeyProvider, clientID string) TokenVerifier {
		return NewTokenVerifier(TokenVerifierConfig{
			RunEnvironment: domain.RunEnvironmentProd,
			ClientID:       clientID,
			Now:            func() time.Time { return testNow },
		}, keys, discardLogger())
	}

	t.Run("Success_ValidToken", func(t *testing.T) {
		keys := &mockSigningKeyProvider{}
		keys.On("SigningKey", ctx, "kid-1").Return(&privateKey.PublicKey, nil).Once()

		claims, err := newVerifier(keys, testClientID).Verify(ctx, signRS256(t, privateKey, "kid-1", validClaims()))
		require.NoError(t, err)

		external, ok := claims.(*domain.ExternalIdentityToken)
		require.True(t, ok)
		assert.Equal(t, "token-uti", external.UTI)
		assert.Equal(t, "tenant", external.TenantID)
		assert.Equal(t, []string{"api://" + testClientID}, external.Audience)
		assert.Equal(t, testNow.Add(time.Hour).Unix(), external.ExpiresAt)
		assert.Equal(t, "netid@illinois.edu", domain.PrincipalID(claims))
		keys.AssertExpectations(t)
	})

	t.Run("Error_Expired", func(t *testing.T) {
		keys := &mockSigningKeyProvider{}
		keys.On("SigningKey", ctx, "kid-1").Return(&privateKey.PublicKey, nil).Once()
		claims := validClaims()
		claims["exp"] = testNow.Add(-time.Minute).Unix()

		_, err := newVerifier(keys, testClientID).Verify(ctx, signRS256(t, privateKey, "kid-1", claims))
		requireAppError(t, err, http.StatusForbidden, MsgTokenExpired)
	})

	t.Run("Error_WrongAudience", func(t *testing.T) {
		keys := &mockSigningKeyProvider{}
		keys.On("SigningKey", ctx, "kid-1").Return(&privateKey.PublicKey, nil).Once()
		claims := validClaims()
		claims["aud"] = "api://some-other-app"

		_, err := newVerifier(keys, testClientID).Verify(ctx, signRS256(t, privateKey, "kid-1", claims))
		requireAppError(t, err, http.StatusForbidden, MsgInvalidToken)
	})

	t.Run("Error_SignedByOtherKey", func(t *testing.T) {
		other := generateRSAKey(t)
		keys := &mockSigningKeyProvider{}
		keys.On("SigningKey", ctx, "kid-1").Return(&privateKey.PublicKey, nil).Once()

		_, err := newVerifier(keys, testClientID).Verify(ctx, signRS256(t, other, "kid-1", validClaims()))
		requireAppError(t, err, http.StatusForbidden, MsgInvalidToken)
	})

	t.Run("Error_MissingClientIDIsMisconfiguration", func(t *testing.T) {
		keys := &mockSigningKeyProvider{}

		_, err := newVerifier(keys, "").Verify(ctx, signRS256(t, privateKey, "kid-1", validClaims()))
		requireAppError(t, err, http.StatusInternalServerError, MsgAuthMisconfigured)
		keys.AssertNotCalled(t, "SigningKey", mock.Anything, mock.Anything)
	})

	t.Run("Error_MissingKid", func(t *testing.T) {
		keys := &mockSigningKeyProvider{}

		_, err := newVerifier(keys, testClientID).Verify(ctx, signRS256(t, privateKey, "", validClaims()))
		requireAppError(t, err, http.StatusForbidden, MsgInvalidToken)
	})

	t.Run("Error_UnknownKidIsInvalidToken", func(t *testing.T) {
		keys := &mockSigningKeyProvider{}
		keys.On("SigningKey", ctx, "kid-9").Return(nil, ErrSigningKeyNotFound).Once()

		_, err := newVerifier(keys, testClientID).Verify(ctx, signRS256(t, privateKey, "kid-9", validClaims()))
		requireAppError(t, err, http.StatusForbidden, MsgInvalidToken)
	})

	t.Run("Error_FetchFailurePropagates", func(t *testing.T) {
		keys := &mockSigningKeyProvider{}
		fetchErr := errors.Join(ErrJWKSTimeout)
		keys.On("SigningKey", ctx, "kid-1").Return(nil, fetchErr).Once()

		_, err := newVerifier(keys, testClientID).Verify(ctx, signRS256(t, privateKey, "kid-1", validClaims()))
		assert.ErrorIs(t, err, ErrJWKSTimeout)
		_, isAppErr := apperrors.AsAppError(err)
		assert.False(t, isAppErr)
	})

	t.Run("Error_NotAJWT", func(t *testing.T) {
		_, err := newVerifier(&mockSigningKeyProvider{}, testClientID).Verify(ctx, "definitely.not.ajwt")
		requireAppError(t, err, http.StatusForbidden, MsgInvalidToken)
	})
}
