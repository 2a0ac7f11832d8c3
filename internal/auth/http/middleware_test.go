package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	authUseCase "github.com/acm-uiuc/authcore/internal/auth/usecase"
	"github.com/acm-uiuc/authcore/internal/auth/usecase/mocks"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
	"github.com/acm-uiuc/authcore/internal/policy"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// createTestLogger creates a test logger that discards output.
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthorizeMiddleware(t *testing.T) {
	route := RouteAuth{RequiredRoles: []authDomain.Role{authDomain.RoleEventsManager}}

	t.Run("Success_AttachesDecisionToContext", func(t *testing.T) {
		authorizer := &mocks.MockAuthorizer{}
		claims := &authDomain.ExternalIdentityToken{TokenClaims: authDomain.TokenClaims{Email: "user@illinois.edu"}}
		authorizer.On("Authorize", mock.Anything, mock.MatchedBy(func(req *authUseCase.AuthorizationRequest) bool {
			return req.AuthorizationHeader == "Bearer jwt" &&
				req.APIKey == "" &&
				req.RequiredRoles.Has(authDomain.RoleEventsManager) &&
				!req.DisableAPIKeyAuth
		})).Return(&authUseCase.Decision{
			Username:     "user@illinois.edu",
			Roles:        authDomain.NewRoleSet(authDomain.RoleEventsManager),
			TokenPayload: claims,
		}, nil).Once()

		router := gin.New()
		router.Use(AuthorizeMiddleware(authorizer, route, createTestLogger()))
		router.GET("/test", func(c *gin.Context) {
			ctx := c.Request.Context()
			username, ok := GetUsername(ctx)
			require.True(t, ok)
			assert.Equal(t, "user@illinois.edu", username)

			roles, ok := GetRoles(ctx)
			require.True(t, ok)
			assert.True(t, roles.Has(authDomain.RoleEventsManager))

			payload, ok := GetTokenPayload(ctx)
			require.True(t, ok)
			assert.Equal(t, claims, payload)

			restrictions, _ := GetPolicyRestrictions(ctx)
			assert.Empty(t, restrictions)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer jwt")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		authorizer.AssertExpectations(t)
	})

	t.Run("Success_APIKeyHasNoTokenPayload", func(t *testing.T) {
		authorizer := &mocks.MockAuthorizer{}
		restrictions := []authDomain.PolicyRestriction{{Name: "EventsHostRestrictionPolicy"}}
		authorizer.On("Authorize", mock.Anything, mock.MatchedBy(func(req *authUseCase.AuthorizationRequest) bool {
			return req.APIKey == "acmuiuc_key"
		})).Return(&authUseCase.Decision{
			Username:           "acmuiuc_abcdef123456",
			Roles:              authDomain.NewRoleSet(authDomain.RoleEventsManager),
			PolicyRestrictions: restrictions,
		}, nil).Once()

		router := gin.New()
		router.Use(AuthorizeMiddleware(authorizer, route, createTestLogger()))
		router.GET("/test", func(c *gin.Context) {
			_, ok := GetTokenPayload(c.Request.Context())
			assert.False(t, ok)
			got, ok := GetPolicyRestrictions(c.Request.Context())
			require.True(t, ok)
			assert.Equal(t, restrictions, got)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("x-api-key", "acmuiuc_key")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_UnauthenticatedIs403", func(t *testing.T) {
		authorizer := &mocks.MockAuthorizer{}
		authorizer.On("Authorize", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewUnauthenticated(authUseCase.MsgMissingBearerToken)).Once()

		handlerCalled := false
		router := gin.New()
		router.Use(AuthorizeMiddleware(authorizer, route, createTestLogger()))
		router.GET("/test", func(c *gin.Context) { handlerCalled = true })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, handlerCalled)
		body := decodeErrorBody(t, w)
		assert.Equal(t, true, body["error"])
		assert.Equal(t, "UnauthenticatedError", body["name"])
		assert.Equal(t, float64(102), body["id"])
		assert.Equal(t, "Did not find bearer token in expected header.", body["message"])
	})

	t.Run("Error_UnauthorizedIs401", func(t *testing.T) {
		authorizer := &mocks.MockAuthorizer{}
		authorizer.On("Authorize", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewUnauthorized("")).Once()

		router := gin.New()
		router.Use(AuthorizeMiddleware(authorizer, route, createTestLogger()))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperrors.DefaultUnauthorizedMessage, decodeErrorBody(t, w)["message"])
	})

	t.Run("Error_InfrastructureFailureIs500", func(t *testing.T) {
		authorizer := &mocks.MockAuthorizer{}
		authorizer.On("Authorize", mock.Anything, mock.Anything).
			Return(nil, errors.New("jwks fetch timed out")).Once()

		router := gin.New()
		router.Use(AuthorizeMiddleware(authorizer, route, createTestLogger()))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "jwks")
	})

	t.Run("Success_DisableAPIKeyAuthForwarded", func(t *testing.T) {
		authorizer := &mocks.MockAuthorizer{}
		authorizer.On("Authorize", mock.Anything, mock.MatchedBy(func(req *authUseCase.AuthorizationRequest) bool {
			return req.DisableAPIKeyAuth && len(req.RequiredRoles) == 0
		})).Return(&authUseCase.Decision{Username: "user@illinois.edu", Roles: authDomain.NewRoleSet()}, nil).Once()

		router := gin.New()
		router.Use(AuthorizeMiddleware(authorizer, RouteAuth{DisableAPIKeyAuth: true}, createTestLogger()))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		authorizer.AssertExpectations(t)
	})
}

func TestPolicyMiddleware(t *testing.T) {
	evaluator := policy.NewEvaluator(policy.DefaultRegistry(), createTestLogger())
	hostRestriction := []authDomain.PolicyRestriction{{
		Name:   "EventsHostRestrictionPolicy",
		Params: map[string]any{"host": []any{"ACM", "SIGPwny"}},
	}}

	newRouter := func(restrictions []authDomain.PolicyRestriction, handler gin.HandlerFunc) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			ctx := WithUsername(c.Request.Context(), "acmuiuc_abcdef123456")
			ctx = WithPolicyRestrictions(ctx, restrictions)
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
		router.Use(PolicyMiddleware(evaluator, createTestLogger()))
		router.Any("/api/v1/events", handler)
		return router
	}

	t.Run("Success_AllowedHostBodyStillReadable", func(t *testing.T) {
		router := newRouter(hostRestriction, func(c *gin.Context) {
			var body map[string]any
			require.NoError(t, c.ShouldBindJSON(&body))
			assert.Equal(t, "ACM", body["host"])
			c.Status(http.StatusCreated)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"host":"ACM","title":"Meeting"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Error_HostNotAllowed", func(t *testing.T) {
		router := newRouter(hostRestriction, func(c *gin.Context) { c.Status(http.StatusCreated) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"host":"Infra"}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t,
			`Denied by policy "EventsHostRestrictionPolicy". Host must be one of: ACM,SIGPwny.`,
			decodeErrorBody(t, w)["message"])
	})

	t.Run("Error_FeaturedEvent", func(t *testing.T) {
		router := newRouter(hostRestriction, func(c *gin.Context) { c.Status(http.StatusCreated) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"host":"ACM","featured":true}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t,
			`Denied by policy "EventsHostRestrictionPolicy". Event must not be featured.`,
			decodeErrorBody(t, w)["message"])
	})

	t.Run("Success_GetIsOutOfScope", func(t *testing.T) {
		router := newRouter(hostRestriction, func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Success_NoRestrictionsSkipsEvaluation", func(t *testing.T) {
		router := newRouter(nil, func(c *gin.Context) { c.Status(http.StatusCreated) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"host":"Infra"}`))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Error_UnknownPolicy", func(t *testing.T) {
		router := newRouter(
			[]authDomain.PolicyRestriction{{Name: "NoSuchPolicy"}},
			func(c *gin.Context) { c.Status(http.StatusOK) },
		)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, `Denied by policy "NoSuchPolicy". Policy is not recognized.`, decodeErrorBody(t, w)["message"])
	})

	t.Run("Success_NonJSONBodyIsIgnored", func(t *testing.T) {
		router := newRouter(hostRestriction, func(c *gin.Context) {
			raw, err := io.ReadAll(c.Request.Body)
			require.NoError(t, err)
			assert.Equal(t, "not json", string(raw))
			c.Status(http.StatusAccepted)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/v1/events", strings.NewReader("not json"))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("Error_BodyKeysMatchedLikeBinding", func(t *testing.T) {
		for body, message := range map[string]string{
			`{"Host":"Infra"}`:                `Denied by policy "EventsHostRestrictionPolicy". Host must be one of: ACM,SIGPwny.`,
			`{"host":"ACM","Featured":true}`:  `Denied by policy "EventsHostRestrictionPolicy". Event must not be featured.`,
			`{"host":"ACM","featured":"yes"}`: `Denied by policy "EventsHostRestrictionPolicy". Event must not be featured.`,
		} {
			reached := false
			router := newRouter(hostRestriction, func(c *gin.Context) {
				reached = true
				c.Status(http.StatusCreated)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code, body)
			assert.Equal(t, message, decodeErrorBody(t, w)["message"], body)
			assert.False(t, reached, body)
		}
	})

	t.Run("Error_OversizedBodyRejected", func(t *testing.T) {
		reached := false
		router := newRouter(hostRestriction, func(c *gin.Context) {
			reached = true
			c.Status(http.StatusCreated)
		})

		padding := strings.Repeat(" ", maxPolicyBodyBytes)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events",
			strings.NewReader(`{"host":"ACM",`+padding+`"featured":true}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		body := decodeErrorBody(t, w)
		assert.Equal(t, "ValidationError", body["name"])
		assert.Equal(t, "Request body must not exceed 1048576 bytes.", body["message"])
		assert.False(t, reached)
	})

	t.Run("Success_BodyAtLimitAccepted", func(t *testing.T) {
		router := newRouter(hostRestriction, func(c *gin.Context) {
			raw, err := io.ReadAll(c.Request.Body)
			require.NoError(t, err)
			assert.Len(t, raw, maxPolicyBodyBytes)
			c.Status(http.StatusCreated)
		})

		prefix := `{"host":"ACM","note":"`
		body := prefix + strings.Repeat("a", maxPolicyBodyBytes-len(prefix)-2) + `"}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body)))
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}
