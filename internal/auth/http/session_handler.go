package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acm-uiuc/authcore/internal/auth/http/dto"
	authUseCase "github.com/acm-uiuc/authcore/internal/auth/usecase"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
	"github.com/acm-uiuc/authcore/internal/httputil"
)

// SessionHandler serves the caller-facing session routes.
type SessionHandler struct {
	sessionUseCase authUseCase.SessionUseCase
	logger         *slog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessionUseCase authUseCase.SessionUseCase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionUseCase: sessionUseCase,
		logger:         logger,
	}
}

// ProtectedHandler echoes the authorized principal.
// GET /api/v1/protected
func (h *SessionHandler) ProtectedHandler(c *gin.Context) {
	username, _ := GetUsername(c.Request.Context())
	roles, _ := GetRoles(c.Request.Context())

	c.JSON(http.StatusOK, dto.ProtectedResponse{
		Username: username,
		Roles:    roles.Strings(),
	})
}

// ClearSessionHandler drops the caller's cached roles and revokes the presented token.
// POST /api/v1/clearSession
// Returns 201 Created with an empty body.
func (h *SessionHandler) ClearSessionHandler(c *gin.Context) {
	username, ok := GetUsername(c.Request.Context())
	if !ok || username == "" {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}
	claims, _ := GetTokenPayload(c.Request.Context())

	if err := h.sessionUseCase.ClearSession(c.Request.Context(), username, claims); err != nil {
		httputil.HandleErrorGin(c, err, LoggerFrom(c.Request.Context(), h.logger))
		return
	}

	c.Status(http.StatusCreated)
}
