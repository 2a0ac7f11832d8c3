package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/acm-uiuc/authcore/internal/auth/http/dto"
	authUseCase "github.com/acm-uiuc/authcore/internal/auth/usecase"
	"github.com/acm-uiuc/authcore/internal/httputil"
)

// APIKeyHandler handles HTTP requests for organization API key management.
type APIKeyHandler struct {
	apiKeyUseCase authUseCase.APIKeyUseCase
	logger        *slog.Logger
}

// NewAPIKeyHandler creates a new API key handler with required dependencies.
func NewAPIKeyHandler(apiKeyUseCase authUseCase.APIKeyUseCase, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyUseCase: apiKeyUseCase,
		logger:        logger,
	}
}

// CreateHandler issues a new organization API key.
// POST /api/v1/apiKey/org
// Requires manage:orgApiKey via a bearer token. Returns 201 Created with the full key,
// which is never retrievable again.
func (h *APIKeyHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	owner, _ := GetUsername(c.Request.Context())
	output, err := h.apiKeyUseCase.Create(c.Request.Context(), req.ToInput(owner, requestid.Get(c)))
	if err != nil {
		httputil.HandleErrorGin(c, err, LoggerFrom(c.Request.Context(), h.logger))
		return
	}

	c.JSON(http.StatusCreated, dto.MapCreateAPIKeyOutput(output))
}

// DeleteHandler revokes an organization API key.
// DELETE /api/v1/apiKey/org/:keyId
// Returns 204 No Content. Unknown keys are a 400 validation error.
func (h *APIKeyHandler) DeleteHandler(c *gin.Context) {
	actor, _ := GetUsername(c.Request.Context())
	err := h.apiKeyUseCase.Revoke(c.Request.Context(), c.Param("keyId"), actor, requestid.Get(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, LoggerFrom(c.Request.Context(), h.logger))
		return
	}

	c.Status(http.StatusNoContent)
}

// ListHandler lists key records without their hashes.
// GET /api/v1/apiKey/org?offset=0&limit=50
func (h *APIKeyHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	keys, err := h.apiKeyUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, LoggerFrom(c.Request.Context(), h.logger))
		return
	}

	c.JSON(http.StatusOK, dto.MapAPIKeysToListResponse(keys))
}
