package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	"github.com/acm-uiuc/authcore/internal/auth/http/dto"
	authUseCase "github.com/acm-uiuc/authcore/internal/auth/usecase"
	"github.com/acm-uiuc/authcore/internal/httputil"
)

// AuditLogHandler handles HTTP requests for audit log operations.
type AuditLogHandler struct {
	auditLogUseCase authUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler with required dependencies.
func NewAuditLogHandler(
	auditLogUseCase authUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// ListHandler retrieves audit logs newest first.
// GET /api/v1/auditLog?module=iam&offset=0&limit=50
// Requires view:auditLog. The optional module filter must be apiKey or iam.
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	module := c.Query("module")
	switch module {
	case "", authDomain.ModuleAPIKey, authDomain.ModuleIAM:
	default:
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("module must be one of: %s,%s", authDomain.ModuleAPIKey, authDomain.ModuleIAM),
			h.logger)
		return
	}

	auditLogs, err := h.auditLogUseCase.List(c.Request.Context(), module, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, LoggerFrom(c.Request.Context(), h.logger))
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditLogsToListResponse(auditLogs))
}
