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

// IAMHandler administers group and user role mappings. Every route requires admin:iam.
type IAMHandler struct {
	iamUseCase authUseCase.IAMUseCase
	logger     *slog.Logger
}

// NewIAMHandler creates a new IAM handler with required dependencies.
func NewIAMHandler(iamUseCase authUseCase.IAMUseCase, logger *slog.Logger) *IAMHandler {
	return &IAMHandler{
		iamUseCase: iamUseCase,
		logger:     logger,
	}
}

// GetGroupRolesHandler returns the roles mapped to a group as a JSON array.
// GET /api/v1/iam/groups/:groupId/roles
func (h *IAMHandler) GetGroupRolesHandler(c *gin.Context) {
	mapping, err := h.iamUseCase.GetGroupRoles(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		httputil.HandleErrorGin(c, err, LoggerFrom(c.Request.Context(), h.logger))
		return
	}
	c.JSON(http.StatusOK, mapping.Roles)
}

// SetGroupRolesHandler replaces the roles mapped to a group.
// PUT /api/v1/iam/groups/:groupId/roles
func (h *IAMHandler) SetGroupRolesHandler(c *gin.Context) {
	req, ok := h.bindSetRoles(c, dto.ValidateGroupID(c.Param("groupId")))
	if !ok {
		return
	}

	actor, _ := GetUsername(c.Request.Context())
	input := req.ToInput(c.Param("groupId"), actor, requestid.Get(c))
	if err := h.iamUseCase.SetGroupRoles(c.Request.Context(), input); err != nil {
		httputil.HandleErrorGin(c, err, LoggerFrom(c.Request.Context(), h.logger))
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "OK"})
}

// GetUserRolesHandler returns a user's override roles as a JSON array.
// GET /api/v1/iam/users/:userEmail/roles
func (h *IAMHandler) GetUserRolesHandler(c *gin.Context) {
	mapping, err := h.iamUseCase.GetUserRoles(c.Request.Context(), c.Param("userEmail"))
	if err != nil {
		httputil.HandleErrorGin(c, err, LoggerFrom(c.Request.Context(), h.logger))
		return
	}
	c.JSON(http.StatusOK, mapping.Roles)
}

// SetUserRolesHandler replaces a user's override roles and drops their cached roles.
// PUT /api/v1/iam/users/:userEmail/roles
func (h *IAMHandler) SetUserRolesHandler(c *gin.Context) {
	req, ok := h.bindSetRoles(c, dto.ValidateUserEmail(c.Param("userEmail")))
	if !ok {
		return
	}

	actor, _ := GetUsername(c.Request.Context())
	input := req.ToInput(c.Param("userEmail"), actor, requestid.Get(c))
	if err := h.iamUseCase.SetUserRoles(c.Request.Context(), input); err != nil {
		httputil.HandleErrorGin(c, err, LoggerFrom(c.Request.Context(), h.logger))
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "OK"})
}

func (h *IAMHandler) bindSetRoles(c *gin.Context, targetErr error) (*dto.SetRolesRequest, bool) {
	if targetErr != nil {
		httputil.HandleValidationErrorGin(c, targetErr, h.logger)
		return nil, false
	}

	var req dto.SetRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return nil, false
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return nil, false
	}
	return &req, true
}
