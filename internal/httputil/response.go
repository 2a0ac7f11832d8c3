// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

// ToAppError maps any error onto the client-facing AppError family. AppErrors pass
// through unchanged; sentinel errors are translated; everything else becomes a
// generic internal error so internals are never leaked.
func ToAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		return apperrors.NewNotFound("The requested resource was not found.")
	case apperrors.Is(err, apperrors.ErrInvalidInput), apperrors.Is(err, apperrors.ErrConflict):
		return apperrors.NewValidation(err.Error())
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return apperrors.NewUnauthenticated("Authentication is required.")
	case apperrors.Is(err, apperrors.ErrForbidden):
		return apperrors.NewUnauthorized("")
	default:
		return apperrors.NewInternalServer("")
	}
}

// HandleErrorGin renders err as a typed JSON error body with its status code.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	appErr := ToAppError(err)

	if logger != nil {
		attrs := []any{
			slog.Int("status_code", appErr.HTTPStatus),
			slog.String("error_name", appErr.Name),
			slog.Any("error", err),
		}
		if appErr.InternalLog != "" {
			attrs = append(attrs, slog.String("internal_log", appErr.InternalLog))
		}
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error("request failed", attrs...)
		} else {
			logger.Warn("request rejected", attrs...)
		}
	}

	c.JSON(appErr.HTTPStatus, appErr.Body())
}

// AbortWithErrorGin renders err and stops the handler chain.
func AbortWithErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	HandleErrorGin(c, err, logger)
	c.Abort()
}

// HandleBadRequestGin writes a 400 ValidationError for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, apperrors.NewValidation(err.Error()).Body())
}

// HandleValidationErrorGin writes a 400 ValidationError for body validation failures.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, apperrors.NewValidation(err.Error()).Body())
}
