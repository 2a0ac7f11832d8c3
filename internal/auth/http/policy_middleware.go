package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
	"github.com/acm-uiuc/authcore/internal/httputil"
	"github.com/acm-uiuc/authcore/internal/policy"
)

// maxPolicyBodyBytes bounds how much of a request body is buffered for policy checks.
const maxPolicyBodyBytes = 1 << 20

// PolicyEvaluator runs policy restrictions against a request.
type PolicyEvaluator interface {
	EvaluateAll(ctx context.Context, req *policy.Request, restrictions []authDomain.PolicyRestriction) policy.Result
}

// PolicyMiddleware enforces the policy restrictions attached to the request principal.
//
// MUST be used after AuthorizeMiddleware. Bearer token principals carry no restrictions
// and pass through. The JSON body is buffered and restored so downstream handlers can
// still bind it. Bodies over maxPolicyBodyBytes are rejected with 413 rather than
// evaluated in part. A denial aborts with 401 and the policy message.
func PolicyMiddleware(evaluator PolicyEvaluator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		restrictions, _ := GetPolicyRestrictions(c.Request.Context())
		if len(restrictions) == 0 {
			c.Next()
			return
		}

		body, err := bufferBody(c)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httputil.AbortWithErrorGin(c, apperrors.NewPayloadTooLarge(
					fmt.Sprintf("Request body must not exceed %d bytes.", tooLarge.Limit),
				), logger)
				return
			}
			httputil.HandleBadRequestGin(c, err, logger)
			c.Abort()
			return
		}

		username, _ := GetUsername(c.Request.Context())
		result := evaluator.EvaluateAll(c.Request.Context(), &policy.Request{
			Method:   c.Request.Method,
			Path:     c.Request.URL.Path,
			Body:     body,
			Query:    c.Request.URL.Query(),
			Username: username,
		}, restrictions)

		if !result.Allowed {
			httputil.AbortWithErrorGin(c, apperrors.NewUnauthorized(result.Message), logger)
			return
		}

		c.Next()
	}
}

// bufferBody reads the request body and puts it back for later readers.
func bufferBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil, nil
	}

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPolicyBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "failed to read request body")
	}
	_ = c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, nil
}
