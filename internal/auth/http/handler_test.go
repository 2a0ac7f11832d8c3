package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
)

// createTestContext creates a gin test context with an optional JSON body.
func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var raw []byte
	switch v := body.(type) {
	case nil:
	case string:
		raw = []byte(v)
	default:
		raw, _ = json.Marshal(v)
	}

	c.Request = httptest.NewRequest(method, path, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

// withPrincipal attaches an authorized principal as AuthorizeMiddleware would.
func withPrincipal(c *gin.Context, username string, claims authDomain.Claims, roles ...authDomain.Role) {
	ctx := WithUsername(c.Request.Context(), username)
	ctx = WithRoles(ctx, authDomain.NewRoleSet(roles...))
	if claims != nil {
		ctx = WithTokenPayload(ctx, claims)
	}
	c.Request = c.Request.WithContext(ctx)
}
