package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
)

const (
	// ContextKeyPrincipal is the Gin context key for the resolved caller.
	ContextKeyPrincipal = "principal"
)

// RequireAuth resolves the bearer token into a principal and stores it on
// the context. Missing, invalid, expired, revoked and inactive credentials
// all abort with 401.
func RequireAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.AbortError(c, rbac.ErrUnauthenticated)
			return
		}

		p, err := authService.ResolvePrincipal(c.Request.Context(), token)
		if err != nil {
			response.AbortError(c, err)
			return
		}

		c.Set(ContextKeyPrincipal, p)
		c.Next()
	}
}

// GetPrincipal retrieves the resolved caller from the Gin context.
func GetPrincipal(c *gin.Context) *model.Principal {
	val, exists := c.Get(ContextKeyPrincipal)
	if !exists {
		return nil
	}
	p, ok := val.(*model.Principal)
	if !ok {
		return nil
	}
	return p
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	// WebSocket and EventSource clients cannot send headers.
	return c.Query("token")
}
