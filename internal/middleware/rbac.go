package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
)

// RequireRole admits principals holding one of roles.
func RequireRole(authService *service.AuthService, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := authService.RequireRole(GetPrincipal(c), roles...); err != nil {
			response.AbortError(c, err)
			return
		}
		c.Next()
	}
}

// RequirePermission admits principals whose role grants perm.
func RequirePermission(authService *service.AuthService, perm model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := authService.RequirePermission(GetPrincipal(c), perm); err != nil {
			response.AbortError(c, err)
			return
		}
		c.Next()
	}
}

// RequireAnyPermission admits principals holding at least one of perms.
func RequireAnyPermission(authService *service.AuthService, perms ...model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := authService.RequireAnyPermission(GetPrincipal(c), perms...); err != nil {
			response.AbortError(c, err)
			return
		}
		c.Next()
	}
}
