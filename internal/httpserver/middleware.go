package httpserver

import (
	"net/http"
	"strings"

	"partsmarket/internal/domain"

	"github.com/gin-gonic/gin"
)

const userCtxKey = "authedUser"

// authRequired resolves the Bearer token to a user and stashes it in the
// gin context for the handlers downstream.
func authRequired(svc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}
		user, err := svc.LookupByToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}
		c.Set(userCtxKey, user)
		c.Next()
	}
}

// requireRole gates a route group to one role.
func requireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c).Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden"})
			return
		}
		c.Next()
	}
}

// currentUser returns the user set by authRequired. Routes outside the
// authed group must not call it.
func currentUser(c *gin.Context) *domain.User {
	v, _ := c.Get(userCtxKey)
	if u, ok := v.(*domain.User); ok {
		return u
	}
	return &domain.User{}
}
