package middleware

import (
	"net/http"

	"kam-backend/models"

	"github.com/gin-gonic/gin"
)

// RoleAuthorization allows the request through only when the session role is in allowed.
func RoleAuthorization(allowed ...models.Role) gin.HandlerFunc {
	roleSet := make(map[models.Role]struct{}, len(allowed))
	for _, r := range allowed {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization token is required"})
			return
		}
		if _, allowed := roleSet[claims.Role]; !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Access denied. You do not have the required permissions.",
			})
			return
		}
		c.Next()
	}
}
