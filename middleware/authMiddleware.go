package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"kam-backend/helpers"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// Revoker reports whether a session token has been revoked at logout.
type Revoker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// BearerToken extracts the session token from "Authorization: Bearer <token>",
// falling back to the legacy "token" header.
func BearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token := strings.TrimPrefix(auth, "Bearer "); token != auth {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.Header.Get("token")
}

// Authentication rejects requests without a valid, unrevoked session token.
// revoker may be nil.
func Authentication(secret string, revoker Revoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientToken := BearerToken(c.Request)
		if clientToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization token is required"})
			return
		}
		claims, err := helpers.ValidateToken(clientToken, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		if revoker != nil {
			revoked, err := revoker.IsRevoked(c.Request.Context(), clientToken)
			if err != nil {
				log.Printf("token revocation check failed: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Unable to verify session"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Session has been logged out"})
				return
			}
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Claims returns the session claims stored by Authentication.
func Claims(c *gin.Context) (*helpers.SignedDetails, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*helpers.SignedDetails)
	return claims, ok
}
