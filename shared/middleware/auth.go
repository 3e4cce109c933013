// Package middleware holds the gin.HandlerFunc chain every route group
// shares: bearer-token authentication and request-id tagging.
package middleware

import (
	"net/http"
	"strings"

	"parcel-dispatch/shared/auth"

	"github.com/gin-gonic/gin"
)

const claimsContextKey = "auth_claims"

// AuthMiddleware validates the bearer token on every request in the group
// it's attached to and stores the parsed claims in the gin context for
// handlers to read via Claims(c).
func AuthMiddleware(validator *auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

// RequireRole rejects requests whose validated claims don't carry role.
// It must run after Auth in the chain.
func RequireRole(role auth.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		if claims.Role != string(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// Claims retrieves the token claims Auth stored on the context.
func Claims(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}
