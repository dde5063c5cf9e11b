package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminIDKey is the gin context key holding the authenticated admin id.
const AdminIDKey = "admin_id"

type TokenValidator interface {
	ValidateToken(token string) (int64, error)
}

// JWTAuth accepts a bearer token in the Authorization header.
func JWTAuth(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		authorize(c, auth, parts[1])
	}
}

// QueryTokenAuth reads the token from ?token= for browser websocket
// clients, which cannot set headers on the upgrade request.
func QueryTokenAuth(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		authorize(c, auth, token)
	}
}

func authorize(c *gin.Context, auth TokenValidator, token string) {
	adminID, err := auth.ValidateToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	c.Set(AdminIDKey, adminID)
	c.Next()
}

// AdminID returns the id stored by JWTAuth or QueryTokenAuth.
func AdminID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(AdminIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
