package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wdmmg/finance-api/utils"
)

const (
	userIDKey = "user_id"
	emailKey  = "email"
)

// AuthMiddleware validates the bearer token and stores the caller identity in
// the request context. Every protected route sits behind this; the extracted
// user id scopes all downstream queries.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c, "Invalid authorization header")
			return
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"kind": utils.KindAuth, "message": message},
	})
}

// GetUserID returns the authenticated user id, or "" if unauthenticated.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetEmail returns the authenticated user's email, or "".
func GetEmail(c *gin.Context) string {
	return c.GetString(emailKey)
}
