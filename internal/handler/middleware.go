package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// TokenAuthenticator resolves a session token to a user ID.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (int64, error)
}

// SessionAuth returns a Gin middleware that validates the bearer session
// token and stores the resolved user ID on the request context.
func SessionAuth(sessions TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		userID, err := sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
