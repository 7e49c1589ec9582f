package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PedroBarbosa73/chat-app/internal/auth"
)

// ContextKeySession is where the middleware stashes the authenticated
// session for handlers downstream.
const ContextKeySession = "session"

// AuthMiddleware runs every protected request through the session gate. The
// gate re-validates the identity on each call, so a deleted user's token
// stops working immediately, not at expiry.
func AuthMiddleware(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		session, err := gate.RequireAuthenticated(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeySession, session)
		c.Next()
	}
}

// GetSession returns the authenticated session, or nil outside the
// protected group.
func GetSession(c *gin.Context) *auth.Session {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	session, ok := val.(*auth.Session)
	if !ok {
		return nil
	}
	return session
}
