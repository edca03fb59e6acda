package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spotted/internal/sessions"
)

// LoadSession attaches the caller's session, when there is one, under
// sessions.ContextKey. Anonymous requests pass through untouched.
func LoadSession(manager *sessions.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := manager.Load(c.Request.Context(), c.Request)
		switch {
		case err == nil:
			c.Set(sessions.ContextKey, session)
		case !errors.Is(err, sessions.ErrNoSession):
			logger.Error("session lookup failed", zap.Error(err))
		}
		c.Next()
	}
}

// RequireSession rejects anonymous callers.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessions.Current(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
