package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/legalchicks/coopnet/internal/server/handlers"
	"github.com/legalchicks/coopnet/internal/service/auth"
)

// RequireAuth validates the bearer token and stores the caller's profile for
// downstream handlers. Unauthenticated requests get a 401 carrying the path
// they asked for, so the client can return there after signing in.
func RequireAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "sign in required",
				"redirectTo": c.Request.URL.RequestURI(),
			})
			return
		}

		profile, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "session is invalid or has expired",
				"redirectTo": c.Request.URL.RequestURI(),
			})
			return
		}

		handlers.SetCurrentProfile(c, profile)
		c.Next()
	}
}

// RequireAdmin rejects callers whose role is not an admin tier. It must run
// after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := handlers.CurrentProfile(c)
		if !ok || !profile.Role.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// bearerToken extracts the session token from the Authorization header, or
// from the token query parameter for websocket clients that cannot set
// headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
