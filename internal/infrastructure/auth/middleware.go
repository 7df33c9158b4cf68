package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextUserKey is where RequireUser stores the authenticated user id.
const ContextUserKey = "auth.userID"

// RequireUser is a gin middleware that resolves the current user from a
// Bearer token. Requests without a valid token are rejected before any
// handler (and therefore any backend call) runs. Websocket clients may pass
// the token as a "token" query parameter since browsers cannot set headers
// on upgrade requests.
func RequireUser(a *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrNotAuthenticated.Error()})
			return
		}

		claims, err := a.ValidateToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrNotAuthenticated.Error()})
			return
		}

		c.Set(ContextUserKey, claims.UserID)
		c.Next()
	}
}

// CurrentUser returns the authenticated user id set by RequireUser, or
// ErrNotAuthenticated when none is present.
func CurrentUser(c *gin.Context) (string, error) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return "", ErrNotAuthenticated
	}
	userID, ok := v.(string)
	if !ok || userID == "" {
		return "", ErrNotAuthenticated
	}
	return userID, nil
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
