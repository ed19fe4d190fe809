package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/errors"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "session_id"
	OwnerKey      = "owner_key"

	maxSessionLength = 128
)

// RequireSession resolves the cart owner from the X-Session-ID header, falling
// back to the session_id cookie, and aborts with 401 when neither is usable.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		session := strings.TrimSpace(c.GetHeader(SessionHeader))
		if session == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				session = strings.TrimSpace(cookie)
			}
		}

		if session == "" {
			log.Warn("Missing session", map[string]interface{}{"path": c.Request.URL.Path})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.SessionRequired, "A session id is required")
			c.Abort()
			return
		}
		if len(session) > maxSessionLength {
			log.Warn("Session id too long", map[string]interface{}{"length": len(session)})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.SessionInvalid, "The session id is invalid")
			c.Abort()
			return
		}

		c.Set(OwnerKey, session)
		c.Next()
	}
}

// GetOwnerKey returns the session resolved by RequireSession.
func GetOwnerKey(c *gin.Context) (string, bool) {
	owner := c.GetString(OwnerKey)
	return owner, owner != ""
}
