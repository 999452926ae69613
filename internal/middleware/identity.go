package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-demo/watchparty/internal/dto/response"
)

const (
	UserIDHeader = "X-User-ID"
	UserIDKey    = "user_id"
)

// Identity binds a request to the caller's session via the X-User-ID
// header. The id is handed out by the create and join endpoints; there are
// no accounts and no credentials behind it.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			response.Unauthorized(c, "missing "+UserIDHeader+" header")
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// OptionalIdentity stores the caller's id when the header is present and
// lets the request through either way.
func OptionalIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := strings.TrimSpace(c.GetHeader(UserIDHeader)); userID != "" {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	}
}

// GetUserID retrieves user ID from context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return ""
	}
	return userID.(string)
}
