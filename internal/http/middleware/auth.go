package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
)

// ctxKeyUserID is the Gin context key holding the authenticated user id. The
// logger, rate limiter and idempotency validator read it.
const ctxKeyUserID = "userID"

// Authenticate resolves "Authorization: Bearer <token>" with p. A valid token
// puts the identity on the request context and the user id in the Gin
// context. Missing or invalid tokens leave the request anonymous; mutations
// are refused later by the authorization gate.
func Authenticate(p auth.IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" || p == nil {
			c.Next()
			return
		}
		id, err := p.Resolve(c.Request.Context(), token)
		if err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("ignoring invalid session token")
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Set(ctxKeyUserID, id.UserID)
		c.Next()
	}
}

func bearerToken(h string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
