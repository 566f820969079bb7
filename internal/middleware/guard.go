package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/internal/service"
	"github.com/noah-isme/student-console-api/internal/session"
	appErrors "github.com/noah-isme/student-console-api/pkg/errors"
	"github.com/noah-isme/student-console-api/pkg/response"
)

// Context keys set by the guard.
const (
	ContextClaimsKey  = "sessionClaims"
	ContextSessionKey = "currentSession"
	ContextTokenKey   = "sessionToken"
)

// Guard protects routes behind the session cell. Anonymous callers are
// denied with a single redirect hint to the sign-in location; callers
// whose session status has not resolved yet are denied without one, so
// an in-flight lookup never bounces an operator who is about to be let
// in. A cell failure denies like an anonymous caller: the guard fails
// closed.
func Guard(authService *service.AuthService, cell session.Cell, signInPath string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.ErrorRedirect(c, appErrors.Clone(appErrors.ErrUnauthorized, "sign-in required"), signInPath)
			c.Abort()
			return
		}

		claims, err := authService.ParseToken(token)
		if err != nil {
			response.ErrorRedirect(c, err, signInPath)
			c.Abort()
			return
		}

		status, sess, err := cell.Status(c.Request.Context(), token)
		if err != nil {
			logger.Warn("session cell unreachable, denying", zap.Error(err))
			response.ErrorRedirect(c, appErrors.Clone(appErrors.ErrUnauthorized, "sign-in required"), signInPath)
			c.Abort()
			return
		}

		switch status {
		case session.StatusAuthenticated:
			c.Set(ContextClaimsKey, claims)
			c.Set(ContextSessionKey, sess)
			c.Set(ContextTokenKey, token)
			c.Next()
		case session.StatusUnknown:
			// Lookup has not resolved; deny without a redirect.
			response.Error(c, appErrors.ErrAuthPending)
			c.Abort()
		default:
			// Token parsed but the session is gone. Reset the cell so
			// later lookups short-circuit to anonymous.
			if clearErr := cell.Clear(c.Request.Context(), token); clearErr != nil {
				logger.Warn("failed to clear stale session", zap.Error(clearErr))
			}
			response.ErrorRedirect(c, appErrors.Clone(appErrors.ErrUnauthorized, "session expired"), signInPath)
			c.Abort()
		}
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
