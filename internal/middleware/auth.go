package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/pkg/auth"
)

// IdentityKey is the gin context key holding the authenticated username.
const IdentityKey = "identity"

type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware requires a valid bearer token.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		identity, err := verifier.Verify(token)
		switch {
		case err == nil:
			c.Set(IdentityKey, identity)
			c.Next()
		case errors.Is(err, auth.ErrTokenExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
		case errors.Is(err, auth.ErrTokenInvalid):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		}
	}
}

// WSAuthMiddleware guards the real-time endpoint. The token comes from the
// "token" query parameter, or a bearer header as a fallback. Any failure
// refuses the upgrade with a bare 403: the connection is never admitted.
func WSAuthMiddleware(verifier TokenVerifier, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token := c.Query("token")
		if token == "" {
			token, _ = auth.ExtractTokenFromHeader(c.Request)
		}
		if token == "" {
			logger.Info(ctx, "websocket refused", "reason", "missing token", "ip", c.ClientIP())
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		identity, err := verifier.Verify(token)
		switch {
		case err == nil:
			c.Set(IdentityKey, identity)
			c.Next()
		case errors.Is(err, auth.ErrTokenExpired):
			logger.Info(ctx, "websocket refused", "reason", "token expired", "ip", c.ClientIP())
			c.AbortWithStatus(http.StatusForbidden)
		default:
			logger.Info(ctx, "websocket refused", "reason", "invalid token", "ip", c.ClientIP())
			c.AbortWithStatus(http.StatusForbidden)
		}
	}
}

// Identity returns the username set by one of the auth middlewares.
func Identity(c *gin.Context) (string, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return "", false
	}
	identity, ok := v.(string)
	return identity, ok && identity != ""
}
