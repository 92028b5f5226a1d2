package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/securechat/internal/common"
	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/pkg/auth"
)

// statusFor maps domain errors to a status code and a message that is safe
// to show to clients.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrDuplicateUsername):
		return http.StatusBadRequest, "username already taken"
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username or password"
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrUploadsDisabled):
		return http.StatusServiceUnavailable, "uploads are not configured"
	case errors.Is(err, common.ErrDatabaseUnavailable):
		return http.StatusServiceUnavailable, "database unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func respondError(c *gin.Context, logger logging.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}
