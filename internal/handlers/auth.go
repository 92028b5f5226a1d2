package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/securechat/internal/handlers/dto"
	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/internal/middleware"
	"github.com/thereayou/securechat/internal/services"
)

type AuthHandler struct {
	auth   services.AuthService
	logger logging.Logger
}

func NewAuthHandler(auth services.AuthService, logger logging.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Signup creates an account. It does not log the user in.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info(c.Request.Context(), "user registered", "username", user.Username)
	c.JSON(http.StatusOK, dto.SignupResponse{
		ID:       user.ID,
		Username: user.Username,
		Message:  "User registered successfully",
	})
}

// Token exchanges form-encoded credentials for a bearer token.
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: session.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(time.Until(session.ExpiresAt).Round(time.Second) / time.Second),
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, dto.MeResponse{Username: identity})
}
