package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/securechat/internal/common"
	"github.com/thereayou/securechat/internal/handlers/dto"
	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/internal/middleware"
	"github.com/thereayou/securechat/internal/models"
	"github.com/thereayou/securechat/internal/services"
)

// MaxPictureSize bounds an uploaded profile picture.
const MaxPictureSize = 10 << 20

type ProfileService interface {
	GetProfile(ctx context.Context, username string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, identity string, upd services.ProfileUpdate) (*models.Profile, error)
	UploadPicture(ctx context.Context, identity, filename, contentType string, body io.Reader, size int64) (string, error)
}

type UserHandler struct {
	profiles ProfileService
	logger   logging.Logger
}

func NewUserHandler(profiles ProfileService, logger logging.Logger) *UserHandler {
	return &UserHandler{profiles: profiles, logger: logger}
}

// GetProfile returns the public profile named by the username query parameter.
func (h *UserHandler) GetProfile(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), username)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile edits the caller's own bio and picture URL.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Username != identity {
		respondError(c, h.logger, common.ErrForbidden)
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), identity, services.ProfileUpdate{
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UploadPicture stores a multipart "file" as the caller's profile picture.
func (h *UserHandler) UploadPicture(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxPictureSize+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if username := c.PostForm("username"); username != "" && username != identity {
		respondError(c, h.logger, common.ErrForbidden)
		return
	}
	if fh.Size > MaxPictureSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be an image"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer f.Close()

	location, err := h.profiles.UploadPicture(c.Request.Context(), identity, fh.Filename, contentType, f, fh.Size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info(c.Request.Context(), "profile picture uploaded", "username", identity, "size", fh.Size)
	c.JSON(http.StatusOK, dto.UploadPictureResponse{ProfilePictureURL: location})
}
