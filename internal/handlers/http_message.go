package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/securechat/internal/handlers/dto"
	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/internal/models"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type MessageStore interface {
	SaveMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, limit int, before *time.Time) ([]models.Message, error)
}

type HTTPMessageHandler struct {
	store  MessageStore
	logger logging.Logger
}

func NewHTTPMessageHandler(store MessageStore, logger logging.Logger) *HTTPMessageHandler {
	return &HTTPMessageHandler{store: store, logger: logger}
}

// ListMessages returns chat history, oldest first. "before" is an RFC3339
// cursor; pass the created_at of the oldest message to page back.
func (h *HTTPMessageHandler) ListMessages(c *gin.Context) {
	limit := defaultHistoryLimit
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}

	var before *time.Time
	if b := c.Query("before"); b != "" {
		ts, err := time.Parse(time.RFC3339Nano, b)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before timestamp"})
			return
		}
		before = &ts
	}

	messages, err := h.store.ListMessages(c.Request.Context(), limit, before)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result := make([]dto.MessageResponse, len(messages))
	for i, msg := range messages {
		result[i] = dto.MessageResponse{Sender: msg.Sender, Text: msg.Text, CreatedAt: msg.CreatedAt}
	}

	c.JSON(http.StatusOK, dto.MessagesResponse{
		Messages: result,
		HasMore:  len(messages) == limit,
	})
}
