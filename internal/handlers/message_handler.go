package handlers

import (
	"context"
	"time"

	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/internal/models"
	"github.com/thereayou/securechat/internal/websocket"
)

// Upper bound on one history write; it runs on the sender's read loop.
const defaultSaveTimeout = 3 * time.Second

type Broadcaster interface {
	Broadcast(sender, text string) error
}

// MessageHandler handles text arriving on a streaming connection: it keeps a
// history copy and relays the text to everyone.
type MessageHandler struct {
	store       MessageStore
	hub         Broadcaster
	logger      logging.Logger
	saveTimeout time.Duration
}

// NewMessageHandler builds the handler. store may be nil to skip history.
func NewMessageHandler(store MessageStore, hub Broadcaster, logger logging.Logger) *MessageHandler {
	return &MessageHandler{store: store, hub: hub, logger: logger, saveTimeout: defaultSaveTimeout}
}

func (h *MessageHandler) HandleMessage(ctx context.Context, client *websocket.Client, text string) error {
	if h.store != nil {
		h.save(ctx, &models.Message{Sender: client.Identity, Text: text})
	}
	return h.hub.Broadcast(client.Identity, text)
}

// save is best effort; the broadcast goes out whatever happens here.
func (h *MessageHandler) save(ctx context.Context, msg *models.Message) {
	ctx, cancel := context.WithTimeout(ctx, h.saveTimeout)
	defer cancel()

	if err := h.store.SaveMessage(ctx, msg); err != nil {
		h.logger.Warn(ctx, "cannot save message", "sender", msg.Sender, "error", err)
	}
}
