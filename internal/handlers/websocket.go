package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/internal/middleware"
	ws "github.com/thereayou/securechat/internal/websocket"
)

// WebSocketHandler upgrades connections admitted by WSAuthMiddleware.
type WebSocketHandler struct {
	hub            *ws.Hub
	messageHandler ws.MessageHandler
	upgrader       websocket.Upgrader
	logger         logging.Logger
}

// NewWebSocketHandler accepts browser origins from allowedOrigins ("*" for
// any). Requests without an Origin header are always accepted.
func NewWebSocketHandler(hub *ws.Hub, messageHandler ws.MessageHandler, allowedOrigins []string, logger logging.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		messageHandler: messageHandler,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already replied
		h.logger.Warn(c.Request.Context(), "websocket upgrade failed", "identity", identity, "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn, identity)
	if err := client.Start(h.messageHandler); err != nil {
		h.logger.Warn(c.Request.Context(), "cannot register client", "identity", identity, "error", err)
	}
}
