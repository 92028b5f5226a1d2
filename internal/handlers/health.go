package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/securechat/internal/logging"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type OnlineLister interface {
	Online() []string
}

type HealthHandler struct {
	db     Pinger
	hub    OnlineLister
	logger logging.Logger
}

func NewHealthHandler(db Pinger, hub OnlineLister, logger logging.Logger) *HealthHandler {
	return &HealthHandler{db: db, hub: hub, logger: logger}
}

func (h *HealthHandler) PingDB(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error(ctx, "database ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

// Online lists the identities that currently hold a live connection.
func (h *HealthHandler) Online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.hub.Online()})
}
