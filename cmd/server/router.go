package main

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/thereayou/securechat/internal/config"
	"github.com/thereayou/securechat/internal/handlers"
	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/internal/middleware"
	"github.com/thereayou/securechat/internal/services"
	"github.com/thereayou/securechat/internal/websocket"
	"github.com/thereayou/securechat/pkg/auth"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Config   *config.Config
	Logger   logging.Logger
	Auth     services.AuthService
	Tokens   *auth.JWTManager
	Profiles handlers.ProfileService
	Messages handlers.MessageStore
	DB       handlers.Pinger
	Hub      *websocket.Hub
}

func APIEndpoints(r *gin.Engine, d Deps) {
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(cors.New(corsConfig(d.Config.CORSOrigins)))

	authH := handlers.NewAuthHandler(d.Auth, d.Logger)
	userH := handlers.NewUserHandler(d.Profiles, d.Logger)
	historyH := handlers.NewHTTPMessageHandler(d.Messages, d.Logger)
	healthH := handlers.NewHealthHandler(d.DB, d.Hub, d.Logger)
	wsH := handlers.NewWebSocketHandler(
		d.Hub,
		handlers.NewMessageHandler(d.Messages, d.Hub, d.Logger),
		d.Config.CORSOrigins,
		d.Logger.With("component", "gateway"),
	)

	requireAuth := middleware.AuthMiddleware(d.Tokens)

	// Auth endpoints
	r.POST("/signup", authH.Signup)
	r.POST("/token", authH.Token)
	r.GET("/me", requireAuth, authH.Me)

	// Profiles. Writes act on the bearer's identity, so callers send
	// "Authorization: Bearer <token>" instead of a username field.
	r.GET("/get_user_profile", userH.GetProfile)
	r.POST("/update_profile", requireAuth, userH.UpdateProfile)
	r.POST("/upload_profile_picture", requireAuth, userH.UploadPicture)

	// Chat
	r.GET("/ws", middleware.WSAuthMiddleware(d.Tokens, d.Logger), wsH.HandleWebSocket)
	r.GET("/messages", requireAuth, historyH.ListMessages)
	r.GET("/online", healthH.Online)

	r.GET("/ping_db", healthH.PingDB)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
