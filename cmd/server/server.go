package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/thereayou/securechat/internal/cache"
	"github.com/thereayou/securechat/internal/config"
	"github.com/thereayou/securechat/internal/database"
	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/internal/services"
	"github.com/thereayou/securechat/internal/storage"
	"github.com/thereayou/securechat/internal/websocket"
	"github.com/thereayou/securechat/pkg/auth"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg    *config.Config
	logger logging.Logger

	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Hub        *websocket.Hub
	JWTManager *auth.JWTManager
}

// NewServer connects every backing service and builds the router. Redis and
// S3 are optional; the database is not.
func NewServer(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Server, error) {
	opts := database.DefaultOptions()
	opts.MaxOpenConns = cfg.DBMaxOpenConns
	opts.ConnectRetries = uint64(cfg.DBConnectRetries)

	db, err := database.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		return nil, fmt.Errorf("postgres connect failed: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info(ctx, "database ready")

	var (
		rdb      *redis.Client
		profiles services.ProfileCache = cache.NopCache{}
	)
	if cfg.RedisURL != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn(ctx, "redis unavailable, profile cache disabled", "error", err)
		} else {
			profiles = cache.NewRedisProfileCache(rdb, cfg.ProfileCacheTTL)
		}
	}

	var objects services.ObjectStorage
	if cfg.S3.Enabled() {
		s3, err := storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("s3 init failed: %w", err)
		}
		objects = s3
	} else {
		logger.Info(ctx, "S3_BUCKET not set, picture uploads disabled")
	}

	jwtMgr, err := auth.NewJWTManager(cfg.SecretKey, cfg.Algorithm, cfg.TokenTTL)
	if err != nil {
		db.Close()
		return nil, err
	}

	authSvc, err := services.NewAuthenticator(db, jwtMgr, auth.NewPasswordHasher(cfg.BcryptCost))
	if err != nil {
		db.Close()
		return nil, err
	}
	profileSvc := services.NewProfileService(db, profiles, objects, logger)

	hub := websocket.NewHub(logger.With("component", "hub"))

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	APIEndpoints(router, Deps{
		Config:   cfg,
		Logger:   logger,
		Auth:     authSvc,
		Tokens:   jwtMgr,
		Profiles: profileSvc,
		Messages: db,
		DB:       db,
		Hub:      hub,
	})

	return &Server{
		cfg:        cfg,
		logger:     logger,
		Router:     router,
		DB:         db,
		Redis:      rdb,
		Hub:        hub,
		JWTManager: jwtMgr,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.Hub.Run(context.Background())

	httpSrv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "server starting", "port", s.cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info(context.Background(), "shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(shutdownCtx, "http shutdown", "error", err)
	}
	// hijacked websocket connections are not covered by Shutdown
	s.Hub.Stop()

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Warn(shutdownCtx, "redis close", "error", err)
		}
	}
	if err := s.DB.Close(); err != nil {
		s.logger.Warn(shutdownCtx, "database close", "error", err)
	}

	return runErr
}
