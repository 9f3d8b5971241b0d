package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/api/http"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/api/middleware"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/domain/engine"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/infrastructure/config"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/infrastructure/logging"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/infrastructure/monitoring"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/infrastructure/tracing"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/registry"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/storage"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/ws"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	eng     *engine.Engine
	store   storage.Store
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance. The document registry is the
// host API the engine mirrors; tests and single-process deployments pass
// registry.NewMemory().
func NewServer(ctx context.Context, cfg *config.Config, reg registry.Registry) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing sync server",
		zap.String("port", cfg.Server.Port),
		zap.String("redis_addr", cfg.Store.RedisAddr),
	)

	metrics := monitoring.NewMetrics()

	tracer := tracing.New("sync-engine", logger.Logger)

	// An empty Redis address selects the in-process store.
	var store storage.Store
	if cfg.Store.RedisAddr != "" {
		redisStore, err := storage.NewRedis(ctx, cfg.Store.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = redisStore
		logger.Info("Connected to redis store", zap.String("addr", cfg.Store.RedisAddr))
	} else {
		store = storage.NewMemory()
		logger.Info("Using in-memory store")
	}

	eng := engine.New(store, reg, logger, engine.Options{
		MaxFavorites: cfg.Engine.MaxFavorites,
		EventBuffer:  cfg.Engine.EventBuffer,
		Metrics:      metrics,
	})
	if err := eng.Start(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	// Create handlers
	handlers := http.NewHandlers(eng)
	wsHandler := ws.NewHandler(eng, store, logger, metrics)

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/state", handlers.GetState)

	// Workspace management
	router.POST("/workspaces", handlers.CreateWorkspace)
	router.PUT("/workspaces/:id", handlers.RenameWorkspace)
	router.DELETE("/workspaces/:id", handlers.DeleteWorkspace)
	router.POST("/workspaces/:id/switch", handlers.SwitchWorkspace)

	// Open documents
	router.POST("/documents/:id/pin", handlers.PinDocument)
	router.POST("/documents/:id/favorite", handlers.FavoriteDocument)
	router.POST("/documents/:id/activate", handlers.ActivateDocument)
	router.DELETE("/documents/:id", handlers.CloseDocument)

	// Pinned items
	router.POST("/pinned/:id/favorite", handlers.ConvertPinnedToFavorite)
	router.POST("/pinned/:id/move", handlers.MovePinned)
	router.POST("/pinned/:id/reorder", handlers.ReorderPinned)
	router.POST("/pinned/:id/activate", handlers.ActivatePinned)
	router.DELETE("/pinned/:id", handlers.RemovePinned)

	// Favorites
	router.POST("/favorites/:id/pin", handlers.ConvertFavoriteToPinned)
	router.POST("/favorites/:id/reorder", handlers.ReorderFavorites)
	router.POST("/favorites/:id/activate", handlers.ActivateFavorite)
	router.DELETE("/favorites/:id", handlers.RemoveFavorite)

	// Items
	router.POST("/items/refresh", handlers.RefreshSaved)

	// Folders
	router.POST("/folders", handlers.CreateFolder)
	router.PUT("/folders/:id", handlers.RenameFolder)
	router.DELETE("/folders/:id", handlers.DeleteFolder)

	// Bookmark import
	router.POST("/import", handlers.Import)

	// WebSocket
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		eng:     eng,
		store:   store,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.eng.Stop()

	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close store", zap.Error(err))
		return fmt.Errorf("failed to close store: %w", err)
	}

	// Sync logger before exit
	s.logger.Sync()

	return nil
}
