package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/cellflow/internal/application/engine"
	"github.com/aescanero/cellflow/internal/notebook"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP API server
type Server struct {
	router   *gin.Engine
	server   *http.Server
	engine   *engine.Engine
	manifest notebook.Manifest
	logger   *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port     int
	Engine   *engine.Engine
	Manifest notebook.Manifest
	Logger   *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	// Browser-hosted notebook frontends talk to the API cross-origin.
	router.Use(corsMiddleware())

	s := &Server{
		router:   router,
		engine:   cfg.Engine,
		manifest: cfg.Manifest,
		logger:   cfg.Logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// Topology and snapshot reads
		v1.GET("/graph", s.handleGetGraph)
		v1.GET("/cells", s.handleListCells)
		v1.GET("/cells/:name", s.handleGetCell)
		v1.GET("/outputs/:name", s.handleGetOutput)

		// Mutation and recomputation
		v1.PUT("/values/:name", s.handleSetValue)
		v1.POST("/evaluate", s.handleEvaluate)
	}
}

// SetupWebSocket adds the live event stream route to the server.
func (s *Server) SetupWebSocket(handler interface {
	HandleStream(*gin.Context)
}) {
	s.router.GET("/api/v1/stream", handler.HandleStream)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

// requestLogger is a middleware for request logging
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()))
	}
}
