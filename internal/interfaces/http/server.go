// Package http is the HTTP adapter over the job registry and the export
// serializers. It carries no business logic: requests are translated to
// service calls and snapshots are translated to JSON.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peaklab/peak-importer/internal/config"
	"github.com/peaklab/peak-importer/internal/job"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// DefaultServerConfig returns default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		CORSOrigins:  []string{"*"},
	}
}

// Server is the HTTP server adapter.
type Server struct {
	config     ServerConfig
	appConfig  *config.Config
	httpServer *http.Server
	router     *gin.Engine
	jobs       *job.Service
	logger     *zap.Logger
}

// NewServer creates a new HTTP server over the given job service.
func NewServer(cfg ServerConfig, appCfg *config.Config, jobs *job.Service, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	if logger == nil {
		logger = zap.NewNop()
	}

	server := &Server{
		config:    cfg,
		appConfig: appCfg,
		router:    gin.New(),
		jobs:      jobs,
		logger:    logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.corsMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("latency", time.Since(start).String()),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware answers preflight requests and stamps the allow headers.
// An allow-list of "*" (or an empty list) reflects any origin.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowAll := len(s.config.CORSOrigins) == 0
	allowed := make(map[string]bool, len(s.config.CORSOrigins))
	for _, origin := range s.config.CORSOrigins {
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.appConfig, s.jobs, s.logger)

	api := s.router.Group("/api")
	{
		api.GET("/health", handlers.Health)
		api.GET("/config", handlers.ConfigSummary)

		api.POST("/upload", handlers.Upload)
		api.GET("/job/:id", handlers.JobStatus)
		api.GET("/job/:id/rows", handlers.JobRows)
		api.POST("/job/:id/cancel", handlers.CancelJob)

		api.GET("/export/:name", handlers.Export)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing).
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
