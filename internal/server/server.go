// Package server is the HTTP adapter. Handlers stay thin; all ingestion and
// persistence logic lives in the packages they delegate to.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Config holds HTTP server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	UploadDir    string // served under /uploads
}

// Server wires the gin router to the application components.
type Server struct {
	config     Config
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// New creates a new HTTP server.
func New(config Config, handlers *Handlers, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:   config,
		router:   gin.New(),
		handlers: handlers,
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
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
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware allows the browser frontend, which is served separately, to
// call the API.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	if s.config.UploadDir != "" {
		s.router.Static("/uploads", s.config.UploadDir)
	}

	api := s.router.Group("/api")
	{
		api.POST("/documents/ingest", s.handlers.IngestDocument)
		api.GET("/documents", s.handlers.ListDocuments)
		api.PATCH("/documents/:id", s.handlers.UpdateDocumentData)
		api.DELETE("/documents/:id", s.handlers.DeleteDocument)

		api.GET("/properties", s.handlers.ListProperties)
		api.POST("/properties", s.handlers.CreateProperty)
		api.GET("/properties/:id", s.handlers.GetProperty)
		api.PUT("/properties/:id", s.handlers.UpdateProperty)
		api.DELETE("/properties/:id", s.handlers.DeleteProperty)

		api.GET("/expenses", s.handlers.ListExpenses)
		api.POST("/expenses", s.handlers.CreateExpense)
		api.GET("/expenses/:id", s.handlers.GetExpense)
		api.PUT("/expenses/:id", s.handlers.UpdateExpense)
		api.DELETE("/expenses/:id", s.handlers.DeleteExpense)

		api.GET("/tax-insurance", s.handlers.ListTaxInsurance)
		api.POST("/tax-insurance", s.handlers.CreateTaxInsurance)
		api.GET("/tax-insurance/:id", s.handlers.GetTaxInsurance)
		api.PUT("/tax-insurance/:id", s.handlers.UpdateTaxInsurance)
		api.DELETE("/tax-insurance/:id", s.handlers.DeleteTaxInsurance)

		api.GET("/reports/rent-ledger", s.handlers.ExportRentLedger)
	}
}

// Start runs the server until ctx is cancelled or the listener fails.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
