// Package server exposes the scanner over a JSON HTTP API
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/noot-app/food-risk-scanner/internal/auth"
	"github.com/noot-app/food-risk-scanner/internal/config"
	"github.com/noot-app/food-risk-scanner/internal/scanner"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status             string `json:"status"`
	Ready              bool   `json:"ready"`
	ModelLoaded        bool   `json:"model_loaded"`
	DatabaseLoaded     bool   `json:"database_loaded"`
	LabelReaderEnabled bool   `json:"label_reader_enabled"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the HTTP API in front of a scanner
type Server struct {
	config  *config.Config
	scanner *scanner.Scanner
	router  *gin.Engine
	log     *slog.Logger
}

// New creates a server and registers its routes
func New(cfg *config.Config, scn *scanner.Scanner, logger *slog.Logger) *Server {
	s := &Server{
		config:  cfg,
		scanner: scn,
		log:     logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(s.log), corsMiddleware(s.config.CORSAllowedOrigins))

	router.GET("/", s.handleHome)
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	if s.config.APIToken != "" {
		api.Use(auth.NewBearerTokenAuth(s.config.APIToken).Middleware())
	}
	api.GET("/search_food", s.handleSearchFood)
	api.POST("/analyze_food", s.handleAnalyzeFood)
	api.GET("/categories", s.handleCategories)
	api.GET("/healthy_foods", s.handleHealthyFoods)
	api.POST("/analyze_label", s.handleAnalyzeLabel)

	return router
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.router,
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("🌐 Food scanner API listening",
			"addr", server.Addr,
			"api_auth", s.config.APIToken != "",
			"model_loaded", s.scanner.ModelLoaded(),
			"database_loaded", s.scanner.DatabaseLoaded())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", "error", err)
		return err
	}

	s.log.Info("Server stopped")
	return nil
}

// sendError writes an error response. A non-nil err is appended to the
// message only in development mode.
func (s *Server) sendError(c *gin.Context, status int, err error, message string) {
	if err != nil && s.config.IsDevelopment() {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}
