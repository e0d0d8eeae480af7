// Package mcpgo exposes the scanner as MCP tools over streamable HTTP or stdio
package mcpgo

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/noot-app/food-risk-scanner/internal/auth"
	"github.com/noot-app/food-risk-scanner/internal/scanner"
	"github.com/noot-app/food-risk-scanner/internal/version"
)

// healthCacheDuration bounds how often /health re-checks the scanner
const healthCacheDuration = 10 * time.Second

// responseRecorder wraps http.ResponseWriter to capture response details
type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int
	headerWritten bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.headerWritten {
		return // Prevent duplicate WriteHeader calls
	}
	r.statusCode = code
	r.headerWritten = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.headerWritten {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytesWritten += n
	return n, err
}

// Flush keeps streamed MCP responses flowing through the recorder
func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Server wraps the mark3labs MCP server with authentication
type Server struct {
	mcpServer *server.MCPServer
	scanner   *scanner.Scanner
	auth      *auth.BearerTokenAuth
	log       *slog.Logger

	// healthCheck reports whether the scanner can serve predictions
	healthCheck func(ctx context.Context) error

	// Health check caching to prevent DOS attacks
	healthMu        sync.RWMutex
	lastHealthCheck time.Time
	lastHealthError error
}

// NewServer creates a new MCP server with the mark3labs SDK
func NewServer(scn *scanner.Scanner, authenticator *auth.BearerTokenAuth, logger *slog.Logger) *Server {
	mcpServer := server.NewMCPServer(
		"Food Risk Scanner",
		version.Number(),
		server.WithToolCapabilities(false), // Tools don't change dynamically
		server.WithRecovery(),              // Recover from panics
		server.WithLogging(),               // Enable logging
	)

	s := &Server{
		mcpServer: mcpServer,
		scanner:   scn,
		auth:      authenticator,
		log:       logger,
	}
	s.healthCheck = s.scannerHealth

	s.addTools()

	return s
}

func (s *Server) scannerHealth(ctx context.Context) error {
	if !s.scanner.ModelLoaded() {
		return scanner.ErrModelUnavailable
	}
	return nil
}

// checkHealthWithCache checks health with 10-second caching to prevent DOS attacks
func (s *Server) checkHealthWithCache(ctx context.Context) error {
	s.healthMu.RLock()
	if time.Since(s.lastHealthCheck) < healthCacheDuration {
		err := s.lastHealthError
		s.healthMu.RUnlock()
		s.log.Debug("Health check: using cached result",
			"cached_error", err != nil,
			"cache_age", time.Since(s.lastHealthCheck))
		return err
	}
	s.healthMu.RUnlock()

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	// Double-check in case another goroutine updated while waiting for write lock
	if time.Since(s.lastHealthCheck) < healthCacheDuration {
		s.log.Debug("Health check: using cached result after lock",
			"cached_error", s.lastHealthError != nil,
			"cache_age", time.Since(s.lastHealthCheck))
		return s.lastHealthError
	}

	s.log.Debug("Health check: checking scanner")
	err := s.healthCheck(ctx)
	s.lastHealthCheck = time.Now()
	s.lastHealthError = err

	return err
}

// Handler returns the HTTP handler: /health without auth and the
// streamable MCP endpoint at /mcp behind the bearer token
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := s.checkHealthWithCache(r.Context()); err != nil {
			s.log.Error("Health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{
				"status":          "unhealthy",
				"error":           err.Error(),
				"database_loaded": s.scanner.DatabaseLoaded(),
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":          "healthy",
			"database_loaded": s.scanner.DatabaseLoaded(),
		})
	})

	streamableServer := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true), // Stateless for better OpenAI compatibility
	)

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovery := recover(); recovery != nil {
				s.log.Error("MCP endpoint panic recovered",
					"panic", recovery,
					"method", r.Method,
					"url", r.URL.String(),
					"remote_addr", r.RemoteAddr)
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Internal Server Error"))
			}
		}()

		s.log.Debug("MCP request received",
			"method", r.Method,
			"url", r.URL.String(),
			"content_type", r.Header.Get("Content-Type"),
			"content_length", r.ContentLength,
			"remote_addr", r.RemoteAddr)

		if !s.auth.IsAuthorized(r) {
			s.auth.SetUnauthorizedHeaders(w)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			s.log.Warn("Unauthorized MCP request", "remote_addr", r.RemoteAddr, "user_agent", r.UserAgent())
			return
		}

		recorder := &responseRecorder{ResponseWriter: w}
		streamableServer.ServeHTTP(recorder, r)

		s.log.Debug("MCP response sent",
			"status_code", recorder.statusCode,
			"response_size", recorder.bytesWritten,
			"content_type", recorder.Header().Get("Content-Type"))
	})

	return mux
}

// ServeHTTP serves the MCP server over HTTP with authentication
func (s *Server) ServeHTTP(addr string) error {
	s.log.Info("Starting MCP server", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ServeStdio serves the MCP server over stdio (no auth required for local use)
func (s *Server) ServeStdio() error {
	s.log.Info("Starting MCP server in stdio mode")
	return server.ServeStdio(s.mcpServer)
}
