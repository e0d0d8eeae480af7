package mcpgo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/noot-app/food-risk-scanner/internal/auth"
	"github.com/noot-app/food-risk-scanner/internal/config"
	"github.com/noot-app/food-risk-scanner/internal/model"
	"github.com/noot-app/food-risk-scanner/internal/query"
	"github.com/noot-app/food-risk-scanner/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// switchableHealth lets a test change the health result between checks
type switchableHealth struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (h *switchableHealth) check(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return h.err
}

func (h *switchableHealth) set(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := config.NewTestLogger(io.Discard, "debug")
	scn := scanner.New(model.NewSampleClassifier(), query.NewDatabase(query.SampleFoods()), nil, logger)
	return NewServer(scn, auth.NewBearerTokenAuth("test-token"), logger)
}

func newServerWithHealth(t *testing.T, health *switchableHealth) *Server {
	t.Helper()
	server := newTestServer(t)
	server.healthCheck = health.check
	return server
}

func TestServer_checkHealthWithCache(t *testing.T) {
	t.Run("first call performs health check", func(t *testing.T) {
		health := &switchableHealth{}
		server := newServerWithHealth(t, health)

		err := server.checkHealthWithCache(context.Background())
		assert.NoError(t, err)

		assert.False(t, server.lastHealthCheck.IsZero())
		assert.NoError(t, server.lastHealthError)
		assert.Equal(t, 1, health.calls)
	})

	t.Run("subsequent calls within 10 seconds use cache", func(t *testing.T) {
		health := &switchableHealth{}
		server := newServerWithHealth(t, health)
		ctx := context.Background()

		assert.NoError(t, server.checkHealthWithCache(ctx))
		firstCheckTime := server.lastHealthCheck

		assert.NoError(t, server.checkHealthWithCache(ctx))

		assert.Equal(t, firstCheckTime, server.lastHealthCheck)
		assert.Equal(t, 1, health.calls)
	})

	t.Run("caches error results", func(t *testing.T) {
		testError := errors.New("model not loaded")
		health := &switchableHealth{err: testError}
		server := newServerWithHealth(t, health)
		ctx := context.Background()

		err1 := server.checkHealthWithCache(ctx)
		assert.Equal(t, testError, err1)
		assert.Equal(t, testError, server.lastHealthError)

		health.set(nil)

		err2 := server.checkHealthWithCache(ctx)
		assert.Equal(t, testError, err2)
	})

	t.Run("cache expires after 10 seconds", func(t *testing.T) {
		health := &switchableHealth{}
		server := newServerWithHealth(t, health)
		ctx := context.Background()

		assert.NoError(t, server.checkHealthWithCache(ctx))

		server.lastHealthCheck = time.Now().Add(-11 * time.Second)

		assert.NoError(t, server.checkHealthWithCache(ctx))
		assert.True(t, time.Since(server.lastHealthCheck) < time.Second)
		assert.Equal(t, 2, health.calls)
	})

	t.Run("concurrent calls handle race conditions safely", func(t *testing.T) {
		health := &switchableHealth{}
		server := newServerWithHealth(t, health)
		ctx := context.Background()

		server.lastHealthCheck = time.Now().Add(-11 * time.Second)

		errChan := make(chan error, 10)
		for i := 0; i < 10; i++ {
			go func() {
				errChan <- server.checkHealthWithCache(ctx)
			}()
		}

		for i := 0; i < 10; i++ {
			assert.NoError(t, <-errChan)
		}

		assert.True(t, time.Since(server.lastHealthCheck) < time.Second)
		assert.Equal(t, 1, health.calls, "only one goroutine refreshes the cache")
	})
}

func TestServer_scannerHealth(t *testing.T) {
	logger := config.NewTestLogger(io.Discard, "error")

	loaded := NewServer(scanner.New(model.NewSampleClassifier(), nil, nil, logger), auth.NewBearerTokenAuth("t"), logger)
	assert.NoError(t, loaded.scannerHealth(context.Background()))

	missing := NewServer(scanner.New(nil, nil, nil, logger), auth.NewBearerTokenAuth("t"), logger)
	assert.ErrorIs(t, missing.scannerHealth(context.Background()), scanner.ErrModelUnavailable)
}

func TestServer_Handler(t *testing.T) {
	t.Run("health needs no auth", func(t *testing.T) {
		server := newTestServer(t)

		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, true, body["database_loaded"])
	})

	t.Run("health reports a missing model", func(t *testing.T) {
		health := &switchableHealth{err: scanner.ErrModelUnavailable}
		server := newServerWithHealth(t, health)

		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "unhealthy", body["status"])
		assert.Equal(t, scanner.ErrModelUnavailable.Error(), body["error"])
	})

	t.Run("health rejects other methods", func(t *testing.T) {
		server := newTestServer(t)

		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("mcp requires bearer token", func(t *testing.T) {
		server := newTestServer(t)

		req := httptest.NewRequest("POST", "/mcp", nil)
		req.Header.Set("Authorization", "Bearer wrong-token")
		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	})
}
