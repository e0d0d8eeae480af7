package server

import "time"

// HTTP server constants
const (
	// HTTP timeouts
	HTTPReadTimeout  = 15 * time.Second
	HTTPWriteTimeout = 30 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	// Shutdown timeout
	HTTPShutdownTimeout = 30 * time.Second

	// Query limits
	MaxQueryLimit = 100

	// Label uploads larger than this are rejected
	MaxLabelUploadBytes = 10 << 20

	// RequestIDHeader carries the per-request ID set by the middleware
	RequestIDHeader = "X-Request-ID"

	// HomeMessage is the liveness text served at /
	HomeMessage = "Food Scanner API is running!"
)
