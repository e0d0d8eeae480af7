package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogMode selects where and how logs are written
type LogMode int

const (
	// LogModeServer writes JSON to stdout for the HTTP servers
	LogModeServer LogMode = iota
	// LogModeInteractive writes text to stderr, leaving stdout to the MCP
	// stdio transport or to CLI output
	LogModeInteractive
)

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogLevel returns the log level from LOG_LEVEL environment variable
// Defaults to INFO if not set or invalid
func GetLogLevel() slog.Level {
	return parseLogLevel(os.Getenv("LOG_LEVEL"))
}

// NewLogger creates a structured logger at the LOG_LEVEL level for mode
func NewLogger(mode LogMode) *slog.Logger {
	opts := &slog.HandlerOptions{Level: GetLogLevel()}

	if mode == LogModeInteractive {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// NewTestLogger creates a text logger writing to output.
// If level is empty, uses LOG_LEVEL environment variable
func NewTestLogger(output io.Writer, level string) *slog.Logger {
	logLevel := GetLogLevel()
	if level != "" {
		logLevel = parseLogLevel(level)
	}
	return slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
}
