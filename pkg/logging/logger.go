// Package logging provides structured logging configuration using zerolog.
//
// All logs go to stderr by default: stdout is reserved for the XML export
// stream and must stay clean.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()

	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Individual API queries (action, continuation values)
//   - Cache operations (hit/miss, key, TTL)
//   - Worker lifecycle (batch picked up, batch done)
//
// Info: Normal operation events
//   - Endpoint resolved, site info fetched
//   - Namespace enumeration started/finished (title counts)
//   - Batch scheduling progress
//   - Final export summary
//
// Warn: Warning conditions that don't prevent operation
//   - Retry attempts and backoff
//   - Repeated continuation token (enumeration stopped early)
//   - Skipped file names, missing pages
//   - Cache errors (fallback to direct request)
//
// Error: Error conditions requiring attention
//   - Batch failed after retries
//   - Namespace enumeration aborted
//   - Fatal discovery/configuration errors
//
// Context Fields:
//   - action: Action API action/list/prop being queried
//   - namespace / ns_id: wiki namespace name and ID
//   - title: page or file title
//   - batch: batch index
//   - kind: batch kind (pages, files)
//   - status_code: HTTP status code
//   - error_class: error classification (client, server, rate_limit, network)
//   - continue: continuation token value
//   - duration: request or phase duration
