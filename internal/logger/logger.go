// Package logger configures slog for FormPilot: colorized tint output for
// interactive/CLI runs, plain JSON for daemon mode, plus context helpers
// (context.go) that thread a request trace ID and the active
// conversation_id into every log line emitted while a turn is in flight.
package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the default slog logger for the given level name. When
// json is true (daemon mode) a structured JSON handler is used instead of
// tint's colorized one.
func Setup(level string, json bool) {
	logLevel := parseLevel(level)

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.TimeOnly,
		})
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
