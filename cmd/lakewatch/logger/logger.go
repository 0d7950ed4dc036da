// Package logger builds the structured logger for the lakewatch server.
package logger

import (
	"log/slog"
	"os"

	"github.com/rwhasting/lakewatch/cmd/lakewatch/config"
)

// New builds a slog.Logger from the configured level and format.
// Unknown levels fall back to info.
func New(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
