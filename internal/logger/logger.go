package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/map-quest/internal/config"
)

// ServiceName is attached to every record written by a logger from New.
const ServiceName = "map-quest"

// New builds a logger for cfg that writes to w, or stdout when w is nil.
// Production logs are JSON; everything else uses the text handler.
func New(cfg *config.Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", ServiceName, "environment", cfg.Environment)
}

// Setup builds a stdout logger for cfg and installs it as the slog default.
func Setup(cfg *config.Config) *slog.Logger {
	logger := New(cfg, os.Stdout)
	slog.SetDefault(logger)
	return logger
}

// WithRequestID adds request ID to logger context
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}

// WithError adds error to logger context. A nil error leaves the logger as is.
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With("error", err.Error())
}
