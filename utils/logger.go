package utils

import (
	"log/slog"
	"os"
	"sync"
)

var (
	loggerOnce sync.Once
	logger     *slog.Logger
)

// GetLogger returns the shared structured logger. The first call decides the
// handler; LOG_FORMAT=text switches from the default JSON output.
func GetLogger() *slog.Logger {
	loggerOnce.Do(func() {
		level := slog.LevelInfo
		if GetEnv("LOG_LEVEL", "") == "debug" {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		if GetEnv("LOG_FORMAT", "json") == "text" {
			handler = slog.NewTextHandler(os.Stderr, opts)
		} else {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		logger = slog.New(handler)
	})
	return logger
}
