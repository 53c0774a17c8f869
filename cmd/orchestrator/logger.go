package main

import (
	"log/slog"
	"os"
)

func levelFromString(level string) slog.Level {
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

func newLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelFromString(level)})
	return slog.New(handler)
}

// newReloadableLogger is newLogger plus the LevelVar backing its handler, so
// a config watcher can raise or lower verbosity without restarting the
// process.
func newReloadableLogger(level string) (*slog.Logger, *slog.LevelVar) {
	levelVar := &slog.LevelVar{}
	levelVar.Set(levelFromString(level))
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar})
	return slog.New(handler), levelVar
}
