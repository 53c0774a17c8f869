package main

import (
	"log/slog"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for input, want := range cases {
		if got := levelFromString(input); got != want {
			t.Errorf("levelFromString(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewReloadableLoggerAppliesLevelChanges(t *testing.T) {
	logger, levelVar := newReloadableLogger("info")
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if !logger.Enabled(nil, slog.LevelInfo) {
		t.Fatal("expected info level enabled")
	}
	if logger.Enabled(nil, slog.LevelDebug) {
		t.Fatal("expected debug level disabled initially")
	}

	levelVar.Set(slog.LevelDebug)
	if !logger.Enabled(nil, slog.LevelDebug) {
		t.Fatal("expected debug level enabled after reload")
	}
}
