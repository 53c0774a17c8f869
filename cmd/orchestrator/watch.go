package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/plandrive/engine/config"
)

// watchConfigLevel watches path for changes and re-applies its logging.level
// onto levelVar, so an operator can raise or lower verbosity on a running
// deployment server by editing the config file in place. Every other field
// in the file requires a restart to take effect: the registries, sandbox
// root, and checkpoint store it configures are all built once at startup.
func watchConfigLevel(ctx context.Context, path string, logger *slog.Logger, levelVar *slog.LevelVar) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	file := filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go watchConfigLoop(ctx, watcher, path, file, logger, levelVar)
	return nil
}

func watchConfigLoop(ctx context.Context, watcher *fsnotify.Watcher, path, file string, logger *slog.Logger, levelVar *slog.LevelVar) {
	defer watcher.Close()

	var debounce *time.Timer
	const debounceDelay = 200 * time.Millisecond

	reload := func() {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			logger.Warn("config reload: skipped, file invalid", "error", err)
			return
		}
		cfg.Global.Logging.SetDefaults()
		if err := cfg.Global.Logging.Validate(); err != nil {
			logger.Warn("config reload: skipped, invalid logging config", "error", err)
			return
		}
		levelVar.Set(levelFromString(cfg.Global.Logging.Level))
		logger.Info("config reloaded", "log_level", cfg.Global.Logging.Level)
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}
