package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/plandrive/engine/body"
	"github.com/plandrive/engine/config"
	"github.com/plandrive/engine/llms"
	"github.com/plandrive/engine/runhost"
	"github.com/plandrive/engine/server"
)

// ServeCmd starts the deployment server.
type ServeCmd struct {
	Port int `help:"Override the configured listen port."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	logger, levelVar := newReloadableLogger(cli.LogLevel)

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return withCode(exitConfigError, err)
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	host, err := buildHost(cfg)
	if err != nil {
		return withCode(exitConfigError, err)
	}
	defer host.Store().Close()

	llmRegistry, err := buildLLMRegistry(cfg)
	if err != nil {
		return withCode(exitConfigError, err)
	}
	tools := body.NewToolRegistry()

	srv := server.New(*cfg, logger, host, llmRegistry, tools)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if err := watchConfigLevel(ctx, cli.Config, logger, levelVar); err != nil {
		logger.Warn("config hot-reload disabled", "error", err)
	}

	if cfg.Server.PlanStoreDir != "" {
		if err := loadPlanStore(srv, cfg.Server.PlanStoreDir, logger); err != nil {
			logger.Warn("loading plan store", "error", err)
		}
		resumed, err := srv.RecoverRuns(ctx)
		if err != nil {
			logger.Warn("recovering in-flight runs", "error", err)
		} else if resumed > 0 {
			logger.Info("recovered in-flight runs", "count", resumed)
		}
	}

	logger.Info("server starting", "addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err := srv.ListenAndServe(ctx); err != nil {
		return withCode(exitRunFailed, err)
	}
	return nil
}

func buildHost(cfg *config.Config) (*runhost.Host, error) {
	if err := os.MkdirAll(cfg.Checkpoint.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint dir: %w", err)
	}
	store, err := runhost.Open(filepath.Join(cfg.Checkpoint.Dir, "runhost.db"))
	if err != nil {
		return nil, err
	}
	return runhost.NewHost(store), nil
}

func buildLLMRegistry(cfg *config.Config) (*llms.LLMRegistry, error) {
	registry := llms.NewLLMRegistry()
	for name, providerCfg := range cfg.LLMs {
		providerCfg := providerCfg
		if _, err := registry.CreateLLMFromConfig(name, &providerCfg); err != nil {
			return nil, fmt.Errorf("llm %q: %w", name, err)
		}
	}
	return registry, nil
}

func loadPlanStore(srv *server.Server, dir string, logger interface{ Warn(string, ...any) }) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".zip" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, err := srv.LoadPlanFile(path); err != nil {
			logger.Warn("loading persisted plan", "path", path, "error", err)
		}
	}
	return nil
}
