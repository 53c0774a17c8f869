package main

import (
	"fmt"

	"github.com/plandrive/engine/config"
)

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	cfg.Global.SetDefaults()
	cfg.Sandbox.SetDefaults()
	cfg.Checkpoint.SetDefaults()
	cfg.Run.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
