package body

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/plandrive/engine/config"
)

// SandboxPythonInterpreter shells out to a configured interpreter binary
// with the run's sandbox as its working directory, under a hard wall-clock
// timeout.
type SandboxPythonInterpreter struct {
	binary  string
	workdir string
	timeout time.Duration
}

// NewSandboxPythonInterpreter builds an interpreter from sandbox config.
func NewSandboxPythonInterpreter(cfg config.SandboxConfig) *SandboxPythonInterpreter {
	return &SandboxPythonInterpreter{
		binary:  cfg.PythonInterpreter,
		workdir: cfg.RootDir,
		timeout: cfg.ScriptTimeout,
	}
}

// Run writes args as a JSON document on the script's stdin and returns its
// stdout verbatim.
func (p *SandboxPythonInterpreter) Run(ctx context.Context, script string, args map[string]any) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encoding script args: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.binary, "-c", script)
	cmd.Dir = p.workdir
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("script failed: %w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}
