package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/plandrive/engine/blackboard"
	"github.com/plandrive/engine/body"
	"github.com/plandrive/engine/config"
	"github.com/plandrive/engine/orchestrator"
	"github.com/plandrive/engine/plan"
	"github.com/plandrive/engine/sequence"
	"github.com/plandrive/engine/tools"
)

// RunCmd loads a plan package and drives it to completion in-process,
// without starting the REST+WS server — useful for batch invocations and
// CI smoke tests.
type RunCmd struct {
	Plan         string `arg:"" help:"Path to the plan package zip." type:"path"`
	GroundInputs string `help:"Path to a JSON file of ground inputs." type:"path"`
	LLM          string `help:"LLM registration name to bind llm_tool to." default:"default-llm"`
}

func (c *RunCmd) Run(cli *CLI) error {
	logger := newLogger(cli.LogLevel)

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return withCode(exitConfigError, err)
	}

	pkg, err := plan.Open(c.Plan)
	if err != nil {
		return withCode(exitDeployError, err)
	}
	defer pkg.Close()

	groundInputs := map[string]any{}
	if c.GroundInputs != "" {
		data, err := os.ReadFile(c.GroundInputs)
		if err != nil {
			return withCode(exitConfigError, err)
		}
		if err := json.Unmarshal(data, &groundInputs); err != nil {
			return withCode(exitConfigError, fmt.Errorf("parsing ground inputs: %w", err))
		}
	}
	if err := pkg.BindGroundInputs(groundInputs); err != nil {
		return withCode(exitConfigError, err)
	}

	llmRegistry, err := buildLLMRegistry(cfg)
	if err != nil {
		return withCode(exitConfigError, err)
	}
	provider, err := llmRegistry.GetLLM(c.LLM)
	if err != nil {
		return withCode(exitConfigError, err)
	}

	host, err := buildHost(cfg)
	if err != nil {
		return withCode(exitConfigError, err)
	}
	defer host.Store().Close()

	runID := uuid.NewString()
	sandboxRoot := filepath.Join(cfg.Sandbox.RootDir, runID)
	if err := os.MkdirAll(sandboxRoot, 0o755); err != nil {
		return withCode(exitConfigError, err)
	}
	files, err := body.NewSandboxedFileSystem(sandboxRoot)
	if err != nil {
		return withCode(exitConfigError, err)
	}
	sandboxCfg := cfg.Sandbox
	sandboxCfg.RootDir = sandboxRoot
	python := body.NewSandboxPythonInterpreter(sandboxCfg)
	provisions, err := pkg.Provisions()
	if err != nil {
		return withCode(exitConfigError, err)
	}
	paradigms, err := body.NewParadigmRegistry(provisions)
	if err != nil {
		return withCode(exitConfigError, err)
	}

	memory := buildMemoryStore(cfg, logger)
	if closer, ok := memory.(io.Closer); ok {
		defer closer.Close()
	}

	b := body.New(
		body.WrapLLMProvider(provider),
		files,
		python,
		body.NewStdinUserInput(),
		body.NewJSONFormatter(),
		body.NewLinearComposer(),
		body.NewTemplatePromptTool(provisions),
		runToolRegistry(sandboxRoot),
	).WithMemory(memory).WithParadigms(paradigms)

	board, err := blackboard.New(pkg.Concepts, pkg.Inferences, pkg.Concepts.AllIDs())
	if err != nil {
		return withCode(exitConfigError, err)
	}
	env := &sequence.Env{Blackboard: board, Concepts: pkg.Concepts, Inferences: pkg.Inferences, Body: b}

	events := stdoutEventSink{logger: logger}
	orch, err := orchestrator.New(board, pkg.Concepts, pkg.Inferences, env, host.Checkpoint(runID), events, logger, cfg.Run, cfg.Checkpoint)
	if err != nil {
		return withCode(exitConfigError, err)
	}

	if err := host.Store().CreateRun(context.Background(), runID, pkg.Manifest.Name, "cli"); err != nil {
		return withCode(exitRunFailed, err)
	}

	if err := orch.Run(context.Background()); err != nil {
		return exitForOrchestratorError(err)
	}
	fmt.Printf("run %s complete\n", runID)
	return nil
}

// buildMemoryStore dials the first qdrant-typed database provider named in
// cfg, if any. A dial failure only disables the memorized_parameter
// capability for this run; it is never fatal.
func buildMemoryStore(cfg *config.Config, logger *slog.Logger) body.MemoryStore {
	for name, db := range cfg.Databases {
		if db.Type != "qdrant" {
			continue
		}
		mem, err := body.NewQdrantMemory(db.Host, db.Port, "memorized_parameters")
		if err != nil {
			logger.Warn("memory store unavailable", "provider", name, "error", err)
			return nil
		}
		return mem
	}
	return nil
}

// runToolRegistry binds execute_command, write_file, and search_replace
// into a fresh registry rooted at a run's sandbox directory.
func runToolRegistry(root string) *body.ToolRegistry {
	reg := body.NewToolRegistry()
	reg.Register("execute_command", body.WrapTool("execute_command", tools.NewCommandTool(&tools.CommandToolConfig{WorkingDirectory: root, EnableSandboxing: true})))
	reg.Register("write_file", body.WrapTool("write_file", tools.NewFileWriterTool(&tools.FileWriterConfig{WorkingDirectory: root, BackupOnOverwrite: true})))
	reg.Register("search_replace", body.WrapTool("search_replace", tools.NewSearchReplaceTool(&tools.SearchReplaceConfig{WorkingDirectory: root, ShowDiff: true, CreateBackup: true})))
	return reg
}

type stdoutEventSink struct {
	logger interface {
		Info(string, ...any)
	}
}

func (s stdoutEventSink) Emit(ev orchestrator.Event) {
	s.logger.Info("event", "cycle", ev.Cycle, "inference_id", ev.InferenceID, "flow_index", ev.FlowIndex, "status", ev.Status, "error", ev.Err)
}

func exitForOrchestratorError(err error) error {
	switch err.(type) {
	case *orchestrator.BudgetExhaustedError:
		return withCode(exitBudgetExhausted, err)
	case *orchestrator.DeadlockError:
		return withCode(exitDeadlock, err)
	default:
		return withCode(exitRunFailed, err)
	}
}
