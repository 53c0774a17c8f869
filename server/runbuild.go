package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/plandrive/engine/blackboard"
	"github.com/plandrive/engine/body"
	"github.com/plandrive/engine/orchestrator"
	"github.com/plandrive/engine/plan"
	"github.com/plandrive/engine/runhost"
	"github.com/plandrive/engine/sequence"
	"github.com/plandrive/engine/tools"
)

// buildRun assembles a fresh Blackboard, Body, and Orchestrator for one run
// of pkg, under handle.ID's sandbox directory, wired to s's shared LLM and
// tool registries. The Body is shared read-only credentials per deployment,
// wrapped per run with a sandbox root.
func (s *Server) buildRun(pkg *plan.Package, req RunRequest, handle *runhost.RunHandle, snapshot []byte) (*orchestrator.Orchestrator, error) {
	board, err := blackboard.New(pkg.Concepts, pkg.Inferences, pkg.Concepts.AllIDs())
	if err != nil {
		return nil, fmt.Errorf("server: seeding blackboard: %w", err)
	}
	if snapshot != nil {
		if err := board.Restore(snapshot); err != nil {
			return nil, fmt.Errorf("server: restoring checkpoint: %w", err)
		}
	}

	sandboxRoot := filepath.Join(s.cfg.Sandbox.RootDir, handle.ID)
	if err := os.MkdirAll(sandboxRoot, 0o755); err != nil {
		return nil, fmt.Errorf("server: creating sandbox root: %w", err)
	}
	files, err := body.NewSandboxedFileSystem(sandboxRoot)
	if err != nil {
		return nil, fmt.Errorf("server: sandbox: %w", err)
	}

	sandboxCfg := s.cfg.Sandbox
	sandboxCfg.RootDir = sandboxRoot
	python := body.NewSandboxPythonInterpreter(sandboxCfg)

	provisions, err := pkg.Provisions()
	if err != nil {
		return nil, fmt.Errorf("server: provisions: %w", err)
	}
	prompts := body.NewTemplatePromptTool(provisions)
	paradigms, err := body.NewParadigmRegistry(provisions)
	if err != nil {
		return nil, fmt.Errorf("server: paradigms: %w", err)
	}

	llmName := s.defaultLLMName(req)
	provider, err := s.llmRegistry.GetLLM(llmName)
	if err != nil {
		return nil, fmt.Errorf("server: llm %q: %w", llmName, err)
	}
	llm := body.WrapLLMProvider(provider)

	input := body.NewStdinUserInput() // every run reads user input from stdin; no user_input_tool binding is consulted

	runTools := s.runToolRegistry(sandboxRoot)

	b := body.New(llm, files, python, input, body.NewJSONFormatter(), body.NewLinearComposer(), prompts, runTools).WithMemory(s.memory).WithParadigms(paradigms)

	env := &sequence.Env{
		Blackboard: board,
		Concepts:   pkg.Concepts,
		Inferences: pkg.Inferences,
		Body:       b,
	}

	checkpointer := s.host.Checkpoint(handle.ID)
	events := fanoutSink{sinks: []orchestrator.EventSink{s.host.EventSink(handle.ID, handle), s.hub.sinkFor(handle.ID)}}

	logger := s.logger.With("run_id", handle.ID, "plan_id", pkg.Manifest.Name)

	orch, err := orchestrator.New(board, pkg.Concepts, pkg.Inferences, env, checkpointer, events, logger, s.cfg.Run, s.cfg.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("server: building orchestrator: %w", err)
	}
	return orch, nil
}

// runToolRegistry builds the per-run Callable set: the deployment's shared
// tools (s.tools, usually LLM-adjacent helpers with no filesystem footprint)
// plus a sandboxed execute_command/write_file/search_replace bound to root,
// so a run can never touch another run's files.
func (s *Server) runToolRegistry(root string) *body.ToolRegistry {
	reg := body.NewToolRegistry()
	for _, name := range s.tools.Names() {
		if callable, ok := s.tools.Get(name); ok {
			reg.Register(name, callable)
		}
	}

	commandCfg := &tools.CommandToolConfig{WorkingDirectory: root, EnableSandboxing: true}
	reg.Register("execute_command", body.WrapTool("execute_command", tools.NewCommandTool(commandCfg)))

	writerCfg := &tools.FileWriterConfig{WorkingDirectory: root, BackupOnOverwrite: true}
	reg.Register("write_file", body.WrapTool("write_file", tools.NewFileWriterTool(writerCfg)))

	replaceCfg := &tools.SearchReplaceConfig{WorkingDirectory: root, ShowDiff: true, CreateBackup: true}
	reg.Register("search_replace", body.WrapTool("search_replace", tools.NewSearchReplaceTool(replaceCfg)))

	return reg
}

// defaultLLMName picks the LLM registration name a run's agents bind to,
// falling back to the server's configured default.
func (s *Server) defaultLLMName(req RunRequest) string {
	for _, binding := range req.Agents {
		if name, ok := binding.Tools["llm_tool"]; ok && name != "" {
			return name
		}
	}
	return "default-llm"
}

// LoadPlanFile opens a plan package from disk and registers it under its
// manifest-derived id, for the CLI's deploy command and for replaying the
// plan store on startup.
func (s *Server) LoadPlanFile(path string) (string, error) {
	pkg, err := plan.Open(path)
	if err != nil {
		return "", fmt.Errorf("server: loading plan file %q: %w", path, err)
	}
	planID := pkg.Manifest.Name + "@" + pkg.Manifest.Version
	s.mu.Lock()
	s.plans[planID] = pkg
	s.mu.Unlock()
	return planID, nil
}

// RecoverRuns resumes every run this process's Store believes was in
// flight when it last stopped, rebuilding each from its latest checkpoint.
// Plans referenced by those runs must already be registered (via
// LoadPlanFile against the server's plan store directory) before this
// runs; a run whose plan isn't registered is skipped and logged.
func (s *Server) RecoverRuns(ctx context.Context) (int, error) {
	recoverable, err := runhost.Recover(ctx, s.host.Store())
	if err != nil {
		return 0, fmt.Errorf("server: listing recoverable runs: %w", err)
	}
	resumed := 0
	for _, rec := range recoverable {
		row, err := s.host.Store().GetRun(ctx, rec.RunID)
		if err != nil {
			s.logger.Warn("recovery: run row missing", "run_id", rec.RunID, "error", err)
			continue
		}
		pkg, err := s.lookupPlan(row.PlanID)
		if err != nil {
			s.logger.Warn("recovery: plan not registered, leaving run paused", "run_id", rec.RunID, "plan_id", row.PlanID)
			continue
		}
		_, err = s.host.Resume(ctx, rec.RunID, func(h *runhost.RunHandle) (*orchestrator.Orchestrator, error) {
			return s.buildRun(pkg, RunRequest{PlanID: row.PlanID, UserID: row.UserID}, h, rec.Snapshot)
		})
		if err != nil {
			s.logger.Warn("recovery: resume failed", "run_id", rec.RunID, "error", err)
			continue
		}
		resumed++
	}
	return resumed, nil
}
