package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plandrive/engine/body"
	"github.com/plandrive/engine/config"
	"github.com/plandrive/engine/llms"
	"github.com/plandrive/engine/orchestrator"
	"github.com/plandrive/engine/plan"
	"github.com/plandrive/engine/runhost"
)

// Server is the plan deployment and run lifecycle server: it deploys plan
// packages, launches and supervises their runs on a shared Run Host, and
// exposes their execution logs over a WebSocket and a Prometheus /metrics
// endpoint.
type Server struct {
	cfg    config.Config
	logger *slog.Logger

	host        *runhost.Host
	llmRegistry *llms.LLMRegistry
	tools       *body.ToolRegistry
	memory      body.MemoryStore
	hub         *hub

	mu    sync.RWMutex
	plans map[string]*plan.Package

	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New builds a Server over an already-opened Run Host and LLM/tool
// registries. Callers register LLM providers and tools before accepting
// traffic. If cfg.Databases names a qdrant backend, every run's
// memorized_parameter signs are backed by it; a misconfigured or
// unreachable backend only disables that capability, it never fails New.
func New(cfg config.Config, logger *slog.Logger, host *runhost.Host, llmRegistry *llms.LLMRegistry, tools *body.ToolRegistry) *Server {
	return &Server{
		cfg:         cfg,
		logger:      logger,
		host:        host,
		llmRegistry: llmRegistry,
		tools:       tools,
		memory:      buildMemoryStore(cfg, logger),
		hub:         newHub(),
		plans:       make(map[string]*plan.Package),
		upgrader:    websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096, CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// buildMemoryStore looks for a qdrant-typed database provider and dials it.
// At most one is wired: the memorized-value capability has a single backing
// store per deployment. A dial failure is logged and treated as "no memory
// store configured" rather than a startup error.
func buildMemoryStore(cfg config.Config, logger *slog.Logger) body.MemoryStore {
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

// Router builds the full REST+WS mux.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequest)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/plans", func(r chi.Router) {
		r.Post("/deploy", s.handleDeployPlan)
		r.Get("/", s.handleListPlans)
		r.Get("/{planID}", s.handleGetPlan)
		r.Delete("/{planID}", s.handleDeletePlan)
	})

	r.Route("/api/runs", func(r chi.Router) {
		r.Post("/", s.handleCreateRun)
		r.Get("/", s.handleListRuns)
		r.Get("/{runID}", s.handleGetRun)
		r.Get("/{runID}/result", s.handleRunResult)
		r.Post("/{runID}/pause", s.handlePauseRun)
		r.Post("/{runID}/resume", s.handleResumeRun)
		r.Post("/{runID}/stop", s.handleStopRun)
	})

	r.Route("/api/checkpoints/{runID}", func(r chi.Router) {
		r.Get("/", s.handleListCheckpoints)
		r.Post("/resume", s.handleCheckpointResume)
		r.Post("/fork", s.handleCheckpointFork)
	})

	r.Get("/ws/runs/{runID}", s.handleRunEvents)

	return r
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
	})
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled or
// an unrecoverable error occurs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.httpServer.Shutdown(shutdownCtx)
		if closer, ok := s.memory.(io.Closer); ok {
			if cerr := closer.Close(); cerr != nil {
				s.logger.Warn("closing memory store", "error", cerr)
			}
		}
		return err
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- plans ---------------------------------------------------------------

func (s *Server) handleDeployPlan(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("plan")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, 256<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pkg, err := plan.Load(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	planID := pkg.Manifest.Name + "@" + pkg.Manifest.Version
	s.mu.Lock()
	s.plans[planID] = pkg
	s.mu.Unlock()

	if s.cfg.Server.PlanStoreDir != "" {
		if err := s.persistPlan(planID, data); err != nil {
			s.logger.Warn("persisting deployed plan", "plan_id", planID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, DeployResponse{PlanID: planID})
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PlanSummary, 0, len(s.plans))
	for id, pkg := range s.plans {
		out = append(out, PlanSummary{PlanID: id, Name: pkg.Manifest.Name, Version: pkg.Manifest.Version, Description: pkg.Manifest.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	pkg, err := s.lookupPlan(chi.URLParam(r, "planID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg.Manifest)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")
	s.mu.Lock()
	pkg, ok := s.plans[planID]
	delete(s.plans, planID)
	s.mu.Unlock()
	if ok {
		_ = pkg.Close()
	}
	w.WriteHeader(http.StatusNoContent)
}

// persistPlan writes a deployed plan's raw archive bytes under the
// server's plan store directory, keyed by a filesystem-safe form of its
// plan id, so it survives a restart and can be reloaded by the serve
// command before run recovery runs.
func (s *Server) persistPlan(planID string, data []byte) error {
	if err := os.MkdirAll(s.cfg.Server.PlanStoreDir, 0o755); err != nil {
		return err
	}
	name := strings.NewReplacer("/", "_", "@", "_").Replace(planID) + ".zip"
	return os.WriteFile(filepath.Join(s.cfg.Server.PlanStoreDir, name), data, 0o644)
}

func (s *Server) lookupPlan(planID string) (*plan.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pkg, ok := s.plans[planID]
	if !ok {
		return nil, fmt.Errorf("server: plan %q not deployed", planID)
	}
	return pkg, nil
}

// --- runs ------------------------------------------------------------------

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pkg, err := s.lookupPlan(req.PlanID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err := pkg.BindGroundInputs(req.GroundInputs); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	handle, err := s.host.Launch(r.Context(), req.PlanID, req.UserID, func(h *runhost.RunHandle) (*orchestrator.Orchestrator, error) {
		return s.buildRun(pkg, req, h, nil)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, RunResponse{RunID: handle.ID, Status: "running", Agents: req.Agents})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	rows, err := s.host.Store().ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]RunSummary, len(rows))
	for i, row := range rows {
		out[i] = RunSummary{RunID: row.ID, PlanID: row.PlanID, UserID: row.UserID, Status: row.Status, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	row, err := s.host.Store().GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, RunSummary{RunID: row.ID, PlanID: row.PlanID, UserID: row.UserID, Status: row.Status, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt})
}

// handleRunResult reports a run's terminal status. Failure detail lives in
// the run's event log (the WS stream carries the per-inference errors); this
// endpoint only needs the final status word.
func (s *Server) handleRunResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	row, err := s.host.Store().GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{RunID: runID, Status: row.Status})
}

func (s *Server) handlePauseRun(w http.ResponseWriter, r *http.Request) {
	if err := s.host.Pause(r.Context(), chi.URLParam(r, "runID")); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request) {
	if err := s.host.Stop(r.Context(), chi.URLParam(r, "runID")); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResumeRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	row, err := s.host.Store().GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	pkg, err := s.lookupPlan(row.PlanID)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	_, snapshot, err := s.host.Store().LatestCheckpoint(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusConflict, fmt.Errorf("server: no checkpoint to resume from: %w", err))
		return
	}
	_, err = s.host.Resume(r.Context(), runID, func(h *runhost.RunHandle) (*orchestrator.Orchestrator, error) {
		return s.buildRun(pkg, RunRequest{PlanID: row.PlanID, UserID: row.UserID}, h, snapshot)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{RunID: runID, Status: "running"})
}

// --- checkpoints -------------------------------------------------------

func (s *Server) handleListCheckpoints(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	cycles, err := s.host.Store().ListCheckpoints(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckpointListResponse{RunID: runID, Cycles: cycles})
}

func (s *Server) handleCheckpointResume(w http.ResponseWriter, r *http.Request) {
	s.handleResumeRun(w, r) // resume always replays from the latest checkpoint
}

func (s *Server) handleCheckpointFork(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	var req CheckpointActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	row, err := s.host.Store().GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	pkg, err := s.lookupPlan(row.PlanID)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = row.UserID
	}
	forkedID, snapshot, err := s.host.Fork(r.Context(), runID, req.Cycle, row.PlanID, userID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	_, err = s.host.Resume(r.Context(), forkedID, func(h *runhost.RunHandle) (*orchestrator.Orchestrator, error) {
		return s.buildRun(pkg, RunRequest{PlanID: row.PlanID, UserID: userID}, h, snapshot)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, ForkResponse{RunID: forkedID})
}

// --- event stream --------------------------------------------------------

func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "run_id", runID, "error", err)
		return
	}
	defer conn.Close()

	ch := s.hub.subscribe(runID)
	defer s.hub.unsubscribe(runID, ch)

	for ev := range ch {
		if err := conn.WriteJSON(toWSEvent(ev)); err != nil {
			return
		}
	}
}

// --- helpers ---------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
