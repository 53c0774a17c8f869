package runhost

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/plandrive/engine/orchestrator"
)

// RunHandle is everything the Host tracks about one in-flight run: its
// cancellation control, the sequence counter for its event log, and the
// orchestrator driving it.
type RunHandle struct {
	ID     string
	cancel context.CancelFunc
	seq    atomic.Int64

	orch *orchestrator.Orchestrator
	done chan struct{}
	err  error
}

// Wait blocks until the run reaches a terminal state and returns its error
// (nil on success).
func (h *RunHandle) Wait() error {
	<-h.done
	return h.err
}

// Host manages many concurrent runs, each with its own Orchestrator,
// Blackboard, worker pool, and event stream, all sharing one SQLite Store.
type Host struct {
	store *Store

	mu   sync.RWMutex
	runs map[string]*RunHandle
}

// NewHost wraps store in a Host.
func NewHost(store *Store) *Host {
	return &Host{store: store, runs: make(map[string]*RunHandle)}
}

// Launch registers a new run, starts its Orchestrator in a goroutine, and
// returns its handle immediately.
func (h *Host) Launch(ctx context.Context, planID, userID string, build func(h *RunHandle) (*orchestrator.Orchestrator, error)) (*RunHandle, error) {
	runID := uuid.NewString()
	if err := h.store.CreateRun(ctx, runID, planID, userID); err != nil {
		return nil, fmt.Errorf("runhost: creating run: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	handle := &RunHandle{ID: runID, cancel: cancel, done: make(chan struct{})}

	orch, err := build(handle)
	if err != nil {
		cancel()
		return nil, err
	}
	handle.orch = orch

	h.mu.Lock()
	h.runs[runID] = handle
	h.mu.Unlock()

	go func() {
		defer close(handle.done)
		err := orch.Run(runCtx)
		handle.err = err
		status := "complete"
		if err != nil {
			status = outcomeStatus(err)
		}
		_ = h.store.SetRunStatus(context.Background(), runID, status)
	}()

	return handle, nil
}

// Resume relaunches runID under its existing id and history: the caller
// supplies a Blackboard already restored from a checkpoint (via
// RestoreBlackboard) inside build. Used both to un-pause a run and to
// recover one found in flight at process start.
func (h *Host) Resume(ctx context.Context, runID string, build func(h *RunHandle) (*orchestrator.Orchestrator, error)) (*RunHandle, error) {
	if err := h.store.SetRunStatus(ctx, runID, "running"); err != nil {
		return nil, fmt.Errorf("runhost: resuming run: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	handle := &RunHandle{ID: runID, cancel: cancel, done: make(chan struct{})}

	orch, err := build(handle)
	if err != nil {
		cancel()
		return nil, err
	}
	handle.orch = orch

	h.mu.Lock()
	h.runs[runID] = handle
	h.mu.Unlock()

	go func() {
		defer close(handle.done)
		err := orch.Run(runCtx)
		handle.err = err
		status := "complete"
		if err != nil {
			status = outcomeStatus(err)
		}
		_ = h.store.SetRunStatus(context.Background(), runID, status)
	}()

	return handle, nil
}

// Store exposes the Host's shared Store for read access (run status, plan
// id lookup, checkpoint listing).
func (h *Host) Store() *Store { return h.store }

func outcomeStatus(err error) string {
	switch err.(type) {
	case *orchestrator.CancelledError:
		return "stopped"
	case *orchestrator.BudgetExhaustedError:
		return "budget_exhausted"
	case *orchestrator.DeadlockError:
		return "deadlocked"
	default:
		return "failed"
	}
}

// Get returns the handle for runID, if the Host is currently tracking it.
func (h *Host) Get(runID string) (*RunHandle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handle, ok := h.runs[runID]
	return handle, ok
}

// Pause cancels runID's context (a checkpoint has already been written at
// the most recent cycle boundary) and marks it paused.
func (h *Host) Pause(ctx context.Context, runID string) error {
	handle, ok := h.Get(runID)
	if !ok {
		return fmt.Errorf("runhost: run %q not found", runID)
	}
	handle.cancel()
	return h.store.SetRunStatus(ctx, runID, "paused")
}

// Stop cancels runID's context permanently.
func (h *Host) Stop(ctx context.Context, runID string) error {
	handle, ok := h.Get(runID)
	if !ok {
		return fmt.Errorf("runhost: run %q not found", runID)
	}
	handle.cancel()
	return h.store.SetRunStatus(ctx, runID, "stopped")
}

// Checkpoint implements orchestrator.Checkpointer for one run's handle.
func (h *Host) Checkpoint(runID string) orchestrator.Checkpointer {
	return checkpointerFunc(func(ctx context.Context, cycle int, snapshot []byte) error {
		return h.store.SaveCheckpoint(ctx, runID, cycle, snapshot)
	})
}

// EventSink implements orchestrator.EventSink for one run's handle,
// assigning each event a monotonically increasing per-run sequence number.
func (h *Host) EventSink(runID string, handle *RunHandle) orchestrator.EventSink {
	return eventSinkFunc(func(ev orchestrator.Event) {
		seq := handle.seq.Add(1)
		_ = h.store.AppendEvent(context.Background(), runID, int(seq), ev.Cycle, ev.InferenceID, ev.FlowIndex, string(ev.Status), ev.Steps, ev.Err)
	})
}

type checkpointerFunc func(ctx context.Context, cycle int, snapshot []byte) error

func (f checkpointerFunc) Checkpoint(ctx context.Context, cycle int, snapshot []byte) error {
	return f(ctx, cycle, snapshot)
}

type eventSinkFunc func(orchestrator.Event)

func (f eventSinkFunc) Emit(ev orchestrator.Event) { f(ev) }
