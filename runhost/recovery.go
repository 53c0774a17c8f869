package runhost

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/plandrive/engine/blackboard"
)

// RecoverableRun describes one run this process found in status
// running/paused at startup, ready for the caller to rebuild its
// repositories and hand back to Resume.
type RecoverableRun struct {
	RunID         string
	Cycle         int
	Snapshot      []byte
}

// Recover lists every run this Store believes was in flight when the
// process last stopped: no automatic restart is attempted here,
// since rebuilding a run's ConceptRepo/InferenceRepo requires the plan
// package, which only the caller has resolved. The caller decides whether
// to auto-resume or surface these for operator action.
func Recover(ctx context.Context, store *Store) ([]RecoverableRun, error) {
	ids, err := store.ListRunningOnStartup(ctx)
	if err != nil {
		return nil, fmt.Errorf("runhost: listing in-flight runs: %w", err)
	}
	out := make([]RecoverableRun, 0, len(ids))
	for _, id := range ids {
		cycle, snapshot, err := store.LatestCheckpoint(ctx, id)
		if err != nil {
			continue // a run with no checkpoint yet never wrote past cycle 0; skip, caller restarts fresh
		}
		out = append(out, RecoverableRun{RunID: id, Cycle: cycle, Snapshot: snapshot})
	}
	return out, nil
}

// RestoreBlackboard rebuilds a Blackboard from a run's latest checkpoint.
// The caller supplies a freshly-seeded Blackboard (from blackboard.New)
// whose state this then overwrites; a reader after this call sees exactly
// the pre-crash state, never a half-applied cycle (checkpoints are written
// atomically by Store.SaveCheckpoint within a single SQLite transaction).
func RestoreBlackboard(board *blackboard.Blackboard, snapshot []byte) error {
	return board.Restore(snapshot)
}

// Fork copies runID's checkpoint at cycle into a brand new run id, so the
// caller can launch an independent continuation without mutating the
// original run's history.
func (h *Host) Fork(ctx context.Context, runID string, cycle int, planID, userID string) (newRunID string, snapshot []byte, err error) {
	snapshot, err = h.store.CheckpointAt(ctx, runID, cycle)
	if err != nil {
		return "", nil, fmt.Errorf("runhost: fork: no checkpoint at cycle %d: %w", cycle, err)
	}
	forked := uuid.NewString()
	if err := h.store.CreateRun(ctx, forked, planID, userID); err != nil {
		return "", nil, err
	}
	if err := h.store.SaveCheckpoint(ctx, forked, cycle, snapshot); err != nil {
		return "", nil, err
	}
	return forked, snapshot, nil
}
