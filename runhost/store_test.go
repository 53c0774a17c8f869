package runhost

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreCreateAndGetRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, "run-1", "plan-1", "user-1"); err != nil {
		t.Fatal(err)
	}

	row, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if row.PlanID != "plan-1" || row.UserID != "user-1" || row.Status != "running" {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestStoreSetRunStatusAndRecovery(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, "run-1", "plan-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateRun(ctx, "run-2", "plan-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetRunStatus(ctx, "run-2", "complete"); err != nil {
		t.Fatal(err)
	}

	ids, err := store.ListRunningOnStartup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "run-1" {
		t.Fatalf("expected only run-1 pending recovery, got %v", ids)
	}
}

func TestStoreCheckpointRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, "run-1", "plan-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveCheckpoint(ctx, "run-1", 1, []byte("snap-1")); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveCheckpoint(ctx, "run-1", 2, []byte("snap-2")); err != nil {
		t.Fatal(err)
	}

	cycle, snapshot, err := store.LatestCheckpoint(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if cycle != 2 || string(snapshot) != "snap-2" {
		t.Fatalf("expected latest checkpoint (2, snap-2), got (%d, %s)", cycle, snapshot)
	}

	at1, err := store.CheckpointAt(ctx, "run-1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if string(at1) != "snap-1" {
		t.Fatalf("expected snap-1, got %s", at1)
	}

	cycles, err := store.ListCheckpoints(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cycles) != 2 || cycles[0] != 1 || cycles[1] != 2 {
		t.Fatalf("expected [1 2], got %v", cycles)
	}
}

func TestStoreAppendEvent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, "run-1", "plan-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	steps := []string{"IWI", "IR", "TVA"}
	if err := store.AppendEvent(ctx, "run-1", 1, 1, "inf-1", "1.1", "complete", steps, ""); err != nil {
		t.Fatal(err)
	}
}
