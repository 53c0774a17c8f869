package orchestrator

import (
	"testing"

	"github.com/plandrive/engine/config"
)

func TestShouldCheckpointEveryCycleByDefault(t *testing.T) {
	o := &Orchestrator{checkpointCfg: config.CheckpointConfig{}}
	for cycle := 1; cycle <= 5; cycle++ {
		if !o.shouldCheckpoint(cycle) {
			t.Errorf("expected checkpoint every cycle when EveryNCycles is unset, cycle %d", cycle)
		}
	}
}

func TestShouldCheckpointEveryNCycles(t *testing.T) {
	o := &Orchestrator{checkpointCfg: config.CheckpointConfig{EveryNCycles: 3}}
	want := map[int]bool{1: false, 2: false, 3: true, 4: false, 6: true}
	for cycle, expected := range want {
		if got := o.shouldCheckpoint(cycle); got != expected {
			t.Errorf("shouldCheckpoint(%d) = %v, want %v", cycle, got, expected)
		}
	}
}
