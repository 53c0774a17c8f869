package runhost

import (
	"errors"
	"testing"

	"github.com/plandrive/engine/orchestrator"
)

func TestOutcomeStatusMapsKnownErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&orchestrator.CancelledError{}, "stopped"},
		{&orchestrator.BudgetExhaustedError{MaxCycles: 10}, "budget_exhausted"},
		{&orchestrator.DeadlockError{}, "deadlocked"},
		{errors.New("boom"), "failed"},
	}
	for _, c := range cases {
		if got := outcomeStatus(c.err); got != c.want {
			t.Errorf("outcomeStatus(%T) = %q, want %q", c.err, got, c.want)
		}
	}
}
