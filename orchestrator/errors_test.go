package orchestrator

import (
	"strings"
	"testing"
)

func TestDeadlockErrorMessageListsFrontier(t *testing.T) {
	err := &DeadlockError{
		Frontier: []BlockedInference{
			{FlowIndex: "1.1", Missing: []string{"concept_a"}},
			{FlowIndex: "1.2", Missing: []string{"concept_b", "concept_c"}},
		},
	}
	msg := err.Error()
	for _, want := range []string{"1.1", "concept_a", "1.2", "concept_b", "concept_c"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q, got %q", want, msg)
		}
	}
}

func TestBudgetExhaustedErrorMessage(t *testing.T) {
	err := &BudgetExhaustedError{MaxCycles: 50}
	if !strings.Contains(err.Error(), "50") {
		t.Errorf("expected message to mention max cycles, got %q", err.Error())
	}
}
