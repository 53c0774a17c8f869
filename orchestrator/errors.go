package orchestrator

import (
	"fmt"
	"strings"
)

// ReadinessError reports that a sequence was dispatched without every
// required input complete. It always indicates an orchestrator defect, not
// a plan or data error.
type ReadinessError struct {
	InferenceID string
	Missing     []string
}

func (e *ReadinessError) Error() string {
	return fmt.Sprintf("orchestrator: inference %q dispatched with incomplete inputs: %v", e.InferenceID, e.Missing)
}

// BlockedInference describes one frontier entry in a DeadlockError.
type BlockedInference struct {
	FlowIndex string
	Missing   []string
}

// DeadlockError reports that a cycle produced no status transitions while
// at least one final concept remained pending.
type DeadlockError struct {
	Frontier []BlockedInference
}

func (e *DeadlockError) Error() string {
	parts := make([]string, len(e.Frontier))
	for i, b := range e.Frontier {
		parts[i] = fmt.Sprintf("%s (missing %v)", b.FlowIndex, b.Missing)
	}
	return fmt.Sprintf("orchestrator: deadlock, blocked frontier: %s", strings.Join(parts, "; "))
}

// BudgetExhaustedError reports that the cycle counter exceeded max_cycles.
type BudgetExhaustedError struct {
	MaxCycles int
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("orchestrator: budget exhausted after %d cycles", e.MaxCycles)
}

// CancelledError reports a user- or host-initiated cancellation.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "orchestrator: run cancelled" }

// PausedSignal is not an error; it is returned by Run to report a clean
// suspension point (distinct from termination) so the caller can persist a
// checkpoint and return control without treating the run as failed.
type PausedSignal struct{}

func (e *PausedSignal) Error() string { return "orchestrator: run paused" }
