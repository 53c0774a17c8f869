// Package sequence implements the seven fixed inference pipelines
// (simple, grouping, looping, assigning, timing, imperative, judgement)
// the orchestrator dispatches a ready inference to.
package sequence

import (
	"context"

	"github.com/plandrive/engine/blackboard"
	"github.com/plandrive/engine/body"
	"github.com/plandrive/engine/concept"
)

// Env bundles everything a sequence handler needs to run one inference: the
// shared Blackboard, the load-time repositories, and the run's Body.
type Env struct {
	Blackboard *blackboard.Blackboard
	Concepts   *concept.ConceptRepo
	Inferences *concept.InferenceRepo
	Body       *body.Body

	// RunBodyToCompletion drives the orchestrator's own cycle loop
	// restricted to inferences under flowPrefix, used by the looping
	// sequence to execute one iteration's body. It returns once every
	// inference under the prefix reaches a terminal status for this
	// iteration or an error occurs.
	RunBodyToCompletion func(ctx context.Context, flowPrefix string) error
}

// StepLog records one pipeline step's tag and outcome for the execution log
// (step tags are stable and appear here verbatim).
type StepLog struct {
	Tag   string
	Detail string
}

// Outcome is what a Handler returns on success: the log of steps it ran,
// used by the orchestrator to build the persisted execution log entry.
type Outcome struct {
	Steps []StepLog
}

func (o *Outcome) record(tag, detail string) {
	o.Steps = append(o.Steps, StepLog{Tag: tag, Detail: detail})
}
