// Package blackboard implements the per-run mutable state: concept
// references, inference statuses, the support graph, and iteration
// history for loops.
package blackboard

// ConceptStatus is the lifecycle state of one concept's reference.
type ConceptStatus string

const (
	ConceptPending    ConceptStatus = "pending"
	ConceptInProgress ConceptStatus = "in_progress"
	ConceptComplete   ConceptStatus = "complete"
)

// InferenceStatus is the lifecycle state of one inference.
type InferenceStatus string

const (
	InferencePending    InferenceStatus = "pending"
	InferenceInProgress InferenceStatus = "in_progress"
	InferenceComplete   InferenceStatus = "complete"
	InferenceFailed     InferenceStatus = "failed"
)

// legalTransitions enumerates the inference state machine. Loop
// iterations perform the one legal back-transition (complete -> pending)
// through ReopenInferenceForIteration, not through MarkInference, so it is
// deliberately absent here.
var legalTransitions = map[InferenceStatus]map[InferenceStatus]bool{
	InferencePending:    {InferenceInProgress: true},
	InferenceInProgress: {InferenceComplete: true, InferenceFailed: true},
	InferenceFailed:     {InferencePending: true}, // bounded retry
	InferenceComplete:   {},
}
