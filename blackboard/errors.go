package blackboard

import "fmt"

// TransitionError reports an illegal inference status transition.
type TransitionError struct {
	InferenceID string
	From        InferenceStatus
	To          InferenceStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("blackboard: illegal transition for inference %q: %s -> %s", e.InferenceID, e.From, e.To)
}

// NotCompleteError reports that a concept's reference was requested before
// it reached ConceptComplete.
type NotCompleteError struct {
	ConceptID string
	Status    ConceptStatus
}

func (e *NotCompleteError) Error() string {
	return fmt.Sprintf("blackboard: concept %q is not complete (status %s)", e.ConceptID, e.Status)
}
