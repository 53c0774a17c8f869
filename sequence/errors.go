package sequence

import "fmt"

// ShapeError reports that a sequence produced output whose shape did not
// match concept_to_infer's declared axes.
type ShapeError struct {
	ConceptID string
	Detail    string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("sequence: concept %q: %s", e.ConceptID, e.Detail)
}

// UnknownAffordanceError reports that MFP could not resolve a function
// concept's perceptual sign into a callable.
type UnknownAffordanceError struct {
	FunctionConceptID string
	Detail            string
}

func (e *UnknownAffordanceError) Error() string {
	return fmt.Sprintf("sequence: function concept %q: %s", e.FunctionConceptID, e.Detail)
}
