package sequence

import (
	"context"
	"fmt"

	"github.com/plandrive/engine/concept"
)

// simpleHandler implements IWI-IR-OR-OWI: a passthrough copy of a single
// input reference to concept_to_infer.
type simpleHandler struct{}

func (simpleHandler) Run(_ context.Context, env *Env, inf *concept.Inference) (*Outcome, error) {
	o := &Outcome{}
	refs, err := iwi(env, inf, o)
	if err != nil {
		return nil, err
	}
	inputs := inf.InputConcepts()
	if len(inputs) != 1 {
		return nil, &ShapeError{ConceptID: inf.ConceptToInfer, Detail: "simple sequence requires exactly one input concept"}
	}
	dict, err := ir(inf, refs, o)
	if err != nil {
		return nil, err
	}
	sole := dict["input_1"]
	out := sole.Reference
	if out == nil {
		return nil, &ShapeError{ConceptID: inf.ConceptToInfer, Detail: "input is not a reference"}
	}
	o.record("OR", fmt.Sprintf("copied %q", inputs[0]))
	if err := owi(env, inf, out, o); err != nil {
		return nil, err
	}
	return o, nil
}
