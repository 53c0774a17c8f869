package sequence

import (
	"context"

	"github.com/plandrive/engine/body"
	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

// resolveAffordance turns a function concept's resolved sign into a
// Callable. When inf declares a working_interpretation.norm_input, the
// function concept's own literal tag is ignored and the paradigm spec
// registered under that norm_input is compiled instead (its env_spec and
// sequence_spec, per BuildParadigmCallable). Otherwise tag itself is one of
// the three base call codes ResolveBaseAffordance recognizes.
func resolveAffordance(ctx context.Context, env *Env, inf *concept.Inference, tag string) (reference.Callable, error) {
	functionConceptID := inf.FunctionConcept
	if norm := inf.WorkingInterpretation.NormInput; norm != "" {
		if env.Body.Paradigms == nil {
			return nil, &UnknownAffordanceError{FunctionConceptID: functionConceptID, Detail: "no paradigm registry configured"}
		}
		spec, ok := env.Body.Paradigms.Get(norm)
		if !ok {
			return nil, &UnknownAffordanceError{FunctionConceptID: functionConceptID, Detail: "no paradigm spec registered for norm_input " + norm}
		}
		callable, err := body.BuildParadigmCallable(ctx, env.Body, norm, spec)
		if err != nil {
			return nil, &UnknownAffordanceError{FunctionConceptID: functionConceptID, Detail: err.Error()}
		}
		return callable, nil
	}
	callable, err := body.ResolveBaseAffordance(ctx, env.Body, functionConceptID, tag)
	if err != nil {
		return nil, &UnknownAffordanceError{FunctionConceptID: functionConceptID, Detail: err.Error()}
	}
	return callable, nil
}
