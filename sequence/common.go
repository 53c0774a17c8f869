package sequence

import (
	"context"
	"fmt"

	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

// iwi (input-waitlist-intake) collects the current reference for every
// input concept, recording a support edge for each.
func iwi(env *Env, inf *concept.Inference, o *Outcome) (map[string]*reference.Reference, error) {
	inputs := inf.InputConcepts()
	refs := make(map[string]*reference.Reference, len(inputs))
	for _, cid := range inputs {
		ref, err := env.Blackboard.GetReference(cid)
		if err != nil {
			return nil, fmt.Errorf("IWI: concept %q: %w", cid, err)
		}
		refs[cid] = ref
		env.Blackboard.RecordSupport(inf.ID, cid)
	}
	o.record("IWI", fmt.Sprintf("collected %d inputs", len(refs)))
	return refs, nil
}

// ir (input-reference assembly) builds a single arg-dict keyed by
// input_1, input_2, … in value_order (falling back to declaration order),
// one entry per input concept, each wrapping that input's whole Reference
// as a nested cell so it keeps its own shape.
func ir(inf *concept.Inference, refs map[string]*reference.Reference, o *Outcome) (reference.ArgDict, error) {
	order := orderedInputNames(inf)
	dict := make(reference.ArgDict, len(order))
	for i, cid := range order {
		ref, ok := refs[cid]
		if !ok {
			return nil, fmt.Errorf("IR: missing collected reference for %q", cid)
		}
		key := fmt.Sprintf("input_%d", i+1)
		if alias, ok := inf.WorkingInterpretation.ValueOrder[cid]; ok {
			key = fmt.Sprintf("input_%d", alias)
		}
		dict[key] = reference.Nested(ref)
	}
	o.record("IR", fmt.Sprintf("assembled arg-dict with %d entries", len(dict)))
	return dict, nil
}

func orderedInputNames(inf *concept.Inference) []string {
	names := inf.InputConcepts()
	if len(inf.WorkingInterpretation.ValueOrder) == 0 {
		return names
	}
	out := make([]string, len(names))
	copy(out, names)
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			oi := inf.WorkingInterpretation.ValueOrder[out[i]]
			oj := inf.WorkingInterpretation.ValueOrder[out[j]]
			if oj < oi {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// mfp (model-function-perception) resolves function_concept's reference
// into an executable Callable, using the Body's perception router to decode
// the function concept's perceptual signs and the capability the resolved
// affordance tag names.
func mfp(ctx context.Context, env *Env, inf *concept.Inference, o *Outcome) (reference.Callable, error) {
	if inf.FunctionConcept == "" {
		return nil, &UnknownAffordanceError{FunctionConceptID: "", Detail: "inference has no function_concept"}
	}
	fnRef, err := env.Blackboard.GetReference(inf.FunctionConcept)
	if err != nil {
		return nil, fmt.Errorf("MFP: %w", err)
	}
	env.Blackboard.RecordSupport(inf.ID, inf.FunctionConcept)

	cell, err := soleCell(fnRef)
	if err != nil {
		return nil, fmt.Errorf("MFP: %w", err)
	}
	if cell.Kind == reference.KindCallable {
		o.record("MFP", "function concept already holds a callable")
		return cell.Callable, nil
	}
	tag, _ := cell.Literal.(string)
	callable, err := resolveAffordance(ctx, env, inf, tag)
	if err != nil {
		return nil, err
	}
	o.record("MFP", fmt.Sprintf("resolved affordance %q (norm_input=%q)", tag, inf.WorkingInterpretation.NormInput))
	return callable, nil
}

// soleCell returns the single cell of a reference whose declared axes are
// all singleton (the common case for a function concept's instruction
// payload).
func soleCell(ref *reference.Reference) (reference.Cell, error) {
	coord := reference.Coord{}
	for _, a := range ref.Axes() {
		coord[a.Name] = 0
	}
	return ref.Get(coord)
}

// mvp (memory-value-perception) applies the perception router pointwise to
// the arg-dict so cells carrying perceptual signs become literal content.
func mvp(ctx context.Context, env *Env, dict reference.ArgDict, o *Outcome) (reference.ArgDict, error) {
	perceived, err := env.Body.Perception.PerceiveArgDict(ctx, dict)
	if err != nil {
		return nil, fmt.Errorf("MVP: %w", err)
	}
	o.record("MVP", "perceived arg-dict cells")
	return perceived, nil
}

// tva (tool-value-actuation) invokes the callable once with the arg-dict's
// cell values unwrapped (see cellValue). No handler calls it: the imperative
// and judgement sequences invoke their callable through
// reference.CrossAction.
func tva(fn reference.Callable, dict reference.ArgDict, o *Outcome) (reference.Result, error) {
	args := make(map[string]any, len(dict))
	for k, cell := range dict {
		args[k] = cellValue(cell)
	}
	res, err := fn.Call(args)
	if err != nil {
		return reference.Result{}, fmt.Errorf("TVA: %w", err)
	}
	o.record("TVA", fmt.Sprintf("invoked %q", fn.Name()))
	return res, nil
}

func cellValue(c reference.Cell) any {
	switch c.Kind {
	case reference.KindLiteral:
		return c.Literal
	case reference.KindCallable:
		return c.Callable
	case reference.KindReference:
		return c.Reference
	default:
		return nil
	}
}

// or_ (output-reference finalize) writes result into a fresh reference for
// concept_to_infer, shaped by its declared axis.
func or_(env *Env, inf *concept.Inference, result reference.Result, o *Outcome) (*reference.Reference, error) {
	c, err := env.Concepts.MustGet(inf.ConceptToInfer)
	if err != nil {
		return nil, fmt.Errorf("OR: %w", err)
	}
	ref, err := env.Concepts.NewMutableReference(c)
	if err != nil {
		return nil, fmt.Errorf("OR: %w", err)
	}
	axisName := "value"
	if len(c.ReferenceAxisNames) > 0 {
		axisName = c.ReferenceAxisNames[0]
	}
	if !ref.HasAxis(axisName) {
		if err := ref.AppendAxis(axisName, 0); err != nil {
			return nil, fmt.Errorf("OR: %w", err)
		}
	}
	if result.IsCollection {
		for _, v := range result.Values {
			if _, err := ref.AppendCell(axisName, nil, reference.Lit(v)); err != nil {
				return nil, fmt.Errorf("OR: %w", err)
			}
		}
	} else if len(result.Values) == 1 {
		if _, err := ref.AppendCell(axisName, nil, reference.Lit(result.Values[0])); err != nil {
			return nil, fmt.Errorf("OR: %w", err)
		}
	}
	o.record("OR", fmt.Sprintf("finalized reference for %q", inf.ConceptToInfer))
	return ref, nil
}

// owi (output-waitlist post) writes the finalized reference back to the
// Blackboard, waking dependents via the status flip to complete.
func owi(env *Env, inf *concept.Inference, ref *reference.Reference, o *Outcome) error {
	if _, err := env.Blackboard.SetReference(inf.ConceptToInfer, inf.ID, ref); err != nil {
		return fmt.Errorf("OWI: %w", err)
	}
	o.record("OWI", fmt.Sprintf("wrote %q", inf.ConceptToInfer))
	return nil
}
