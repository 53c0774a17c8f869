package sequence

import (
	"context"
	"fmt"

	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

// assigningHandler implements IWI-IR-AR-OR-OWI: the five assignment
// markers over a source and destination concept.
type assigningHandler struct{}

func (assigningHandler) Run(_ context.Context, env *Env, inf *concept.Inference) (*Outcome, error) {
	o := &Outcome{}
	refs, err := iwi(env, inf, o)
	if err != nil {
		return nil, err
	}

	syntax := inf.WorkingInterpretation.Syntax
	sourceID := syntax.AssignSource
	if sourceID == "" && len(inf.InputConcepts()) > 0 {
		sourceID = inf.InputConcepts()[0]
	}
	source, ok := refs[sourceID]
	if !ok {
		return nil, &ShapeError{ConceptID: inf.ConceptToInfer, Detail: fmt.Sprintf("assign_source %q not collected", sourceID)}
	}

	var out *reference.Reference
	switch syntax.Marker {
	case "", ".":
		out, err = assignSpecify(env, inf, source)
	case "+":
		out, err = assignContinuation(env, inf, refs, source)
	case "-":
		out, err = assignSelect(inf, source, sourceID)
	case "=":
		out = source
	case "%":
		out, err = assignAbstraction(env, inf, source)
	default:
		return nil, &ShapeError{ConceptID: inf.ConceptToInfer, Detail: fmt.Sprintf("unknown assignment marker %q", syntax.Marker)}
	}
	if err != nil {
		return nil, fmt.Errorf("AR: %w", err)
	}
	o.record("AR", fmt.Sprintf("applied marker %q", syntax.Marker))
	o.record("OR", "finalized assignment")
	if err := owi(env, inf, out, o); err != nil {
		return nil, err
	}
	return o, nil
}

func assignSpecify(env *Env, inf *concept.Inference, source *reference.Reference) (*reference.Reference, error) {
	dest, err := env.Concepts.MustGet(inf.ConceptToInfer)
	if err != nil {
		return nil, err
	}
	if len(dest.ReferenceAxisNames) > 0 {
		sourceAxes := map[string]bool{}
		for _, a := range source.Axes() {
			sourceAxes[a.Name] = true
		}
		for _, want := range dest.ReferenceAxisNames {
			if !sourceAxes[want] {
				return nil, &ShapeError{ConceptID: inf.ConceptToInfer, Detail: fmt.Sprintf("source missing declared axis %q", want)}
			}
		}
	}
	return source, nil
}

func assignContinuation(env *Env, inf *concept.Inference, refs map[string]*reference.Reference, source *reference.Reference) (*reference.Reference, error) {
	destID := inf.WorkingInterpretation.Syntax.AssignDestination
	dest, hadDest := refs[destID]
	if !hadDest {
		c, err := env.Concepts.MustGet(inf.ConceptToInfer)
		if err != nil {
			return nil, err
		}
		dest, err = env.Concepts.NewMutableReference(c)
		if err != nil {
			return nil, err
		}
	}
	primaryAxis := "value"
	if axes := dest.Axes(); len(axes) > 0 {
		primaryAxis = axes[0].Name
	} else if axes := source.Axes(); len(axes) > 0 {
		primaryAxis = axes[0].Name
	}
	if !dest.HasAxis(primaryAxis) {
		if err := dest.AppendAxis(primaryAxis, 0); err != nil {
			return nil, err
		}
	}
	if _, err := dest.AppendCell(primaryAxis, nil, reference.Nested(source)); err != nil {
		return nil, err
	}
	return dest, nil
}

func assignSelect(inf *concept.Inference, source *reference.Reference, sourceID string) (*reference.Reference, error) {
	axes := source.Axes()
	if len(axes) == 0 {
		return nil, fmt.Errorf("select: source has no axes to derelate over")
	}
	axisName := axes[0].Name
	index, key := 0, ""
	if sel, ok := selectorFor(inf.WorkingInterpretation, sourceID); ok {
		index = sel.Index
		key = sel.Key
	}
	return reference.Derelation(source, axisName, index, key)
}

// selectorFor finds the value_selectors entry that applies to sourceID: the
// map is normally keyed by the concept it selects from, but falls back to a
// scan over source_concept in case the plan keys it by label instead.
func selectorFor(wi concept.WorkingInterpretation, sourceID string) (concept.ValueSelector, bool) {
	if sel, ok := wi.ValueSelectors[sourceID]; ok {
		return sel, true
	}
	for _, sel := range wi.ValueSelectors {
		if sel.SourceConcept == sourceID {
			return sel, true
		}
	}
	return concept.ValueSelector{}, false
}

func assignAbstraction(env *Env, inf *concept.Inference, source *reference.Reference) (*reference.Reference, error) {
	c, err := env.Concepts.MustGet(inf.ConceptToInfer)
	if err != nil {
		return nil, err
	}
	out, err := env.Concepts.NewMutableReference(c)
	if err != nil {
		return nil, err
	}
	axisName := "value"
	if len(c.ReferenceAxisNames) > 0 {
		axisName = c.ReferenceAxisNames[0]
	}
	if !out.HasAxis(axisName) {
		if err := out.AppendAxis(axisName, 0); err != nil {
			return nil, err
		}
	}
	if _, err := out.AppendCell(axisName, nil, reference.Nested(source)); err != nil {
		return nil, err
	}
	return out, nil
}
