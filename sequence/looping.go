package sequence

import (
	"context"
	"fmt"

	"github.com/plandrive/engine/blackboard"
	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

// loopingHandler implements IWI-IR-GR-QR-OR-OWI for the `*every` operator:
// one pass over the base concept's axis, re-running the loop body once per
// index and accumulating each iteration's output.
type loopingHandler struct{}

func (loopingHandler) Run(ctx context.Context, env *Env, inf *concept.Inference) (*Outcome, error) {
	o := &Outcome{}
	syntax := inf.WorkingInterpretation.Syntax

	baseRef, err := env.Blackboard.GetReference(syntax.LoopBaseConcept)
	if err != nil {
		return nil, fmt.Errorf("IWI: loop base %q: %w", syntax.LoopBaseConcept, err)
	}
	env.Blackboard.RecordSupport(inf.ID, syntax.LoopBaseConcept)
	o.record("IWI", fmt.Sprintf("bound loop base %q", syntax.LoopBaseConcept))

	baseAxes := baseRef.Axes()
	if len(baseAxes) == 0 {
		return nil, &ShapeError{ConceptID: inf.ConceptToInfer, Detail: "loop base has no axis to iterate"}
	}
	iterAxis := baseAxes[0]
	o.record("IR", fmt.Sprintf("iterating axis %q (%d elements)", iterAxis.Name, iterAxis.Size))

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

	prefix := inf.FlowInfo.FlowIndex
	for i := 0; i < iterAxis.Size; i++ {
		elem, err := baseRef.Get(reference.Coord{iterAxis.Name: i})
		if err != nil {
			return nil, fmt.Errorf("GR: reading base element %d: %w", i, err)
		}
		currentRef, err := wrapSingleton(elem)
		if err != nil {
			return nil, err
		}
		if _, err := env.Blackboard.SetReference(syntax.CurrentLoopBaseConcept, inf.ID, currentRef); err != nil {
			return nil, err
		}

		if i > 0 {
			if err := carryInLoopConcepts(env, inf.ID, syntax); err != nil {
				return nil, fmt.Errorf("QR: iteration %d: %w", i, err)
			}
		}
		reopenBody(env, prefix, syntax)
		o.record("QR", fmt.Sprintf("iteration %d bound and re-enabled", i))

		if env.RunBodyToCompletion != nil {
			if err := env.RunBodyToCompletion(ctx, prefix); err != nil {
				return nil, fmt.Errorf("QR: iteration %d: %w", i, err)
			}
		}

		for _, targetID := range syntax.ConceptToInfer {
			iterOut, err := env.Blackboard.GetReference(targetID)
			if err != nil {
				return nil, fmt.Errorf("QR: iteration %d output %q: %w", i, targetID, err)
			}
			env.Blackboard.PushIterationHistory(prefix, targetID, iterOut)
			if _, err := out.AppendCell(axisName, nil, reference.Nested(iterOut)); err != nil {
				return nil, err
			}
		}
	}

	if !inf.WorkingInterpretation.IsRelationOutput {
		if collapsed, err := out.Collapse(axisName); err == nil {
			out = collapsed
		}
	}
	o.record("OR", "accumulated loop output")
	if err := owi(env, inf, out, o); err != nil {
		return nil, err
	}
	return o, nil
}

func wrapSingleton(cell reference.Cell) (*reference.Reference, error) {
	ref, err := reference.New(reference.Axis{Name: "value", Size: 1})
	if err != nil {
		return nil, err
	}
	if err := ref.Set(reference.Coord{"value": 0}, cell); err != nil {
		return nil, err
	}
	return ref, nil
}

// carryInLoopConcepts binds each in-loop concept's just-finished value as
// the i-1 seed the next iteration's body reads from: for every (carried,
// seed) pair in syntax.InLoopConcept, carried's current reference (as left
// complete by the iteration that just ran) is copied onto seed, so the body
// inference that takes seed as an input sees the prior iteration's output
// instead of the loop's initial binding.
func carryInLoopConcepts(env *Env, infID string, syntax concept.Syntax) error {
	for carried, seed := range syntax.InLoopConcept {
		ref, err := env.Blackboard.GetReference(carried)
		if err != nil {
			return fmt.Errorf("carrying loop concept %q into %q: %w", carried, seed, err)
		}
		if _, err := env.Blackboard.SetReference(seed, infID, ref); err != nil {
			return fmt.Errorf("carrying loop concept %q into %q: %w", carried, seed, err)
		}
	}
	return nil
}

// reopenBody re-enables every inference and concept whose flow-index falls
// strictly inside prefix for the next iteration, excluding invariants and
// every concept named by syntax.InLoopConcept (as either the carried value
// or its seed) so the carry carryInLoopConcepts just wrote isn't wiped back
// to pending before the body reads it.
func reopenBody(env *Env, prefix string, syntax concept.Syntax) {
	carried := make(map[string]bool, len(syntax.InLoopConcept)*2)
	for cid, seed := range syntax.InLoopConcept {
		carried[cid] = true
		carried[seed] = true
	}
	for _, inf := range env.Inferences.FlowIndexOrder() {
		if inf.FlowInfo.FlowIndex == prefix || !concept.HasPrefix(inf.FlowInfo.FlowIndex, prefix) {
			continue
		}
		if env.Blackboard.InferenceStatus(inf.ID) == blackboard.InferenceComplete {
			env.Blackboard.ReopenInferenceForIteration(inf.ID)
		}
		if c, ok := env.Concepts.Get(inf.ConceptToInfer); ok && !c.IsInvariant && !carried[inf.ConceptToInfer] {
			env.Blackboard.MarkConceptPending(inf.ConceptToInfer)
		}
	}
}
