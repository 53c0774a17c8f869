package sequence

import (
	"context"
	"fmt"

	"github.com/plandrive/engine/blackboard"
	"github.com/plandrive/engine/body"
	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

// timingHandler implements IWI-T-OWI: the `if`/`if!` gate and the
// pure-serializing `after` marker.
type timingHandler struct{}

func (timingHandler) Run(_ context.Context, env *Env, inf *concept.Inference) (*Outcome, error) {
	o := &Outcome{}
	syntax := inf.WorkingInterpretation.Syntax
	marker := syntax.Marker

	if marker == "after" {
		o.record("T", "pure-serialize, no gate")
		ref, err := env.Blackboard.GetReference(syntax.Condition)
		if err != nil {
			return nil, fmt.Errorf("T: %w", err)
		}
		if err := owi(env, inf, ref, o); err != nil {
			return nil, err
		}
		return o, nil
	}

	conditionRef, err := env.Blackboard.GetReference(syntax.Condition)
	if err != nil {
		return nil, fmt.Errorf("T: %w", err)
	}
	env.Blackboard.RecordSupport(inf.ID, syntax.Condition)

	gate, err := evalTruthValue(conditionRef)
	if err != nil {
		return nil, fmt.Errorf("T: %w", err)
	}
	skip := (marker == "if" && !gate) || (marker == "if!" && gate)
	o.record("T", fmt.Sprintf("gate=%v marker=%q skip=%v", gate, marker, skip))

	if skip {
		if err := skipSubtree(env, inf); err != nil {
			return nil, err
		}
		o.record("OWI", "skipped subtree, no reference written")
		return o, nil
	}
	if err := owi(env, inf, conditionRef, o); err != nil {
		return nil, err
	}
	return o, nil
}

// evalTruthValue reads the condition reference's sole cell, expected to
// carry a %{truth_value}(true|false) perceptual sign.
func evalTruthValue(ref *reference.Reference) (bool, error) {
	cell, err := soleCell(ref)
	if err != nil {
		return false, err
	}
	s, ok := cell.Literal.(string)
	if !ok {
		if b, ok := cell.Literal.(bool); ok {
			return b, nil
		}
		return false, fmt.Errorf("condition cell is not a truth-value sign or bool")
	}
	sign, ok := body.ParseSign(s)
	if !ok || sign.Norm != body.NormTruthValue {
		return false, fmt.Errorf("condition cell %q is not a truth_value sign", s)
	}
	return sign.Payload == "true", nil
}

// skipSubtree marks every inference strictly inside inf's flow-index prefix
// as complete and writes a null sentinel reference for each one's
// concept_to_infer, so anything outside the gated branch that waits on
// those concepts becomes ready without ever seeing output from the skipped
// branch.
func skipSubtree(env *Env, inf *concept.Inference) error {
	prefix := inf.FlowInfo.FlowIndex
	for _, other := range env.Inferences.FlowIndexOrder() {
		if other.ID == inf.ID {
			continue
		}
		if !concept.HasPrefix(other.FlowInfo.FlowIndex, prefix) {
			continue
		}
		if env.Blackboard.InferenceStatus(other.ID) != blackboard.InferencePending {
			continue
		}
		if _, err := env.Blackboard.SetReference(other.ConceptToInfer, other.ID, nullReference()); err != nil {
			return fmt.Errorf("T: skipping %q: %w", other.ConceptToInfer, err)
		}
		if err := env.Blackboard.MarkInference(other.ID, blackboard.InferenceInProgress); err != nil {
			return fmt.Errorf("T: skipping %q: %w", other.ID, err)
		}
		if err := env.Blackboard.MarkInference(other.ID, blackboard.InferenceComplete); err != nil {
			return fmt.Errorf("T: skipping %q: %w", other.ID, err)
		}
	}
	return nil
}

// nullReference builds the single-cell, nil-literal reference that marks a
// gated-off concept as resolved-but-empty.
func nullReference() *reference.Reference {
	ref, _ := reference.New(reference.Axis{Name: "value", Size: 1})
	_ = ref.Set(reference.Coord{"value": 0}, reference.Lit(nil))
	return ref
}
