package sequence

import (
	"context"
	"fmt"

	"github.com/plandrive/engine/body"
	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

// functionalHandler implements IWI-IR-MFP-MVP-TVA-TIP-MIA-OR-OWI, shared by
// the imperative and judgement sequences; judgement additionally wraps the
// callable's boolean result as a %{truth_value}(...) sign (TIP).
type functionalHandler struct {
	judgement bool
}

func (h functionalHandler) Run(ctx context.Context, env *Env, inf *concept.Inference) (*Outcome, error) {
	o := &Outcome{}
	refs, err := iwi(env, inf, o)
	if err != nil {
		return nil, err
	}
	dict, err := ir(inf, refs, o)
	if err != nil {
		return nil, err
	}
	fn, err := mfp(ctx, env, inf, o)
	if err != nil {
		return nil, err
	}
	perceived, err := mvp(ctx, env, dict, o)
	if err != nil {
		return nil, err
	}

	combined, err := combineForCrossAction(inf, perceived)
	if err != nil {
		return nil, fmt.Errorf("IR: %w", err)
	}

	c, err := env.Concepts.MustGet(inf.ConceptToInfer)
	if err != nil {
		return nil, err
	}
	axisName := "value"
	if len(c.ReferenceAxisNames) > 0 {
		axisName = c.ReferenceAxisNames[0]
	}

	out, err := reference.CrossAction(fn, combined, axisName)
	if err != nil {
		return nil, fmt.Errorf("TVA: %w", err)
	}
	o.record("TVA", fmt.Sprintf("cross_action over %q", fn.Name()))

	if h.judgement {
		out, err = tip(out, axisName)
		if err != nil {
			return nil, fmt.Errorf("TIP: %w", err)
		}
		o.record("TIP", "wrapped boolean result as truth_value sign")
	}

	if !inf.WorkingInterpretation.IsRelationOutput {
		if collapsed, err := out.Collapse(axisName); err == nil {
			out = collapsed
		}
	}
	o.record("MIA", fmt.Sprintf("collapse requested=%v", !inf.WorkingInterpretation.IsRelationOutput))
	o.record("OR", "finalized functional output")

	if err := owi(env, inf, out, o); err != nil {
		return nil, err
	}
	return o, nil
}

// combineForCrossAction packs the perceived arg-dict cells into a single
// cell Reference whose one cell is the ArgDict cross_action will invoke the
// callable against once.
func combineForCrossAction(inf *concept.Inference, dict reference.ArgDict) (*reference.Reference, error) {
	ref, err := reference.New(reference.Axis{Name: "call", Size: 1})
	if err != nil {
		return nil, err
	}
	if err := ref.Set(reference.Coord{"call": 0}, reference.Lit(dict)); err != nil {
		return nil, err
	}
	return ref, nil
}

// tip wraps a boolean cross_action result as a %{truth_value}(...) sign.
func tip(out *reference.Reference, axisName string) (*reference.Reference, error) {
	fresh, err := reference.New(out.Axes()...)
	if err != nil {
		return nil, err
	}
	size, _ := out.AxisSize(axisName)
	for i := 0; i < maxInt(size, 1); i++ {
		coord := reference.Coord{axisName: i}
		cell, err := out.Get(coord)
		if err != nil {
			return nil, err
		}
		b, _ := cell.Literal.(bool)
		sign := (&body.JSONFormatter{}).Wrap(string(body.NormTruthValue), "", boolString(b))
		if err := fresh.Set(coord, reference.Lit(sign)); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
