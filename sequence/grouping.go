package sequence

import (
	"context"
	"fmt"

	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

// groupingHandler implements IWI-IR-GR-OR-OWI.
type groupingHandler struct{}

func (groupingHandler) Run(_ context.Context, env *Env, inf *concept.Inference) (*Outcome, error) {
	o := &Outcome{}
	refs, err := iwi(env, inf, o)
	if err != nil {
		return nil, err
	}

	c, err := env.Concepts.MustGet(inf.ConceptToInfer)
	if err != nil {
		return nil, err
	}
	axisName := "value"
	if len(c.ReferenceAxisNames) > 0 {
		axisName = c.ReferenceAxisNames[0]
	}

	marker := inf.WorkingInterpretation.Syntax.Marker
	var out *reference.Reference
	switch marker {
	case "across":
		inputs := inf.InputConcepts()
		if len(inputs) != 1 {
			return nil, &ShapeError{ConceptID: inf.ConceptToInfer, Detail: "across grouping requires one input"}
		}
		out, err = groupAcross(refs[inputs[0]], axisName, inf.WorkingInterpretation.Syntax.ByAxisConcepts)
	case "in", "":
		out, err = groupIn(env, c, refs, inf.InputConcepts(), axisName)
	default:
		return nil, &ShapeError{ConceptID: inf.ConceptToInfer, Detail: fmt.Sprintf("unknown grouping marker %q", marker)}
	}
	if err != nil {
		return nil, fmt.Errorf("GR: %w", err)
	}
	o.record("GR", fmt.Sprintf("grouped via marker %q", marker))
	o.record("OR", "finalized group reference")
	if err := owi(env, inf, out, o); err != nil {
		return nil, err
	}
	return o, nil
}

// groupAcross reinterprets source's existing axis as a relation, relabeling
// it to by_axis_concepts when set (falling back to axisName); cell values
// are unchanged, only the axis name cells are keyed under changes.
func groupAcross(source *reference.Reference, axisName string, byAxisConcepts string) (*reference.Reference, error) {
	if source == nil {
		return nil, fmt.Errorf("across: nil source reference")
	}
	axes := source.Axes()
	if len(axes) == 0 {
		return source, nil
	}
	target := axisName
	if byAxisConcepts != "" {
		target = byAxisConcepts
	}
	if axes[0].Name == target {
		return source, nil
	}
	return relabelAxis(source, axes[0].Name, target)
}

// relabelAxis copies source into a reference identical in shape and cell
// values but with from renamed to to; Reference has no in-place rename
// because axis names are part of its coordinate keys.
func relabelAxis(source *reference.Reference, from, to string) (*reference.Reference, error) {
	axes := source.Axes()
	newAxes := make([]reference.Axis, len(axes))
	copy(newAxes, axes)
	for i, a := range newAxes {
		if a.Name == from {
			newAxes[i].Name = to
		}
	}
	out, err := reference.New(newAxes...)
	if err != nil {
		return nil, err
	}
	total := 1
	sizes := make([]int, len(axes))
	for i, a := range axes {
		sizes[i] = a.Size
		if sizes[i] <= 0 {
			sizes[i] = 1
		}
		total *= sizes[i]
	}
	coord := make(reference.Coord, len(axes))
	for linear := 0; linear < total; linear++ {
		rem := linear
		for i, a := range axes {
			coord[a.Name] = rem % sizes[i]
			rem /= sizes[i]
		}
		cell, err := source.Get(coord)
		if err != nil {
			return nil, err
		}
		destCoord := make(reference.Coord, len(coord))
		for k, v := range coord {
			if k == from {
				destCoord[to] = v
			} else {
				destCoord[k] = v
			}
		}
		if err := out.Set(destCoord, cell); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// groupIn combines N separately-supplied value concepts into one relation
// whose axis has length N, cells keyed by positional index.
func groupIn(env *Env, c *concept.Concept, refs map[string]*reference.Reference, order []string, axisName string) (*reference.Reference, error) {
	out, err := env.Concepts.NewMutableReference(c)
	if err != nil {
		return nil, err
	}
	if !out.HasAxis(axisName) {
		if err := out.AppendAxis(axisName, 0); err != nil {
			return nil, err
		}
	}
	for _, cid := range order {
		if _, err := out.AppendCell(axisName, nil, reference.Nested(refs[cid])); err != nil {
			return nil, err
		}
	}
	return out, nil
}
