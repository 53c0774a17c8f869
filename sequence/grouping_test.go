package sequence

import (
	"context"
	"testing"

	"github.com/plandrive/engine/blackboard"
	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

func TestGroupAcrossRelabelsAxisViaByAxisConcepts(t *testing.T) {
	source, err := reference.New(reference.Axis{Name: "items", Size: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := source.Set(reference.Coord{"items": 0}, reference.Lit("a")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := source.Set(reference.Coord{"items": 1}, reference.Lit("b")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := groupAcross(source, "value", "row")
	if err != nil {
		t.Fatalf("groupAcross: %v", err)
	}
	axes := out.Axes()
	if len(axes) != 1 || axes[0].Name != "row" || axes[0].Size != 2 {
		t.Fatalf("unexpected axes: %+v", axes)
	}
	c0, err := out.Get(reference.Coord{"row": 0})
	if err != nil || c0.Literal != "a" {
		t.Fatalf("unexpected cell 0: %v %v", c0, err)
	}
	c1, err := out.Get(reference.Coord{"row": 1})
	if err != nil || c1.Literal != "b" {
		t.Fatalf("unexpected cell 1: %v %v", c1, err)
	}
}

func TestGroupAcrossFallsBackToAxisNameWithoutByAxisConcepts(t *testing.T) {
	source, err := reference.New(reference.Axis{Name: "items", Size: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := source.Set(reference.Coord{"items": 0}, reference.Lit(1)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	out, err := groupAcross(source, "value", "")
	if err != nil {
		t.Fatalf("groupAcross: %v", err)
	}
	axes := out.Axes()
	if len(axes) != 1 || axes[0].Name != "value" {
		t.Fatalf("unexpected axes: %+v", axes)
	}
}

func TestGroupAcrossNoopWhenAxisAlreadyNamed(t *testing.T) {
	source, err := reference.New(reference.Axis{Name: "row", Size: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := groupAcross(source, "value", "row")
	if err != nil {
		t.Fatalf("groupAcross: %v", err)
	}
	if out != source {
		t.Fatalf("expected identity when axis already named target")
	}
}

func TestGroupingHandlerInCombinesInputsInOrder(t *testing.T) {
	concepts, err := concept.NewConceptRepo([]concept.Concept{
		{ID: "a", ConceptName: "a", IsGroundConcept: true, IsInvariant: true, ReferenceData: "x", ReferenceAxisNames: []string{"value"}},
		{ID: "b", ConceptName: "b", IsGroundConcept: true, IsInvariant: true, ReferenceData: "y", ReferenceAxisNames: []string{"value"}},
		{ID: "grouped", ConceptName: "grouped", ReferenceAxisNames: []string{"value"}},
	})
	if err != nil {
		t.Fatalf("NewConceptRepo: %v", err)
	}
	infs, err := concept.NewInferenceRepo([]concept.Inference{
		{
			ID:                "g1",
			InferenceSequence: concept.SequenceGrouping,
			ConceptToInfer:    "grouped",
			ValueConcepts:     []string{"a", "b"},
			FlowInfo:          concept.FlowInfo{FlowIndex: "1"},
		},
	}, concepts)
	if err != nil {
		t.Fatalf("NewInferenceRepo: %v", err)
	}
	board, err := blackboard.New(concepts, infs, []string{"a", "b", "grouped"})
	if err != nil {
		t.Fatalf("blackboard.New: %v", err)
	}
	env := &Env{Blackboard: board, Concepts: concepts, Inferences: infs}
	inf, _ := infs.Get("g1")

	_, err = (groupingHandler{}).Run(context.Background(), env, inf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	out, err := board.GetReference("grouped")
	if err != nil {
		t.Fatalf("GetReference: %v", err)
	}
	size, ok := out.AxisSize("value")
	if !ok || size != 2 {
		t.Fatalf("expected value axis of size 2, got %d ok=%v", size, ok)
	}
}
