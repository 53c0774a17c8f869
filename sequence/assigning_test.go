package sequence

import (
	"context"
	"testing"

	"github.com/plandrive/engine/blackboard"
	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

func selectSourceFixture(t *testing.T) *reference.Reference {
	t.Helper()
	source, err := reference.New(reference.Axis{Name: "items", Size: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := source.Set(reference.Coord{"items": 0}, reference.Cell{Kind: reference.KindLiteral, Literal: reference.ArgDict{"v": reference.Lit("first")}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := source.Set(reference.Coord{"items": 1}, reference.Cell{Kind: reference.KindLiteral, Literal: reference.ArgDict{"v": reference.Lit("second")}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	return source
}

func TestAssignSelectUsesValueSelectorIndexAndKey(t *testing.T) {
	source := selectSourceFixture(t)
	inf := &concept.Inference{
		WorkingInterpretation: concept.WorkingInterpretation{
			ValueSelectors: map[string]concept.ValueSelector{
				"src": {SourceConcept: "src", Index: 1, Key: "v"},
			},
		},
	}
	out, err := assignSelect(inf, source, "src")
	if err != nil {
		t.Fatalf("assignSelect: %v", err)
	}
	cell, err := out.Get(reference.Coord{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cell.Literal != "second" {
		t.Fatalf("expected selector to pick index 1's %q key, got %v", "v", cell.Literal)
	}
}

func TestAssignSelectFallsBackWithoutSelector(t *testing.T) {
	source, err := reference.New(reference.Axis{Name: "items", Size: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := source.Set(reference.Coord{"items": 0}, reference.Cell{Kind: reference.KindLiteral, Literal: reference.ArgDict{"": reference.Lit("zeroth")}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := source.Set(reference.Coord{"items": 1}, reference.Cell{Kind: reference.KindLiteral, Literal: reference.ArgDict{"": reference.Lit("oneth")}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	inf := &concept.Inference{}
	out, err := assignSelect(inf, source, "src")
	if err != nil {
		t.Fatalf("assignSelect: %v", err)
	}
	cell, err := out.Get(reference.Coord{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cell.Literal != "zeroth" {
		t.Fatalf("expected default axis0/index0 selection, got %v", cell.Literal)
	}
}

func TestSelectorForScansBySourceConceptWhenKeyedDifferently(t *testing.T) {
	wi := concept.WorkingInterpretation{
		ValueSelectors: map[string]concept.ValueSelector{
			"label": {SourceConcept: "src", Index: 1, Key: "v"},
		},
	}
	sel, ok := selectorFor(wi, "src")
	if !ok {
		t.Fatalf("expected selector to be found by source_concept scan")
	}
	if sel.Index != 1 || sel.Key != "v" {
		t.Fatalf("unexpected selector: %+v", sel)
	}
}

func TestAssigningHandlerSelectMarkerThreadsSelector(t *testing.T) {
	concepts, err := concept.NewConceptRepo([]concept.Concept{
		{ID: "src", ConceptName: "src", ReferenceAxisNames: []string{"items"}},
		{ID: "picked", ConceptName: "picked", ReferenceAxisNames: []string{"value"}},
	})
	if err != nil {
		t.Fatalf("NewConceptRepo: %v", err)
	}
	infs, err := concept.NewInferenceRepo([]concept.Inference{
		{
			ID:                "a1",
			InferenceSequence: concept.SequenceAssigning,
			ConceptToInfer:    "picked",
			ValueConcepts:     []string{"src"},
			WorkingInterpretation: concept.WorkingInterpretation{
				Syntax: concept.Syntax{Marker: "-", AssignSource: "src"},
				ValueSelectors: map[string]concept.ValueSelector{
					"src": {SourceConcept: "src", Index: 1, Key: "v"},
				},
			},
			FlowInfo: concept.FlowInfo{FlowIndex: "1"},
		},
	}, concepts)
	if err != nil {
		t.Fatalf("NewInferenceRepo: %v", err)
	}
	board, err := blackboard.New(concepts, infs, []string{"src", "picked"})
	if err != nil {
		t.Fatalf("blackboard.New: %v", err)
	}
	if _, err := board.SetReference("src", "seed", selectSourceFixture(t)); err != nil {
		t.Fatalf("SetReference: %v", err)
	}
	env := &Env{Blackboard: board, Concepts: concepts, Inferences: infs}
	inf, _ := infs.Get("a1")

	if _, err := (assigningHandler{}).Run(context.Background(), env, inf); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out, err := board.GetReference("picked")
	if err != nil {
		t.Fatalf("GetReference: %v", err)
	}
	cell, err := out.Get(reference.Coord{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cell.Literal != "second" {
		t.Fatalf("expected selector-driven pick of %q, got %v", "second", cell.Literal)
	}
}
