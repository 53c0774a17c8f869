package sequence

import (
	"context"
	"testing"

	"github.com/plandrive/engine/blackboard"
	"github.com/plandrive/engine/body"
	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

func TestSkipSubtreeCompletesGatedConceptsWithNullSentinel(t *testing.T) {
	concepts, err := concept.NewConceptRepo([]concept.Concept{
		{ID: "cond", ConceptName: "cond", IsGroundConcept: true, IsInvariant: true, ReferenceData: "x", ReferenceAxisNames: []string{"value"}},
		{ID: "gated", ConceptName: "gated", ReferenceAxisNames: []string{"value"}},
	})
	if err != nil {
		t.Fatalf("NewConceptRepo: %v", err)
	}
	infs, err := concept.NewInferenceRepo([]concept.Inference{
		{ID: "gate", InferenceSequence: concept.SequenceTiming, ConceptToInfer: "cond", FlowInfo: concept.FlowInfo{FlowIndex: "1"}},
		{ID: "branch1", InferenceSequence: concept.SequenceSimple, ConceptToInfer: "gated", ValueConcepts: []string{"cond"}, FlowInfo: concept.FlowInfo{FlowIndex: "1.1"}},
	}, concepts)
	if err != nil {
		t.Fatalf("NewInferenceRepo: %v", err)
	}
	board, err := blackboard.New(concepts, infs, []string{"cond", "gated"})
	if err != nil {
		t.Fatalf("blackboard.New: %v", err)
	}
	env := &Env{Blackboard: board, Inferences: infs, Concepts: concepts}
	gateInf, _ := infs.Get("gate")

	if err := skipSubtree(env, gateInf); err != nil {
		t.Fatalf("skipSubtree: %v", err)
	}

	if got := board.InferenceStatus("branch1"); got != blackboard.InferenceComplete {
		t.Fatalf("expected branch1 marked complete, got %v", got)
	}
	ref, err := board.GetReference("gated")
	if err != nil {
		t.Fatalf("GetReference: %v", err)
	}
	cell, err := ref.Get(reference.Coord{"value": 0})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cell.Literal != nil {
		t.Fatalf("expected null sentinel literal, got %v", cell.Literal)
	}
}

// TestTimingHandlerIfGateSkipsSubtree drives the `if` marker with a false
// condition and checks the gated-off branch resolves complete-but-empty
// instead of staying pending forever.
func TestTimingHandlerIfGateSkipsSubtree(t *testing.T) {
	concepts, err := concept.NewConceptRepo([]concept.Concept{
		{ID: "cond", ConceptName: "cond", IsGroundConcept: true, IsInvariant: true, ReferenceData: (&body.JSONFormatter{}).Wrap(string(body.NormTruthValue), "", "false"), ReferenceAxisNames: []string{"value"}},
		{ID: "gate_out", ConceptName: "gate_out", ReferenceAxisNames: []string{"value"}},
		{ID: "gated", ConceptName: "gated", ReferenceAxisNames: []string{"value"}},
	})
	if err != nil {
		t.Fatalf("NewConceptRepo: %v", err)
	}
	infs, err := concept.NewInferenceRepo([]concept.Inference{
		{
			ID:                "gate",
			InferenceSequence: concept.SequenceTiming,
			ConceptToInfer:    "gate_out",
			WorkingInterpretation: concept.WorkingInterpretation{
				Syntax: concept.Syntax{Marker: "if", Condition: "cond"},
			},
			FlowInfo: concept.FlowInfo{FlowIndex: "1"},
		},
		{ID: "branch1", InferenceSequence: concept.SequenceSimple, ConceptToInfer: "gated", ValueConcepts: []string{"cond"}, FlowInfo: concept.FlowInfo{FlowIndex: "1.1"}},
	}, concepts)
	if err != nil {
		t.Fatalf("NewInferenceRepo: %v", err)
	}
	board, err := blackboard.New(concepts, infs, []string{"cond", "gate_out", "gated"})
	if err != nil {
		t.Fatalf("blackboard.New: %v", err)
	}
	env := &Env{Blackboard: board, Inferences: infs, Concepts: concepts}
	gateInf, _ := infs.Get("gate")

	if _, err := (timingHandler{}).Run(context.Background(), env, gateInf); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := board.InferenceStatus("branch1"); got != blackboard.InferenceComplete {
		t.Fatalf("expected gated-off branch1 marked complete, got %v", got)
	}
	ref, err := board.GetReference("gated")
	if err != nil {
		t.Fatalf("GetReference: %v", err)
	}
	cell, err := ref.Get(reference.Coord{"value": 0})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cell.Literal != nil {
		t.Fatalf("expected null sentinel literal for gated concept, got %v", cell.Literal)
	}
}
