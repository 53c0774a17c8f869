package concept

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseConcepts() []Concept {
	return []Concept{
		{ID: "x", ConceptName: "x", Type: TypeObject, IsGroundConcept: true, IsInvariant: true},
		{ID: "y", ConceptName: "y", Type: TypeObject},
		{ID: "fn", ConceptName: "fn", Type: TypeImperative, IsGroundConcept: true, IsInvariant: true},
	}
}

func TestConceptRepoUnknownConcept(t *testing.T) {
	_, err := NewConceptRepo([]Concept{{ID: "", ConceptName: ""}})
	require.NoError(t, err) // empty id concept is legal, just unusual

	repo, err := NewConceptRepo(baseConcepts())
	require.NoError(t, err)
	_, ok := repo.Get("missing")
	require.False(t, ok)
}

func TestInferenceRepoUnknownConceptFails(t *testing.T) {
	concepts, err := NewConceptRepo(baseConcepts())
	require.NoError(t, err)

	_, err = NewInferenceRepo([]Inference{
		{ID: "i1", InferenceSequence: SequenceSimple, ConceptToInfer: "y", FunctionConcept: "fn", ValueConcepts: []string{"nope"}, FlowInfo: FlowInfo{FlowIndex: "1"}},
	}, concepts)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, ConceptMissing, loadErr.Kind)
}

func TestInferenceRepoUnknownSequenceFails(t *testing.T) {
	concepts, err := NewConceptRepo(baseConcepts())
	require.NoError(t, err)
	_, err = NewInferenceRepo([]Inference{
		{ID: "i1", InferenceSequence: "bogus", ConceptToInfer: "y", FunctionConcept: "fn", ValueConcepts: []string{"x"}, FlowInfo: FlowInfo{FlowIndex: "1"}},
	}, concepts)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, UnknownSequence, loadErr.Kind)
}

func TestInferenceRepoStaticCycleFails(t *testing.T) {
	concepts, err := NewConceptRepo([]Concept{
		{ID: "x", ConceptName: "x"},
		{ID: "y", ConceptName: "y"},
		{ID: "fn", ConceptName: "fn", IsGroundConcept: true, IsInvariant: true},
	})
	require.NoError(t, err)
	_, err = NewInferenceRepo([]Inference{
		{ID: "i1", InferenceSequence: SequenceSimple, ConceptToInfer: "x", FunctionConcept: "fn", ValueConcepts: []string{"y"}, FlowInfo: FlowInfo{FlowIndex: "1"}},
		{ID: "i2", InferenceSequence: SequenceSimple, ConceptToInfer: "y", FunctionConcept: "fn", ValueConcepts: []string{"x"}, FlowInfo: FlowInfo{FlowIndex: "2"}},
	}, concepts)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, StaticCycle, loadErr.Kind)
}

func TestFlowIndexOrder(t *testing.T) {
	concepts, err := NewConceptRepo(baseConcepts())
	require.NoError(t, err)
	infs, err := NewInferenceRepo([]Inference{
		{ID: "b", InferenceSequence: SequenceSimple, ConceptToInfer: "y", FunctionConcept: "fn", ValueConcepts: []string{"x"}, FlowInfo: FlowInfo{FlowIndex: "1.10"}},
		{ID: "a", InferenceSequence: SequenceSimple, ConceptToInfer: "y", FunctionConcept: "fn", ValueConcepts: []string{"x"}, FlowInfo: FlowInfo{FlowIndex: "1.2"}},
	}, concepts)
	require.NoError(t, err)
	order := infs.FlowIndexOrder()
	require.Equal(t, "a", order[0].ID)
	require.Equal(t, "b", order[1].ID)
}
