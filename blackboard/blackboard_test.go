package blackboard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

func testRepos(t *testing.T) (*concept.ConceptRepo, *concept.InferenceRepo) {
	t.Helper()
	concepts, err := concept.NewConceptRepo([]concept.Concept{
		{ID: "x", ConceptName: "x", IsGroundConcept: true, IsInvariant: true, ReferenceData: "seed", ReferenceAxisNames: []string{"value"}},
		{ID: "y", ConceptName: "y", ReferenceAxisNames: []string{"value"}},
		{ID: "fn", ConceptName: "fn", IsGroundConcept: true, IsInvariant: true},
	})
	require.NoError(t, err)
	infs, err := concept.NewInferenceRepo([]concept.Inference{
		{ID: "i1", InferenceSequence: concept.SequenceSimple, ConceptToInfer: "y", FunctionConcept: "fn", ValueConcepts: []string{"x"}, FlowInfo: concept.FlowInfo{FlowIndex: "1"}},
	}, concepts)
	require.NoError(t, err)
	return concepts, infs
}

func TestNewSeedsGroundConceptsComplete(t *testing.T) {
	concepts, infs := testRepos(t)
	b, err := New(concepts, infs, []string{"x", "y", "fn"})
	require.NoError(t, err)
	require.Equal(t, ConceptComplete, b.ConceptStatus("x"))
	require.Equal(t, ConceptPending, b.ConceptStatus("y"))
	require.Equal(t, InferencePending, b.InferenceStatus("i1"))

	ref, err := b.GetReference("x")
	require.NoError(t, err)
	v, err := ref.Get(reference.Coord{"value": 0})
	require.NoError(t, err)
	require.Equal(t, "seed", v.Literal)
}

func TestGetReferenceBeforeCompleteFails(t *testing.T) {
	concepts, infs := testRepos(t)
	b, err := New(concepts, infs, []string{"x", "y", "fn"})
	require.NoError(t, err)
	_, err = b.GetReference("y")
	require.Error(t, err)
	var nc *NotCompleteError
	require.ErrorAs(t, err, &nc)
	require.Equal(t, ConceptPending, nc.Status)
}

func TestMarkInferenceEnforcesLegalTransitions(t *testing.T) {
	concepts, infs := testRepos(t)
	b, err := New(concepts, infs, []string{"x", "y", "fn"})
	require.NoError(t, err)

	require.NoError(t, b.MarkInference("i1", InferenceInProgress))
	require.NoError(t, b.MarkInference("i1", InferenceComplete))

	err = b.MarkInference("i1", InferenceInProgress)
	require.Error(t, err)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	require.Equal(t, InferenceComplete, te.From)
}

func TestMarkInferenceFailedThenRetryIsLegal(t *testing.T) {
	concepts, infs := testRepos(t)
	b, err := New(concepts, infs, []string{"x", "y", "fn"})
	require.NoError(t, err)

	require.NoError(t, b.MarkInference("i1", InferenceInProgress))
	require.NoError(t, b.MarkInference("i1", InferenceFailed))
	require.NoError(t, b.MarkInference("i1", InferencePending))
}

func TestSetReferenceVersionsMonotonically(t *testing.T) {
	concepts, infs := testRepos(t)
	b, err := New(concepts, infs, []string{"x", "y", "fn"})
	require.NoError(t, err)

	ref, err := concepts.MustGet("y")
	require.NoError(t, err)
	mutable, err := concepts.NewMutableReference(ref)
	require.NoError(t, err)

	v1, err := b.SetReference("y", "i1", mutable)
	require.NoError(t, err)
	v2, err := b.SetReference("y", "i1", mutable)
	require.NoError(t, err)
	require.Greater(t, v2, v1)
	require.Equal(t, v2, b.ConceptVersion("y"))
	require.Equal(t, ConceptComplete, b.ConceptStatus("y"))
}

func TestRecordSupportAndIterationHistory(t *testing.T) {
	concepts, infs := testRepos(t)
	b, err := New(concepts, infs, []string{"x", "y", "fn"})
	require.NoError(t, err)

	require.False(t, b.HasSupport("i1"))
	b.RecordSupport("i1", "x")
	require.True(t, b.HasSupport("i1"))

	ref, _ := b.GetReference("x")
	b.PushIterationHistory("1", "y", ref)
	b.PushIterationHistory("1", "y", ref)
	require.Len(t, b.IterationHistory("1", "y"), 2)
}

func TestConsumeStartFlagOnce(t *testing.T) {
	concepts, infs := testRepos(t)
	b, err := New(concepts, infs, []string{"x", "y", "fn"})
	require.NoError(t, err)

	require.False(t, b.ConsumeStartFlagOnce("i1"))
	require.True(t, b.ConsumeStartFlagOnce("i1"))
}
