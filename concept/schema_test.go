package concept

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeWorkingInterpretationAcceptsRecognizedKeys(t *testing.T) {
	wi, err := DecodeWorkingInterpretation(map[string]any{
		"prompt_location": "%file(prompts/foo.txt)",
		"with_thinking":   true,
		"syntax": map[string]any{
			"marker":           "and",
			"quantifier_index": 2,
		},
	})
	require.NoError(t, err)
	require.Equal(t, "%file(prompts/foo.txt)", wi.PromptLocation)
	require.True(t, wi.WithThinking)
	require.Equal(t, "and", wi.Syntax.Marker)
	require.Equal(t, 2, wi.Syntax.QuantifierIndex)
}

func TestDecodeWorkingInterpretationRejectsUnrecognizedKey(t *testing.T) {
	_, err := DecodeWorkingInterpretation(map[string]any{
		"not_a_real_field": "oops",
	})
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, BadReference, loadErr.Kind)
}

func TestDecodeWorkingInterpretationRejectsWrongType(t *testing.T) {
	_, err := DecodeWorkingInterpretation(map[string]any{
		"with_thinking": "not-a-bool",
	})
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, BadReference, loadErr.Kind)
}

func TestDecodeWorkingInterpretationEmptyIsValid(t *testing.T) {
	wi, err := DecodeWorkingInterpretation(map[string]any{})
	require.NoError(t, err)
	require.Equal(t, WorkingInterpretation{}, wi)
}
