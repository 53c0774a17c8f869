package sequence

import (
	"reflect"
	"testing"

	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

func TestOrderedInputNamesDefaultsToDeclarationOrder(t *testing.T) {
	inf := &concept.Inference{
		ValueConcepts: []string{"a", "b", "c"},
	}
	got := orderedInputNames(inf)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestOrderedInputNamesHonorsValueOrder(t *testing.T) {
	inf := &concept.Inference{
		ValueConcepts: []string{"a", "b", "c"},
		WorkingInterpretation: concept.WorkingInterpretation{
			ValueOrder: map[string]int{"a": 2, "b": 0, "c": 1},
		},
	}
	got := orderedInputNames(inf)
	want := []string{"b", "c", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCellValueExtractsByKind(t *testing.T) {
	if v := cellValue(reference.Lit(42)); v != 42 {
		t.Fatalf("expected literal 42, got %v", v)
	}

	ref := &reference.Reference{}
	if v := cellValue(reference.Nested(ref)); v != ref {
		t.Fatalf("expected nested reference, got %v", v)
	}
}
