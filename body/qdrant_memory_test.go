package body

import "testing"

func TestIDVectorDeterministic(t *testing.T) {
	a := idVector("param-1")
	b := idVector("param-1")
	if len(a) != qdrantMemoryVectorSize {
		t.Fatalf("expected %d dims, got %d", qdrantMemoryVectorSize, len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("idVector not deterministic at dim %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestIDVectorDiffersByID(t *testing.T) {
	a := idVector("param-1")
	b := idVector("param-2")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different ids to produce different vectors")
	}
}
