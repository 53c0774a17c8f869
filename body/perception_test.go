package body

import (
	"context"
	"testing"

	"github.com/plandrive/engine/reference"
)

type fakeMemory struct {
	values map[string]string
}

func (m *fakeMemory) Recall(ctx context.Context, id string) (string, bool, error) {
	v, ok := m.values[id]
	return v, ok, nil
}

func (m *fakeMemory) Remember(ctx context.Context, id, value string) error {
	m.values[id] = value
	return nil
}

func TestPerceiveMemorizedParameterFallsBackWithoutMemory(t *testing.T) {
	b := &Body{}
	b.Perception = NewPerceptionRouter(b)

	out, err := b.Perception.Perceive(context.Background(), reference.Lit("%{memorized_parameter}budget(100)"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Literal != "100" {
		t.Fatalf("expected literal fallback %q, got %v", "100", out.Literal)
	}
}

func TestPerceiveMemorizedParameterRecallsFromStore(t *testing.T) {
	b := &Body{}
	b.Perception = NewPerceptionRouter(b)
	b.WithMemory(&fakeMemory{values: map[string]string{"budget": "250"}})

	out, err := b.Perception.Perceive(context.Background(), reference.Lit("%{memorized_parameter}budget(100)"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Literal != "250" {
		t.Fatalf("expected recalled value %q, got %v", "250", out.Literal)
	}
}

func TestPerceiveMemorizedParameterMissIDFallsBack(t *testing.T) {
	b := &Body{}
	b.Perception = NewPerceptionRouter(b)
	b.WithMemory(&fakeMemory{values: map[string]string{}})

	out, err := b.Perception.Perceive(context.Background(), reference.Lit("%{memorized_parameter}budget(100)"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Literal != "100" {
		t.Fatalf("expected literal fallback on miss, got %v", out.Literal)
	}
}
