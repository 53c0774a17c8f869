package server

import (
	"testing"
	"time"

	"github.com/plandrive/engine/orchestrator"
)

func TestHubBroadcastDeliversToSubscriber(t *testing.T) {
	h := newHub()
	ch := h.subscribe("run-1")
	defer h.unsubscribe("run-1", ch)

	h.broadcast("run-1", orchestrator.Event{InferenceID: "inf-1"})

	select {
	case ev := <-ch:
		if ev.InferenceID != "inf-1" {
			t.Fatalf("expected inf-1, got %q", ev.InferenceID)
		}
	case <-time.After(time.Second):
		t.Fatal("expected event to be delivered")
	}
}

func TestHubBroadcastIgnoresOtherRuns(t *testing.T) {
	h := newHub()
	ch := h.subscribe("run-1")
	defer h.unsubscribe("run-1", ch)

	h.broadcast("run-2", orchestrator.Event{InferenceID: "inf-2"})

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastDropsOnFullChannel(t *testing.T) {
	h := newHub()
	ch := h.subscribe("run-1")
	defer h.unsubscribe("run-1", ch)

	for i := 0; i < 100; i++ {
		h.broadcast("run-1", orchestrator.Event{Cycle: i})
	}
	// Should not block or panic: excess events are dropped.
}

func TestFanoutSinkDispatchesToAllSinks(t *testing.T) {
	var aCount, bCount int
	a := sinkFunc(func(orchestrator.Event) { aCount++ })
	b := sinkFunc(func(orchestrator.Event) { bCount++ })

	f := fanoutSink{sinks: []orchestrator.EventSink{a, b, nil}}
	f.Emit(orchestrator.Event{})

	if aCount != 1 || bCount != 1 {
		t.Fatalf("expected both sinks invoked once, got a=%d b=%d", aCount, bCount)
	}
}

type sinkFunc func(orchestrator.Event)

func (f sinkFunc) Emit(ev orchestrator.Event) { f(ev) }
