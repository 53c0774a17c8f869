package server

import (
	"sync"

	"github.com/plandrive/engine/orchestrator"
)

// hub fans out one run's execution-log events to every WebSocket client
// currently subscribed to it.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan orchestrator.Event]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan orchestrator.Event]struct{})}
}

// subscribe registers a new bounded channel for runID and returns it; the
// caller must unsubscribe when it stops reading.
func (h *hub) subscribe(runID string) chan orchestrator.Event {
	ch := make(chan orchestrator.Event, 64)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[runID] == nil {
		h.subs[runID] = make(map[chan orchestrator.Event]struct{})
	}
	h.subs[runID][ch] = struct{}{}
	return ch
}

func (h *hub) unsubscribe(runID string, ch chan orchestrator.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[runID], ch)
	close(ch)
}

// broadcast delivers ev to every current subscriber of runID, dropping it
// for any subscriber whose channel is full rather than blocking the run.
func (h *hub) broadcast(runID string, ev orchestrator.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[runID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// sinkFor returns an orchestrator.EventSink that broadcasts to runID's hub
// subscribers.
func (h *hub) sinkFor(runID string) orchestrator.EventSink {
	return hubSink{hub: h, runID: runID}
}

type hubSink struct {
	hub   *hub
	runID string
}

func (s hubSink) Emit(ev orchestrator.Event) { s.hub.broadcast(s.runID, ev) }

// fanoutSink dispatches one event to every wrapped sink, used to combine
// the Run Host's SQLite event log with the WS hub.
type fanoutSink struct {
	sinks []orchestrator.EventSink
}

func (f fanoutSink) Emit(ev orchestrator.Event) {
	for _, s := range f.sinks {
		if s != nil {
			s.Emit(ev)
		}
	}
}
