package blackboard

import (
	"encoding/json"
	"fmt"

	"github.com/plandrive/engine/reference"
)

// wireState is the canonical on-disk encoding of a Blackboard (apart from
// iteration history, which it does not hold, a restored Blackboard is
// indistinguishable from the original for every subsequent operation).
type wireState struct {
	ConceptStatus    map[string]ConceptStatus       `json:"concept_status"`
	ConceptReference map[string]*reference.Reference `json:"concept_reference"`
	ConceptVersion   map[string]int                 `json:"concept_version"`
	ConceptWriter    map[string]string              `json:"concept_writer"`
	InferenceStatus  map[string]InferenceStatus     `json:"inference_status"`
	Support          map[string]Support             `json:"support"`
	Cycle            int                            `json:"cycle"`
	NextVersion      int                            `json:"next_version"`
	StartFlags       map[string]bool                `json:"start_flags_consumed"`
}

// Snapshot encodes the full Blackboard state as canonical JSON. Iteration
// history is excluded: it is advisory (used by judgement sequences that
// inspect prior iterations), and nothing rebuilds it on recovery, so a
// restored Blackboard keeps only the history it held before Restore.
func (b *Blackboard) Snapshot() ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	w := wireState{
		ConceptStatus:    b.conceptStatus,
		ConceptReference: b.conceptReference,
		ConceptVersion:   b.conceptVersion,
		ConceptWriter:    b.conceptWriter,
		InferenceStatus:  b.inferenceStatus,
		Support:          b.support,
		Cycle:            b.cycle,
		NextVersion:      b.nextVersion,
		StartFlags:       b.startFlagConsumed,
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("blackboard: snapshot: %w", err)
	}
	return data, nil
}

// Restore replaces the Blackboard's state with a previously captured
// Snapshot. It is intended to be called once, immediately after New, before
// any run activity.
func (b *Blackboard) Restore(data []byte) error {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("blackboard: restore: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conceptStatus = w.ConceptStatus
	b.conceptReference = w.ConceptReference
	b.conceptVersion = w.ConceptVersion
	b.conceptWriter = w.ConceptWriter
	b.inferenceStatus = w.InferenceStatus
	b.support = w.Support
	b.cycle = w.Cycle
	b.nextVersion = w.NextVersion
	b.startFlagConsumed = w.StartFlags
	if b.iterationHistory == nil {
		b.iterationHistory = make(map[iterKey][]*reference.Reference)
	}
	return nil
}
