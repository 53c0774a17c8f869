package blackboard

import (
	"sync"

	"github.com/plandrive/engine/concept"
	"github.com/plandrive/engine/reference"
)

// iterKey identifies one (flow_index, concept) slot's iteration history.
type iterKey struct {
	FlowIndex string
	ConceptID string
}

// Support records which (concept id, version) pairs an inference consumed,
// for fork/replay.
type Support map[string]int // concept id -> version consumed

// Blackboard is the per-run mutable store. All exported methods are
// mutex-protected and return promptly; none may be called while holding a
// Body call's blocking wait (suspension never holds the write lock).
type Blackboard struct {
	mu sync.RWMutex

	conceptStatus    map[string]ConceptStatus
	conceptReference map[string]*reference.Reference
	conceptVersion   map[string]int
	conceptWriter    map[string]string

	inferenceStatus map[string]InferenceStatus
	support         map[string]Support

	iterationHistory map[iterKey][]*reference.Reference

	startFlagConsumed map[string]bool // inference id -> the once-only start flag has fired

	cycle       int
	nextVersion int
}

// New seeds a Blackboard from the repositories: ground concepts start
// complete with their declared reference; every other concept and every
// inference starts pending.
func New(concepts *concept.ConceptRepo, inferences *concept.InferenceRepo, allConceptIDs []string) (*Blackboard, error) {
	b := &Blackboard{
		conceptStatus:     make(map[string]ConceptStatus, len(allConceptIDs)),
		conceptReference:  make(map[string]*reference.Reference, len(allConceptIDs)),
		conceptVersion:    make(map[string]int, len(allConceptIDs)),
		conceptWriter:     make(map[string]string),
		inferenceStatus:   make(map[string]InferenceStatus),
		support:           make(map[string]Support),
		iterationHistory:  make(map[iterKey][]*reference.Reference),
		startFlagConsumed: make(map[string]bool),
	}
	for _, cid := range allConceptIDs {
		c, ok := concepts.Get(cid)
		if !ok {
			continue
		}
		if c.IsGroundConcept {
			ref, err := groundReference(c)
			if err != nil {
				return nil, err
			}
			b.conceptStatus[cid] = ConceptComplete
			b.conceptReference[cid] = ref
			b.conceptVersion[cid] = 1
			b.nextVersion++
		} else {
			b.conceptStatus[cid] = ConceptPending
		}
	}
	for _, inf := range inferences.FlowIndexOrder() {
		b.inferenceStatus[inf.ID] = InferencePending
	}
	return b, nil
}

func groundReference(c *concept.Concept) (*reference.Reference, error) {
	axes := make([]reference.Axis, len(c.ReferenceAxisNames))
	for i, name := range c.ReferenceAxisNames {
		axes[i] = reference.Axis{Name: name, Size: 1}
	}
	if len(axes) == 0 {
		axes = []reference.Axis{{Name: "value", Size: 1}}
	}
	r, err := reference.New(axes...)
	if err != nil {
		return nil, err
	}
	coord := reference.Coord{}
	for _, a := range axes {
		coord[a.Name] = 0
	}
	if err := r.Set(coord, reference.Lit(c.ReferenceData)); err != nil {
		return nil, err
	}
	return r, nil
}

// ConceptStatus returns the current status of cid.
func (b *Blackboard) ConceptStatus(cid string) ConceptStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.conceptStatus[cid]
}

// InferenceStatus returns the current status of iid.
func (b *Blackboard) InferenceStatus(iid string) InferenceStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inferenceStatus[iid]
}

// GetReference returns cid's reference. Fails with NotCompleteError if cid
// is not yet ConceptComplete.
func (b *Blackboard) GetReference(cid string) (*reference.Reference, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.conceptStatus[cid] != ConceptComplete {
		return nil, &NotCompleteError{ConceptID: cid, Status: b.conceptStatus[cid]}
	}
	return b.conceptReference[cid], nil
}

// SetReference atomically writes ref for cid, flips its status to
// ConceptComplete, and records the writer inference id and a monotonically
// increasing version.
func (b *Blackboard) SetReference(cid, writerInferenceID string, ref *reference.Reference) (version int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextVersion++
	version = b.nextVersion
	b.conceptReference[cid] = ref
	b.conceptVersion[cid] = version
	b.conceptWriter[cid] = writerInferenceID
	b.conceptStatus[cid] = ConceptComplete
	return version, nil
}

// ConceptVersion returns the current version of cid (0 if never written).
func (b *Blackboard) ConceptVersion(cid string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.conceptVersion[cid]
}

// RecordSupport records that inference iid consumed cid at its current
// version, for fork/replay.
func (b *Blackboard) RecordSupport(iid, cid string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.support[iid] == nil {
		b.support[iid] = Support{}
	}
	b.support[iid][cid] = b.conceptVersion[cid]
}

// HasSupport reports whether iid has ever recorded a support edge (used by
// the start_with_support_reference_only readiness modifier).
func (b *Blackboard) HasSupport(iid string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.support[iid]) > 0
}

// MarkInference transitions iid to status, enforcing the legal state
// machine below.
func (b *Blackboard) MarkInference(iid string, status InferenceStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.inferenceStatus[iid]
	if !legalTransitions[cur][status] {
		return &TransitionError{InferenceID: iid, From: cur, To: status}
	}
	b.inferenceStatus[iid] = status
	return nil
}

// MarkConceptPending resets cid to ConceptPending, used by looping to
// re-enable a body-local concept for the next iteration.
func (b *Blackboard) MarkConceptPending(cid string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conceptStatus[cid] = ConceptPending
}

// ReopenInferenceForIteration performs the one legal complete -> pending
// back-transition for a loop body inference, recorded as a new iteration
// rather than a status rewrite by the caller pushing an iteration-history
// row alongside this call.
func (b *Blackboard) ReopenInferenceForIteration(iid string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inferenceStatus[iid] = InferencePending
}

// ConsumeStartFlagOnce reports whether the *_only_once start flag for iid
// has already fired; the first call returns false and marks it consumed,
// every subsequent call returns true.
func (b *Blackboard) ConsumeStartFlagOnce(iid string) (alreadyUsed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	used := b.startFlagConsumed[iid]
	b.startFlagConsumed[iid] = true
	return used
}

// PushIterationHistory appends ref as the next iteration snapshot for
// (flowIndex, cid).
func (b *Blackboard) PushIterationHistory(flowIndex, cid string, ref *reference.Reference) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := iterKey{FlowIndex: flowIndex, ConceptID: cid}
	b.iterationHistory[key] = append(b.iterationHistory[key], ref)
}

// IterationHistory returns the recorded snapshots for (flowIndex, cid) in
// iteration order.
func (b *Blackboard) IterationHistory(flowIndex, cid string) []*reference.Reference {
	b.mu.RLock()
	defer b.mu.RUnlock()
	key := iterKey{FlowIndex: flowIndex, ConceptID: cid}
	out := make([]*reference.Reference, len(b.iterationHistory[key]))
	copy(out, b.iterationHistory[key])
	return out
}

// Cycle returns the current cycle counter.
func (b *Blackboard) Cycle() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cycle
}

// AdvanceCycle increments and returns the cycle counter.
func (b *Blackboard) AdvanceCycle() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cycle++
	return b.cycle
}
