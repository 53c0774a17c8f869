package blackboard

import (
	"github.com/plandrive/engine/concept"
)

// ReadyInferences returns every inference from repo that is currently
// dispatchable, in flow-index order (the waitlist scan order). The default
// rule requires every concept in EffectiveInputSet to be complete and the
// inference itself pending; the five start-flag modifiers relax this for
// their first (or every) firing.
func (b *Blackboard) ReadyInferences(repo *concept.InferenceRepo) []*concept.Inference {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var ready []*concept.Inference
	for _, inf := range repo.FlowIndexOrder() {
		if b.inferenceStatus[inf.ID] != InferencePending {
			continue
		}
		if b.inputsReadyLocked(inf) {
			ready = append(ready, inf)
		}
	}
	return ready
}

func (b *Blackboard) inputsReadyLocked(inf *concept.Inference) bool {
	if inf.StartWithSupportReferenceOnly {
		return len(b.support[inf.ID]) > 0
	}

	checkValue := true
	checkFunction := true

	if inf.StartWithoutValue || inf.StartWithoutValueOnlyOnce {
		if inf.StartWithoutValueOnlyOnce {
			checkValue = b.startFlagConsumed[inf.ID]
		} else {
			checkValue = false
		}
	}
	if inf.StartWithoutFunction || inf.StartWithoutFunctionOnlyOnce {
		if inf.StartWithoutFunctionOnlyOnce {
			checkFunction = b.startFlagConsumed[inf.ID]
		} else {
			checkFunction = false
		}
	}

	if checkValue {
		for _, cid := range inf.InputConcepts() {
			if b.conceptStatus[cid] != ConceptComplete {
				return false
			}
		}
	}
	if checkFunction && inf.FunctionConcept != "" {
		if b.conceptStatus[inf.FunctionConcept] != ConceptComplete {
			return false
		}
	}
	return true
}
