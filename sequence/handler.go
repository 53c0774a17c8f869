package sequence

import (
	"context"
	"fmt"

	"github.com/plandrive/engine/concept"
)

// Handler runs one inference's fixed step pipeline to completion, writing
// its output concept to the Blackboard on success.
type Handler interface {
	Run(ctx context.Context, env *Env, inf *concept.Inference) (*Outcome, error)
}

// NewHandler resolves the pipeline implementation for an inference sequence
// tag, validated once already at plan-load time by concept.NewInferenceRepo.
func NewHandler(seq concept.Sequence) (Handler, error) {
	switch seq {
	case concept.SequenceSimple:
		return simpleHandler{}, nil
	case concept.SequenceGrouping:
		return groupingHandler{}, nil
	case concept.SequenceLooping:
		return loopingHandler{}, nil
	case concept.SequenceAssigning:
		return assigningHandler{}, nil
	case concept.SequenceTiming:
		return timingHandler{}, nil
	case concept.SequenceImperative:
		return functionalHandler{judgement: false}, nil
	case concept.SequenceJudgement:
		return functionalHandler{judgement: true}, nil
	default:
		return nil, fmt.Errorf("sequence: unknown sequence %q", seq)
	}
}
