package body

import "fmt"

// linearComposer implements Composer by compiling a paradigm's bound
// sequence_spec steps into a compositionCallable: each step's result is
// threaded forward under its result_key, and the final callable returns
// whichever result_key the composition_tool.compose step names.
type linearComposer struct{}

// NewLinearComposer returns the default composition_tool implementation.
func NewLinearComposer() Composer { return &linearComposer{} }

func (linearComposer) Compose(steps []CompositionStep, returnKey string) (Callable, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("composition_tool.compose: empty plan")
	}
	return NewCompositionCallable("composed", steps, returnKey), nil
}
