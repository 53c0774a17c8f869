package body

import "context"

// MemoryStore backs the memorized_parameter capability: a long-term,
// vector-indexed store a plan can opt into so %{memorized_parameter} signs
// resolve to previously recorded values instead of their literal payload.
type MemoryStore interface {
	Recall(ctx context.Context, id string) (value string, found bool, err error)
	Remember(ctx context.Context, id, value string) error
}

// WithMemory binds a MemoryStore onto an already-constructed Body. It is
// optional: a Body with a nil Memory falls back to treating every
// memorized_parameter sign as its own literal payload.
func (b *Body) WithMemory(store MemoryStore) *Body {
	b.Memory = store
	return b
}
