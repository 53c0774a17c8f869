package body

import (
	"context"
	"strings"

	"github.com/plandrive/engine/reference"
)

// ResolveBaseAffordance resolves one of the three literal affordance call
// codes into a Callable bound against b's capabilities: "llm.generate",
// "tool:<name>" (looked up in the tool registry), and "python:<sign>" (the
// sign is perceived through the file_system to load the script source).
// It backs both a function concept's direct perceptual sign and a
// paradigm's env_spec tool bindings.
func ResolveBaseAffordance(ctx context.Context, b *Body, functionConceptID, tag string) (reference.Callable, error) {
	switch {
	case tag == "llm.generate":
		return NewGenerateCallable(functionConceptID, b.LLM), nil
	case strings.HasPrefix(tag, "tool:"):
		name := strings.TrimPrefix(tag, "tool:")
		if b.Tools == nil {
			return nil, &UnavailableCapabilityError{Capability: "tool:" + name}
		}
		callable, ok := b.Tools.Get(name)
		if !ok {
			return nil, &UnavailableCapabilityError{Capability: "tool:" + name}
		}
		return callable, nil
	case strings.HasPrefix(tag, "python:"):
		sign := strings.TrimPrefix(tag, "python:")
		perceived, err := b.Perception.Perceive(ctx, reference.Lit(sign))
		if err != nil {
			return nil, err
		}
		script, _ := perceived.Literal.(string)
		return NewScriptCallable(functionConceptID, script, b.Python), nil
	default:
		return nil, &UnavailableCapabilityError{Capability: tag}
	}
}
