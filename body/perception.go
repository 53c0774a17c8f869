package body

import (
	"context"
	"fmt"
	"regexp"

	"github.com/plandrive/engine/reference"
)

// Norm names a perceptual sign's decoding strategy.
type Norm string

const (
	NormFileLocation        Norm = "file_location"
	NormPromptLocation      Norm = "prompt_location"
	NormScriptLocation      Norm = "script_location"
	NormSavePath            Norm = "save_path"
	NormMemorizedParameter  Norm = "memorized_parameter"
	NormTruthValue          Norm = "truth_value"
	NormLiteral             Norm = "literal"
)

// signPattern matches the surface form %{norm}id(payload) or, when norm is
// omitted, the literal-norm shorthand %id(payload).
var signPattern = regexp.MustCompile(`^%(?:\{([a-zA-Z_<>]+)\})?([A-Za-z0-9_]*)\((.*)\)$`)

// Sign is a decoded perceptual sign.
type Sign struct {
	Norm    Norm
	ID      string
	Payload string
}

// ParseSign decodes the surface form of a perceptual sign. ok is false when
// s does not match the sign grammar at all (ordinary literal text).
func ParseSign(s string) (sign Sign, ok bool) {
	m := signPattern.FindStringSubmatch(s)
	if m == nil {
		return Sign{}, false
	}
	norm := m[1]
	if norm == "" {
		norm = string(NormLiteral)
	}
	return Sign{Norm: Norm(norm), ID: m[2], Payload: m[3]}, true
}

// PerceptionRouter is the bijection between perceptual signs and in-memory
// content: decode turns a sign into literal content, using whichever Body
// capability the sign's norm names. It never produces a Callable cell.
type PerceptionRouter struct {
	body *Body
}

// NewPerceptionRouter builds a router bound to body's capabilities.
func NewPerceptionRouter(body *Body) *PerceptionRouter {
	return &PerceptionRouter{body: body}
}

// Perceive decodes cell in place: literal cells whose content is a
// perceptual sign are resolved via the matching capability; everything
// else (including already-literal non-sign values and Callable/Reference
// cells) passes through unchanged.
func (p *PerceptionRouter) Perceive(ctx context.Context, cell reference.Cell) (reference.Cell, error) {
	if cell.Kind != reference.KindLiteral {
		return cell, nil
	}
	s, ok := cell.Literal.(string)
	if !ok {
		return cell, nil
	}
	sign, ok := ParseSign(s)
	if !ok {
		return cell, nil
	}
	switch sign.Norm {
	case NormFileLocation:
		if p.body.Files == nil {
			return cell, &UnavailableCapabilityError{Capability: "file_system"}
		}
		content, err := p.body.Files.Read(ctx, sign.Payload)
		if err != nil {
			return cell, err
		}
		return reference.Lit(content), nil
	case NormPromptLocation:
		if p.body.Prompts == nil {
			return cell, &UnavailableCapabilityError{Capability: "prompt_tool"}
		}
		tmpl, err := p.body.Prompts.Read(ctx, sign.Payload)
		if err != nil {
			return cell, err
		}
		return reference.Lit(tmpl), nil
	case NormScriptLocation:
		if p.body.Files == nil {
			return cell, &UnavailableCapabilityError{Capability: "python_interpreter"}
		}
		src, err := p.body.Files.Read(ctx, sign.Payload)
		if err != nil {
			return cell, err
		}
		return reference.Lit(src), nil
	case NormMemorizedParameter:
		if p.body.Memory != nil {
			if value, found, err := p.body.Memory.Recall(ctx, sign.ID); err == nil && found {
				return reference.Lit(value), nil
			}
		}
		return reference.Lit(sign.Payload), nil
	case NormTruthValue:
		return reference.Lit(sign.Payload == "true"), nil
	case NormLiteral, NormSavePath:
		return reference.Lit(sign.Payload), nil
	default:
		if len(sign.Norm) > 8 && sign.Norm[:8] == "literal<" {
			return reference.Lit(sign.Payload), nil
		}
		return cell, fmt.Errorf("perception: unrecognized norm %q", sign.Norm)
	}
}

// PerceiveArgDict applies Perceive to every literal cell of an arg-dict
// Reference pointwise (the MVP step).
func (p *PerceptionRouter) PerceiveArgDict(ctx context.Context, dict reference.ArgDict) (reference.ArgDict, error) {
	out := make(reference.ArgDict, len(dict))
	for k, cell := range dict {
		perceived, err := p.Perceive(ctx, cell)
		if err != nil {
			return nil, fmt.Errorf("perceiving %q: %w", k, err)
		}
		out[k] = perceived
	}
	return out, nil
}
