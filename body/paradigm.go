package body

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/plandrive/engine/reference"
)

// ParadigmSpec is one provisioned paradigm record under provisions/paradigms/**,
// the declarative env_spec/sequence_spec plan a function concept's
// norm_input selects to build its instruction_fn.
type ParadigmSpec struct {
	Metadata     ParadigmMetadata `json:"metadata"`
	EnvSpec      EnvSpec          `json:"env_spec"`
	SequenceSpec SequenceSpec     `json:"sequence_spec"`
}

// ParadigmMetadata documents the shape a paradigm accepts and returns; it is
// not interpreted at build time beyond naming conventions.
type ParadigmMetadata struct {
	Inputs struct {
		Vertical   string `json:"vertical"`
		Horizontal string `json:"horizontal"`
	} `json:"inputs"`
	Outputs string `json:"outputs"`
}

// EnvSpec declares the tools a paradigm's sequence_spec may call, each
// affordance bound to one of the three base call_code forms (llm.generate,
// tool:<name>, python:<sign>).
type EnvSpec struct {
	Tools []EnvTool `json:"tools"`
}

type EnvTool struct {
	ToolName    string          `json:"tool_name"`
	Affordances []EnvAffordance `json:"affordances"`
}

type EnvAffordance struct {
	AffordanceName string `json:"affordance_name"`
	CallCode       string `json:"call_code"`
}

// SequenceSpec is the ordered pipeline of bound affordance calls a paradigm
// compiles into an instruction_fn. The final step's affordance must be
// composition_tool.compose; its params name the return_key (or output_key)
// that selects which earlier result_key becomes the callable's output.
type SequenceSpec struct {
	Steps []SequenceStep `json:"steps"`
}

type SequenceStep struct {
	StepIndex int    `json:"step_index"`
	Affordance string `json:"affordance"`
	// Params names, per call argument, the result_key (or an incoming
	// instruction_fn arg) whose value to forward. LiteralParams supplies
	// fixed values that bypass that indirection.
	Params        map[string]string `json:"params"`
	LiteralParams map[string]any    `json:"literal_params,omitempty"`
	ResultKey     string            `json:"result_key"`
}

// ParadigmRegistry holds every paradigm spec provisioned under
// provisions/paradigms/**, keyed by the norm_input naming grammar
// ([v_<V>-]h_<H>-c_<Action>-o_<OutType>) a function concept's
// working_interpretation.norm_input names.
type ParadigmRegistry struct {
	specs map[string]ParadigmSpec
}

// NewParadigmRegistry walks provisions' paradigms/ subtree, decoding every
// *.json file into a ParadigmSpec keyed by its basename. A nil provisions
// tree, or one with no paradigms directory, yields an empty registry rather
// than an error.
func NewParadigmRegistry(provisions fs.FS) (*ParadigmRegistry, error) {
	reg := &ParadigmRegistry{specs: map[string]ParadigmSpec{}}
	if provisions == nil {
		return reg, nil
	}
	err := fs.WalkDir(provisions, "paradigms", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		data, err := fs.ReadFile(provisions, p)
		if err != nil {
			return fmt.Errorf("paradigm %q: %w", p, err)
		}
		var spec ParadigmSpec
		if err := json.Unmarshal(data, &spec); err != nil {
			return fmt.Errorf("paradigm %q: %w", p, err)
		}
		name := strings.TrimSuffix(path.Base(p), ".json")
		reg.specs[name] = spec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Get looks up the paradigm spec registered under normInput.
func (r *ParadigmRegistry) Get(normInput string) (ParadigmSpec, bool) {
	if r == nil {
		return ParadigmSpec{}, false
	}
	spec, ok := r.specs[normInput]
	return spec, ok
}

// WithParadigms binds a ParadigmRegistry onto an already-constructed Body.
// With a nil registry, every norm_input-selected function concept fails
// affordance resolution with an UnknownAffordanceError.
func (b *Body) WithParadigms(reg *ParadigmRegistry) *Body {
	b.Paradigms = reg
	return b
}

// BuildParadigmCallable compiles spec's env_spec and sequence_spec into the
// instruction_fn a norm_input-selected function concept resolves to: each
// env_spec affordance is bound to one of the three base call_code forms via
// ResolveBaseAffordance, each non-terminal sequence_spec step is bound into a
// CompositionStep (resolving its affordance against the env_spec bindings
// first, then falling back to a direct base call_code), and the terminal
// composition_tool.compose step supplies the return_key the composed
// callable selects from the prior steps' results.
func BuildParadigmCallable(ctx context.Context, b *Body, name string, spec ParadigmSpec) (reference.Callable, error) {
	if b.Composer == nil {
		return nil, &UnavailableCapabilityError{Capability: "composition_tool"}
	}

	envBindings := make(map[string]reference.Callable)
	for _, t := range spec.EnvSpec.Tools {
		for _, a := range t.Affordances {
			callable, err := ResolveBaseAffordance(ctx, b, name, a.CallCode)
			if err != nil {
				return nil, fmt.Errorf("paradigm %q: env_spec %s.%s: %w", name, t.ToolName, a.AffordanceName, err)
			}
			envBindings[t.ToolName+"."+a.AffordanceName] = callable
			if _, exists := envBindings[a.AffordanceName]; !exists {
				envBindings[a.AffordanceName] = callable
			}
		}
	}

	steps := append([]SequenceStep(nil), spec.SequenceSpec.Steps...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepIndex < steps[j].StepIndex })

	var compositionSteps []CompositionStep
	returnKey := ""
	for _, step := range steps {
		if step.Affordance == "composition_tool.compose" {
			if rk := step.Params["return_key"]; rk != "" {
				returnKey = rk
			} else if ok := step.Params["output_key"]; ok != "" {
				returnKey = ok
			} else if rk, _ := step.LiteralParams["return_key"].(string); rk != "" {
				returnKey = rk
			}
			continue
		}
		affordance, ok := envBindings[step.Affordance]
		if !ok {
			resolved, err := ResolveBaseAffordance(ctx, b, name, step.Affordance)
			if err != nil {
				return nil, fmt.Errorf("paradigm %q: step %q: %w", name, step.ResultKey, err)
			}
			affordance = resolved
		}
		compositionSteps = append(compositionSteps, CompositionStep{
			ResultKey:     step.ResultKey,
			Affordance:    affordance,
			Params:        step.Params,
			LiteralParams: step.LiteralParams,
		})
	}
	if len(compositionSteps) == 0 {
		return nil, fmt.Errorf("paradigm %q: sequence_spec has no bound steps", name)
	}
	if returnKey == "" {
		returnKey = compositionSteps[len(compositionSteps)-1].ResultKey
	}
	return b.Composer.Compose(compositionSteps, returnKey)
}
