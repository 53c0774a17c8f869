package body

import (
	"context"
	"fmt"

	"github.com/plandrive/engine/llms"
	"github.com/plandrive/engine/reference"
)

// llmProviderAdapter adapts the teacher-style llms.LLMProvider (synchronous,
// no context) onto the Body's context-aware LLM capability.
type llmProviderAdapter struct {
	provider llms.LLMProvider
}

// WrapLLMProvider adapts provider into an LLM capability.
func WrapLLMProvider(provider llms.LLMProvider) LLM {
	return &llmProviderAdapter{provider: provider}
}

func (a *llmProviderAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	text, _, err := a.provider.Generate(prompt)
	return text, err
}

// generateCallable is the MFP output for the llm.generate affordance: its
// single argument is the already-perceived instruction prompt.
type generateCallable struct {
	name string
	llm  LLM
}

// NewGenerateCallable builds the llm.generate callable for a function
// concept resolved to that affordance.
func NewGenerateCallable(name string, llm LLM) reference.Callable {
	return &generateCallable{name: name, llm: llm}
}

func (g *generateCallable) Name() string { return g.name }

func (g *generateCallable) Call(args map[string]any) (reference.Result, error) {
	if g.llm == nil {
		return reference.Result{}, &UnavailableCapabilityError{Capability: "llm.generate"}
	}
	prompt, _ := args["prompt"].(string)
	text, err := g.llm.Generate(context.Background(), prompt)
	if err != nil {
		return reference.Result{}, fmt.Errorf("llm.generate: %w", err)
	}
	return reference.Scalar(text), nil
}

// scriptCallable is the MFP output for python_interpreter.
type scriptCallable struct {
	name   string
	script string
	python PythonInterpreter
}

// NewScriptCallable builds a python_interpreter callable bound to script.
func NewScriptCallable(name, script string, python PythonInterpreter) reference.Callable {
	return &scriptCallable{name: name, script: script, python: python}
}

func (s *scriptCallable) Name() string { return s.name }

func (s *scriptCallable) Call(args map[string]any) (reference.Result, error) {
	if s.python == nil {
		return reference.Result{}, &UnavailableCapabilityError{Capability: "python_interpreter"}
	}
	out, err := s.python.Run(context.Background(), s.script, args)
	if err != nil {
		return reference.Result{}, fmt.Errorf("python_interpreter: %w", err)
	}
	return reference.Scalar(out), nil
}

// compositionCallable chains a linear pipeline of bound affordance calls
// (a sequence_spec), threading each step's single result into the next
// under result_key, and returning the plan's declared return_key.
type compositionCallable struct {
	name      string
	steps     []CompositionStep
	returnKey string
}

// CompositionStep is one bound affordance call in a paradigm's
// sequence_spec.
type CompositionStep struct {
	ResultKey string
	Affordance reference.Callable
	Params     map[string]string // param name -> prior result_key, or literal via LiteralParams
	LiteralParams map[string]any
}

// NewCompositionCallable builds the instruction_fn produced by
// composition_tool.compose.
func NewCompositionCallable(name string, steps []CompositionStep, returnKey string) reference.Callable {
	return &compositionCallable{name: name, steps: steps, returnKey: returnKey}
}

func (c *compositionCallable) Name() string { return c.name }

func (c *compositionCallable) Call(args map[string]any) (reference.Result, error) {
	results := make(map[string]any, len(c.steps)+1)
	for k, v := range args {
		results[k] = v
	}
	for _, step := range c.steps {
		callArgs := make(map[string]any, len(step.Params)+len(step.LiteralParams))
		for paramName, sourceKey := range step.Params {
			callArgs[paramName] = results[sourceKey]
		}
		for paramName, v := range step.LiteralParams {
			callArgs[paramName] = v
		}
		res, err := step.Affordance.Call(callArgs)
		if err != nil {
			return reference.Result{}, fmt.Errorf("composition step %q: %w", step.ResultKey, err)
		}
		if res.IsCollection {
			results[step.ResultKey] = res.Values
		} else if len(res.Values) == 1 {
			results[step.ResultKey] = res.Values[0]
		}
	}
	final, ok := results[c.returnKey]
	if !ok {
		return reference.Result{}, fmt.Errorf("composition: return_key %q not produced", c.returnKey)
	}
	if vs, ok := final.([]any); ok {
		return reference.Collection(vs), nil
	}
	return reference.Scalar(final), nil
}
