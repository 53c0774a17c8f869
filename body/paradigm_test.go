package body

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/plandrive/engine/reference"
)

type fakeLLM struct{ prefix string }

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return f.prefix + prompt, nil
}

func TestNewParadigmRegistryLoadsProvisionedSpecs(t *testing.T) {
	fsys := fstest.MapFS{
		"paradigms/h_summarize-c_draft-o_text.json": &fstest.MapFile{Data: []byte(`{
			"metadata": {"inputs": {"horizontal": "summarize"}, "outputs": "text"},
			"env_spec": {"tools": [{"tool_name": "drafting", "affordances": [{"affordance_name": "draft", "call_code": "llm.generate"}]}]},
			"sequence_spec": {"steps": [
				{"step_index": 0, "affordance": "drafting.draft", "params": {"prompt": "input_1"}, "result_key": "draft"},
				{"step_index": 1, "affordance": "composition_tool.compose", "params": {"return_key": "draft"}, "result_key": "out"}
			]}
		}`)},
	}
	reg, err := NewParadigmRegistry(fsys)
	if err != nil {
		t.Fatal(err)
	}
	spec, ok := reg.Get("h_summarize-c_draft-o_text")
	if !ok {
		t.Fatal("expected paradigm spec to be registered")
	}
	if spec.EnvSpec.Tools[0].Affordances[0].CallCode != "llm.generate" {
		t.Fatalf("unexpected call_code: %+v", spec.EnvSpec.Tools[0])
	}
}

func TestNewParadigmRegistryToleratesMissingDirectory(t *testing.T) {
	reg, err := NewParadigmRegistry(fstest.MapFS{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.Get("anything"); ok {
		t.Fatal("expected empty registry")
	}
}

func TestBuildParadigmCallableComposesStepsThroughComposer(t *testing.T) {
	b := &Body{LLM: &fakeLLM{prefix: "drafted: "}, Composer: NewLinearComposer()}
	b.Perception = NewPerceptionRouter(b)

	spec := ParadigmSpec{
		EnvSpec: EnvSpec{Tools: []EnvTool{{
			ToolName:    "drafting",
			Affordances: []EnvAffordance{{AffordanceName: "draft", CallCode: "llm.generate"}},
		}}},
		SequenceSpec: SequenceSpec{Steps: []SequenceStep{
			{StepIndex: 0, Affordance: "drafting.draft", Params: map[string]string{"prompt": "prompt"}, ResultKey: "draft"},
			{StepIndex: 1, Affordance: "composition_tool.compose", Params: map[string]string{"return_key": "draft"}, ResultKey: "out"},
		}},
	}

	fn, err := BuildParadigmCallable(context.Background(), b, "h_summarize-c_draft-o_text", spec)
	if err != nil {
		t.Fatal(err)
	}
	res, err := fn.Call(map[string]any{"prompt": "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Values) != 1 || res.Values[0] != "drafted: hello" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestBuildParadigmCallableRejectsUnresolvableStep(t *testing.T) {
	b := &Body{Composer: NewLinearComposer()}
	b.Perception = NewPerceptionRouter(b)

	spec := ParadigmSpec{
		SequenceSpec: SequenceSpec{Steps: []SequenceStep{
			{StepIndex: 0, Affordance: "tool:missing", ResultKey: "draft"},
			{StepIndex: 1, Affordance: "composition_tool.compose", Params: map[string]string{"return_key": "draft"}},
		}},
	}
	if _, err := BuildParadigmCallable(context.Background(), b, "h_x-c_y-o_z", spec); err == nil {
		t.Fatal("expected error resolving unregistered tool")
	}
}

func TestResolveBaseAffordanceUnknownTagIsUnavailable(t *testing.T) {
	b := &Body{}
	b.Perception = NewPerceptionRouter(b)
	_, err := ResolveBaseAffordance(context.Background(), b, "fn-1", "bogus")
	var capErr *UnavailableCapabilityError
	if err == nil {
		t.Fatal("expected error")
	}
	if !asUnavailable(err, &capErr) {
		t.Fatalf("expected UnavailableCapabilityError, got %T: %v", err, err)
	}
}

func asUnavailable(err error, target **UnavailableCapabilityError) bool {
	if e, ok := err.(*UnavailableCapabilityError); ok {
		*target = e
		return true
	}
	return false
}

var _ reference.Callable = (*generateCallable)(nil)
