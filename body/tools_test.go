package body

import (
	"context"
	"testing"

	"github.com/plandrive/engine/tools"
)

type echoTool struct{}

func (echoTool) GetInfo() tools.ToolInfo { return tools.ToolInfo{Name: "echo"} }
func (echoTool) GetName() string         { return "echo" }
func (echoTool) GetDescription() string  { return "echoes its input" }
func (echoTool) Execute(ctx context.Context, args map[string]interface{}) (tools.ToolResult, error) {
	return tools.ToolResult{Success: true, Content: args["text"].(string)}, nil
}

func TestWrapToolRoundTrip(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register("echo", WrapTool("echo", echoTool{}))

	callable, ok := reg.Get("echo")
	if !ok {
		t.Fatal("expected echo to be registered")
	}
	if callable.Name() != "echo" {
		t.Fatalf("expected name %q, got %q", "echo", callable.Name())
	}

	result, err := callable.Call(map[string]any{"text": "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Values) != 1 || result.Values[0] != "hi" {
		t.Fatalf("expected single value %q, got %v", "hi", result.Values)
	}
}
