package body

import (
	"context"

	"github.com/plandrive/engine/reference"
	"github.com/plandrive/engine/registry"
	"github.com/plandrive/engine/tools"
)

// ToolRegistry holds every named Callable the deployment has bound into a
// run's Body: thin tool wrappers, Python script callables, and composed
// pipelines, all addressable by the name a paradigm's sequence_spec uses.
type ToolRegistry struct {
	*registry.BaseRegistry[reference.Callable]
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{BaseRegistry: registry.NewBaseRegistry[reference.Callable]()}
}

// toolCallable adapts a tools.Tool into a Callable so existing tool
// implementations can be bound under a paradigm affordance name.
type toolCallable struct {
	name string
	tool tools.Tool
}

// WrapTool adapts t into a Callable named name.
func WrapTool(name string, t tools.Tool) reference.Callable {
	return &toolCallable{name: name, tool: t}
}

func (c *toolCallable) Name() string { return c.name }

func (c *toolCallable) Call(args map[string]any) (reference.Result, error) {
	params := make(map[string]interface{}, len(args))
	for k, v := range args {
		params[k] = v
	}
	result, err := c.tool.Execute(context.Background(), params)
	if err != nil {
		return reference.Result{}, err
	}
	if result.Output != nil {
		return reference.Scalar(result.Output), nil
	}
	return reference.Scalar(result.Content), nil
}
