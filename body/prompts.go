package body

import (
	"bytes"
	"context"
	"io/fs"
	"text/template"
)

// PromptTool reads provisioned prompt templates from a plan package and
// renders them with named variables.
type PromptTool interface {
	Read(ctx context.Context, path string) (string, error)
	Render(ctx context.Context, tmplText string, vars map[string]any) (string, error)
}

// TemplatePromptTool reads templates from a read-only provisions filesystem
// (the plan package's provisions/prompts/** tree) and renders them with Go
// text/template.
type TemplatePromptTool struct {
	provisions fs.FS
}

// NewTemplatePromptTool binds a prompt tool to a plan's provisions tree.
func NewTemplatePromptTool(provisions fs.FS) *TemplatePromptTool {
	return &TemplatePromptTool{provisions: provisions}
}

func (p *TemplatePromptTool) Read(ctx context.Context, path string) (string, error) {
	if p.provisions == nil {
		return "", &UnavailableCapabilityError{Capability: "prompt_tool"}
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	data, err := fs.ReadFile(p.provisions, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *TemplatePromptTool) Render(ctx context.Context, tmplText string, vars map[string]any) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	t, err := template.New("prompt").Parse(tmplText)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}
