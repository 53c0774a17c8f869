package body

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONFormatter implements the formatter_tool capability: parse_json, wrap
// (emit a perceptual sign), and get (dict projection) are exposed as plain
// methods since they are pure and never block.
type JSONFormatter struct{}

// NewJSONFormatter returns the default formatter_tool implementation.
func NewJSONFormatter() *JSONFormatter { return &JSONFormatter{} }

// Format renders value according to format ("json" or "text").
func (f *JSONFormatter) Format(_ context.Context, format string, value any) (string, error) {
	switch format {
	case "", "text":
		return fmt.Sprint(value), nil
	case "json":
		data, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("formatter_tool: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("formatter_tool: unsupported format %q", format)
	}
}

// ParseJSON decodes text into a generic value.
func (f *JSONFormatter) ParseJSON(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("formatter_tool.parse_json: %w", err)
	}
	return v, nil
}

// Wrap renders value as the surface form of a perceptual sign under norm.
func (f *JSONFormatter) Wrap(norm, id string, value any) string {
	return fmt.Sprintf("%%{%s}%s(%v)", norm, id, value)
}

// Get projects key out of a dict-shaped value.
func (f *JSONFormatter) Get(dict map[string]any, key string) (any, bool) {
	v, ok := dict[key]
	return v, ok
}
