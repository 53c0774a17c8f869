package tools

import (
	"context"
	"testing"
)

func TestCommandToolAllowsWhitelistedCommand(t *testing.T) {
	dir := t.TempDir()
	tool := NewCommandTool(&CommandToolConfig{WorkingDirectory: dir, EnableSandboxing: true})

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"command": "echo hello",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Content != "hello\n" {
		t.Fatalf("expected %q, got %q", "hello\n", result.Content)
	}
}

func TestCommandToolRejectsDisallowedCommand(t *testing.T) {
	tool := NewCommandTool(&CommandToolConfig{AllowedCommands: []string{"echo"}, EnableSandboxing: true})

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"command": "rm -rf /",
	})
	if err == nil {
		t.Fatal("expected error for disallowed command")
	}
}

func TestCommandToolSandboxingDisabledAllowsAnything(t *testing.T) {
	tool := NewCommandTool(&CommandToolConfig{
		AllowedCommands:  []string{"echo"},
		EnableSandboxing: false,
	})

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"command": "pwd",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestCommandToolRequiresCommand(t *testing.T) {
	tool := NewCommandTool(nil)

	_, err := tool.Execute(context.Background(), map[string]interface{}{})
	if err == nil {
		t.Fatal("expected error for missing command")
	}
}

func TestExtractBaseCommandHandlesPipesAndRedirects(t *testing.T) {
	tool := NewCommandTool(nil)

	cases := map[string]string{
		"ls -la":              "ls",
		"cat file | grep foo": "cat",
		"echo hi > out.txt":   "echo",
		"  git status":        "git",
		"":                    "",
	}
	for input, want := range cases {
		got := tool.extractBaseCommand(input)
		if got != want {
			t.Errorf("extractBaseCommand(%q) = %q, want %q", input, got, want)
		}
	}
}
