package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSearchReplaceToolReplacesUniqueMatch(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.go", "package a\n\nfunc Foo() {}\n")
	tool := NewSearchReplaceTool(&SearchReplaceConfig{WorkingDirectory: dir, CreateBackup: false})

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"path":       "a.go",
		"old_string": "Foo",
		"new_string": "Bar",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	data, err := os.ReadFile(filepath.Join(dir, "a.go"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "package a\n\nfunc Bar() {}\n" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestSearchReplaceToolRejectsAmbiguousMatch(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.go", "foo foo foo")
	tool := NewSearchReplaceTool(&SearchReplaceConfig{WorkingDirectory: dir})

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"path":       "a.go",
		"old_string": "foo",
		"new_string": "bar",
	})
	if err == nil {
		t.Fatal("expected error for ambiguous match")
	}
}

func TestSearchReplaceToolReplaceAll(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.go", "foo foo foo")
	tool := NewSearchReplaceTool(&SearchReplaceConfig{WorkingDirectory: dir, CreateBackup: false})

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"path":        "a.go",
		"old_string":  "foo",
		"new_string":  "bar",
		"replace_all": true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Metadata["replacements"] != 3 {
		t.Fatalf("expected 3 replacements, got %v", result.Metadata["replacements"])
	}

	data, _ := os.ReadFile(filepath.Join(dir, "a.go"))
	if string(data) != "bar bar bar" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestSearchReplaceToolMissingOldStringErrors(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.go", "package a")
	tool := NewSearchReplaceTool(&SearchReplaceConfig{WorkingDirectory: dir})

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"path":       "a.go",
		"old_string": "does-not-exist",
		"new_string": "x",
	})
	if err == nil {
		t.Fatal("expected error when old_string is absent")
	}
}

func TestSearchReplaceToolMissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	tool := NewSearchReplaceTool(&SearchReplaceConfig{WorkingDirectory: dir})

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"path":       "missing.go",
		"old_string": "x",
		"new_string": "y",
	})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
