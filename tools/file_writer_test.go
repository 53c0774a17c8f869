package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newWriterForDir(t *testing.T, dir string) *FileWriterTool {
	t.Helper()
	return NewFileWriterTool(&FileWriterConfig{
		WorkingDirectory:  dir,
		BackupOnOverwrite: true,
	})
}

func TestFileWriterToolCreatesFile(t *testing.T) {
	dir := t.TempDir()
	tool := newWriterForDir(t, dir)

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"path":    "notes.md",
		"content": "hello",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	data, err := os.ReadFile(filepath.Join(dir, "notes.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected file content %q, got %q", "hello", data)
	}
}

func TestFileWriterToolBacksUpOnOverwrite(t *testing.T) {
	dir := t.TempDir()
	tool := newWriterForDir(t, dir)

	ctx := context.Background()
	if _, err := tool.Execute(ctx, map[string]interface{}{"path": "a.txt", "content": "v1"}); err != nil {
		t.Fatal(err)
	}
	result, err := tool.Execute(ctx, map[string]interface{}{"path": "a.txt", "content": "v2", "backup": true})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	backup, err := os.ReadFile(filepath.Join(dir, "a.txt.bak"))
	if err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
	if string(backup) != "v1" {
		t.Fatalf("expected backup to hold original content, got %q", backup)
	}
}

func TestFileWriterToolRejectsDirectoryTraversal(t *testing.T) {
	dir := t.TempDir()
	tool := newWriterForDir(t, dir)

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"path":    "../escape.txt",
		"content": "nope",
	})
	if err == nil {
		t.Fatal("expected error for directory traversal")
	}
	if result.Success {
		t.Fatal("expected failure result")
	}
}

func TestFileWriterToolRejectsAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	tool := newWriterForDir(t, dir)

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"path":    "/etc/passwd",
		"content": "nope",
	})
	if err == nil {
		t.Fatal("expected error for absolute path")
	}
}

func TestFileWriterToolRejectsDisallowedExtension(t *testing.T) {
	dir := t.TempDir()
	tool := NewFileWriterTool(&FileWriterConfig{
		WorkingDirectory:  dir,
		AllowedExtensions: []string{".txt"},
	})

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"path":    "script.sh",
		"content": "echo hi",
	})
	if err == nil {
		t.Fatal("expected error for disallowed extension")
	}
}

func TestFileWriterToolRejectsOversizedContent(t *testing.T) {
	dir := t.TempDir()
	tool := NewFileWriterTool(&FileWriterConfig{
		WorkingDirectory: dir,
		MaxFileSize:      4,
	})

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"path":    "big.txt",
		"content": "way too much content",
	})
	if err == nil {
		t.Fatal("expected error for oversized content")
	}
}
