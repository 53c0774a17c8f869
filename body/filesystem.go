package body

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SandboxedFileSystem confines every read/write to a fixed root directory,
// rejecting any path (including via ..) that resolves outside it before
// touching the filesystem.
type SandboxedFileSystem struct {
	root string
}

// NewSandboxedFileSystem roots a FileSystem at root, which must already
// exist.
func NewSandboxedFileSystem(root string) (*SandboxedFileSystem, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving sandbox root: %w", err)
	}
	return &SandboxedFileSystem{root: abs}, nil
}

func (fs *SandboxedFileSystem) resolve(path string) (string, error) {
	joined := filepath.Join(fs.root, path)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	if abs != fs.root && !strings.HasPrefix(abs, fs.root+string(filepath.Separator)) {
		return "", &SandboxEscapeError{Path: path}
	}
	return abs, nil
}

func (fs *SandboxedFileSystem) Read(_ context.Context, path string) (string, error) {
	abs, err := fs.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", path, err)
	}
	return string(data), nil
}

func (fs *SandboxedFileSystem) Write(_ context.Context, path, content string) error {
	abs, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("preparing directory for %q: %w", path, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}

func (fs *SandboxedFileSystem) List(_ context.Context, dir string) ([]string, error) {
	abs, err := fs.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", dir, err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}
