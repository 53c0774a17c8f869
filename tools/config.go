package tools

import "time"

// FileWriterConfig configures the write_file tool's safety checks. It is
// local to the tools package: the Body binds one per run, rooted at that
// run's sandbox directory, rather than reading it from the deployment's
// top-level configuration file.
type FileWriterConfig struct {
	MaxFileSize       int
	AllowedExtensions []string
	BackupOnOverwrite bool
	WorkingDirectory  string
}

// SetDefaults fills unset fields with the tool's secure defaults.
func (c *FileWriterConfig) SetDefaults() {
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 1048576
	}
	if len(c.AllowedExtensions) == 0 {
		c.AllowedExtensions = []string{".go", ".yaml", ".md", ".json", ".txt", ".sh"}
	}
	if c.WorkingDirectory == "" {
		c.WorkingDirectory = "./"
	}
}

// SearchReplaceConfig configures the search_replace tool.
type SearchReplaceConfig struct {
	MaxReplacements  int
	ShowDiff         bool
	CreateBackup     bool
	WorkingDirectory string
}

// SetDefaults fills unset fields with the tool's defaults.
func (c *SearchReplaceConfig) SetDefaults() {
	if c.MaxReplacements == 0 {
		c.MaxReplacements = 100
	}
	if c.WorkingDirectory == "" {
		c.WorkingDirectory = "./"
	}
}

// CommandToolConfig configures the execute_command tool's sandboxing.
type CommandToolConfig struct {
	AllowedCommands  []string
	WorkingDirectory string
	MaxExecutionTime time.Duration
	EnableSandboxing bool
}

// SetDefaults fills unset fields with the tool's secure defaults.
func (c *CommandToolConfig) SetDefaults() {
	if len(c.AllowedCommands) == 0 {
		c.AllowedCommands = []string{
			"cat", "head", "tail", "ls", "find", "grep", "wc", "pwd",
			"git", "go", "echo", "date",
		}
	}
	if c.WorkingDirectory == "" {
		c.WorkingDirectory = "./"
	}
	if c.MaxExecutionTime == 0 {
		c.MaxExecutionTime = 30 * time.Second
	}
}
