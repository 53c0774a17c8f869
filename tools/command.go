package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ============================================================================
// COMMAND EXECUTOR - SECURE SHELL COMMAND EXECUTION
// ============================================================================

// CommandTool handles secure command execution
type CommandTool struct {
	config *CommandToolConfig
}

// NewCommandTool creates a new command tool with secure defaults
func NewCommandTool(commandConfig *CommandToolConfig) *CommandTool {
	if commandConfig == nil {
		commandConfig = &CommandToolConfig{EnableSandboxing: true}
	}
	commandConfig.SetDefaults()
	return &CommandTool{config: commandConfig}
}

// Execute runs a command with security checks and timeout protection
func (t *CommandTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	// Extract parameters
	command, ok := args["command"].(string)
	if !ok || command == "" {
		return t.createErrorResult("command parameter is required", fmt.Errorf("command parameter is required"))
	}

	workingDir, _ := args["working_dir"].(string)

	// Set working directory
	if workingDir == "" {
		workingDir = t.config.WorkingDirectory
	}

	// Security validation
	if err := t.validateCommand(command); err != nil {
		return t.createErrorResult(err.Error(), err)
	}

	// Apply timeout
	if t.config.MaxExecutionTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.MaxExecutionTime)
		defer cancel()
	}

	// Execute command through shell for consistent behavior
	return t.executeCommand(ctx, command, workingDir)
}

// validateCommand performs security validation on the command
func (t *CommandTool) validateCommand(command string) error {
	if !t.config.EnableSandboxing {
		return nil
	}

	baseCmd := t.extractBaseCommand(command)
	if !t.isCommandAllowed(baseCmd) {
		return fmt.Errorf("command not allowed: %s", baseCmd)
	}

	return nil
}

// executeCommand executes the validated command
func (t *CommandTool) executeCommand(ctx context.Context, command, workingDir string) (ToolResult, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = workingDir

	start := time.Now()
	output, err := cmd.CombinedOutput()
	executionTime := time.Since(start)

	result := ToolResult{
		Content:       string(output),
		Success:       err == nil,
		ToolName:      "execute_command",
		ExecutionTime: executionTime,
		Metadata: map[string]interface{}{
			"command":     command,
			"working_dir": workingDir,
		},
	}

	if err != nil {
		result.Error = err.Error()
		if exitError, ok := err.(*exec.ExitError); ok {
			result.Metadata["exit_code"] = exitError.ExitCode()
		}
	}

	return result, err
}

// createErrorResult creates a standardized error result
func (t *CommandTool) createErrorResult(message string, err error) (ToolResult, error) {
	return ToolResult{
		Success:  false,
		Error:    message,
		ToolName: "execute_command",
	}, err
}

// extractBaseCommand gets the first command from a complex shell command
func (t *CommandTool) extractBaseCommand(command string) string {
	// Handle pipes, redirects, etc. - get the first command
	parts := strings.FieldsFunc(command, func(r rune) bool {
		return r == '|' || r == '>' || r == '<' || r == ';'
	})

	if len(parts) == 0 {
		return ""
	}

	// Get first word of first command
	firstCmd := strings.TrimSpace(parts[0])
	cmdParts := strings.Fields(firstCmd)
	if len(cmdParts) == 0 {
		return ""
	}

	return cmdParts[0]
}

// isCommandAllowed checks if a command is in the allowed list
func (t *CommandTool) isCommandAllowed(command string) bool {
	for _, allowed := range t.config.AllowedCommands {
		if command == allowed {
			return true
		}
	}
	return false
}

// GetInfo returns tool information for the Tool interface
func (t *CommandTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "execute_command",
		Description: "Execute shell commands for file operations, system tasks, and development workflows",
		Parameters: []ToolParameter{
			{
				Name:        "command",
				Type:        "string",
				Description: "Shell command to execute (supports pipes, redirects, etc.)",
				Required:    true,
			},
			{
				Name:        "working_dir",
				Type:        "string",
				Description: "Working directory (optional)",
				Required:    false,
			},
		},
		ServerURL: "local",
	}
}

// GetName returns the tool name
func (t *CommandTool) GetName() string {
	return "execute_command"
}

// GetDescription returns the tool description
func (t *CommandTool) GetDescription() string {
	return "Execute shell commands for file operations, system tasks, and development workflows"
}
