// Package body implements the capability bundle every inference sequence
// dispatches through: model generation, the file system, script execution,
// formatting, composition, user interaction, and perceptual-sign decoding.
package body

import (
	"context"

	"github.com/plandrive/engine/reference"
)

// Callable is implemented by everything the MFP step can produce from a
// function concept's perceptual signs: llm.generate, a named tool, a
// composition of tools, or a Python script.
type Callable = reference.Callable

// LLM is the subset of a model provider a paradigm's instruction_fn needs.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FileSystem backs the file_system capability.
type FileSystem interface {
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path, content string) error
	List(ctx context.Context, dir string) ([]string, error)
}

// PythonInterpreter backs the python_interpreter capability: runs a script
// in the sandbox and returns its stdout.
type PythonInterpreter interface {
	Run(ctx context.Context, script string, args map[string]any) (string, error)
}

// UserInput backs the user_input capability for judgement/imperative
// sequences that must block on an external answer.
type UserInput interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Formatter backs the formatter_tool capability: reshapes a Reference's
// literal content according to a named format (json, markdown, csv, ...).
type Formatter interface {
	Format(ctx context.Context, format string, value any) (string, error)
}

// Composer backs the composition_tool capability: builds the instruction_fn
// callable a paradigm's composition_tool.compose step declares, from the
// bound affordance calls of its sequence_spec and the result key it returns.
type Composer interface {
	Compose(steps []CompositionStep, returnKey string) (Callable, error)
}

// Body bundles every capability a paradigm's callable may invoke and the
// perception router that decodes perceptual signs into literal content.
type Body struct {
	LLM        LLM
	Files      FileSystem
	Python     PythonInterpreter
	Input      UserInput
	Formatter  Formatter
	Composer   Composer
	Prompts    PromptTool
	Perception *PerceptionRouter
	Tools      *ToolRegistry
	Memory     MemoryStore
	Paradigms  *ParadigmRegistry
}

// New assembles a Body from its capabilities. Any nil capability yields an
// UnavailableCapabilityError the first time a paradigm attempts to use it.
func New(llm LLM, files FileSystem, python PythonInterpreter, input UserInput, formatter Formatter, composer Composer, prompts PromptTool, tools *ToolRegistry) *Body {
	b := &Body{
		LLM:       llm,
		Files:     files,
		Python:    python,
		Input:     input,
		Formatter: formatter,
		Composer:  composer,
		Prompts:   prompts,
		Tools:     tools,
	}
	b.Perception = NewPerceptionRouter(b)
	return b
}
