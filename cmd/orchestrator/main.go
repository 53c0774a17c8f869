// Command orchestrator deploys and runs plan packages: it can serve the
// REST+WS deployment surface, deploy a plan package against a running
// server, launch a single run to completion from the command line, or
// validate a plan package and configuration file without executing
// anything.
//
// Usage:
//
//	orchestrator serve --config orchestrator.yaml
//	orchestrator deploy plan.zip --server http://localhost:8080
//	orchestrator run plan.zip --config orchestrator.yaml --ground-inputs inputs.json
//	orchestrator validate plan.zip --config orchestrator.yaml
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// Exit codes, checked by callers that script deployments.
const (
	exitSuccess         = 0
	exitConfigError     = 2
	exitDeployError     = 3
	exitRunFailed       = 4
	exitBudgetExhausted = 5
	exitDeadlock        = 6
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the deployment server."`
	Deploy   DeployCmd   `cmd:"" help:"Deploy a plan package to a running server."`
	Run      RunCmd      `cmd:"" help:"Run a plan package to completion in-process."`
	Validate ValidateCmd `cmd:"" help:"Validate a plan package and configuration file."`

	Config   string `short:"c" help:"Path to configuration file." type:"path"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("orchestrator"),
		kong.Description("Plan orchestrator — deploys and runs plan packages."),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli)
	if err == nil {
		os.Exit(exitSuccess)
	}

	fmt.Fprintln(os.Stderr, err)
	if coded, ok := err.(exitCoder); ok {
		os.Exit(coded.ExitCode())
	}
	os.Exit(exitRunFailed)
}

// exitCoder lets a command's error carry a specific process exit code.
type exitCoder interface {
	ExitCode() int
}

type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }
func (e *codedError) ExitCode() int { return e.code }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}
