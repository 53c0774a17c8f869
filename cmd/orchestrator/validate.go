package main

import (
	"fmt"

	"github.com/plandrive/engine/plan"
)

// ValidateCmd checks a plan package and configuration file without
// executing anything: it confirms the manifest, repositories, and
// provisions tree all load cleanly.
type ValidateCmd struct {
	Plan string `arg:"" optional:"" help:"Path to the plan package zip." type:"path"`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	if cli.Config != "" {
		if _, err := loadConfig(cli.Config); err != nil {
			return withCode(exitConfigError, err)
		}
		fmt.Println("configuration OK")
	}

	if c.Plan == "" {
		return nil
	}

	pkg, err := plan.Open(c.Plan)
	if err != nil {
		return withCode(exitDeployError, err)
	}
	defer pkg.Close()

	if _, err := pkg.Provisions(); err != nil {
		return withCode(exitDeployError, err)
	}

	fmt.Printf("plan %q version %s: %d concepts, %d inferences\n",
		pkg.Manifest.Name, pkg.Manifest.Version, len(pkg.Concepts.AllIDs()), len(pkg.Inferences.FlowIndexOrder()))
	return nil
}
