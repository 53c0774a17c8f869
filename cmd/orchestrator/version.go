package main

import (
	"fmt"
	"runtime/debug"
)

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	v := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			v = info.Main.Version
		}
	}
	fmt.Printf("orchestrator version %s\n", v)
	return nil
}
