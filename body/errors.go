package body

import "fmt"

// UnavailableCapabilityError reports that a paradigm tried to use a Body
// capability the deployment wired in as nil.
type UnavailableCapabilityError struct {
	Capability string
}

func (e *UnavailableCapabilityError) Error() string {
	return fmt.Sprintf("body: capability %q is not configured", e.Capability)
}

// SandboxEscapeError reports a file_system path that resolved outside the
// run's sandbox root.
type SandboxEscapeError struct {
	Path string
}

func (e *SandboxEscapeError) Error() string {
	return fmt.Sprintf("body: path %q escapes sandbox root", e.Path)
}
