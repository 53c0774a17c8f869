package concept

import "fmt"

// LoadErrorKind tags the reason a plan package failed to load.
type LoadErrorKind string

const (
	ConceptMissing LoadErrorKind = "ConceptMissing"
	UnknownSequence LoadErrorKind = "UnknownSequence"
	StaticCycle    LoadErrorKind = "StaticCycle"
	BadReference   LoadErrorKind = "BadReference"
)

// LoadError surfaces at plan deploy/load time; the deploy rejects the
// package.
type LoadError struct {
	Kind   LoadErrorKind
	Detail string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load error (%s): %s", e.Kind, e.Detail)
}

func newLoadError(kind LoadErrorKind, format string, args ...any) *LoadError {
	return &LoadError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
