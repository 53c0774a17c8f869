// Package reference implements the named-axis tensor data model ("Reference")
// that carries every value passed between concepts: literals, callables, and
// nested references, addressed by named axis coordinates with broadcasting.
package reference

import "fmt"

// Axis is one named, ordered dimension of a Reference.
type Axis struct {
	Name string
	Size int
}

// Coord addresses a single cell by axis name to index. Axes absent from a
// Coord are resolved against a singleton (size 1) axis at index 0; it is an
// error to omit a non-singleton axis.
type Coord map[string]int

// Clone returns a shallow copy of the coordinate.
func (c Coord) Clone() Coord {
	out := make(Coord, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// With returns a copy of c with axis set to index.
func (c Coord) With(axis string, index int) Coord {
	out := c.Clone()
	out[axis] = index
	return out
}

// Kind tags the variant held by a Cell.
type Kind int

const (
	// KindLiteral holds a primitive or structured JSON-like value, possibly
	// an ArgDict (named-parameter map) or a perceptual sign string.
	KindLiteral Kind = iota
	// KindCallable holds an executable function handle.
	KindCallable
	// KindReference holds a nested Reference (a relation of relations).
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindCallable:
		return "callable"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Callable is an executable function handle produced by the function
// perception step (MFP) and invoked by cross_action (TVA).
type Callable interface {
	// Call invokes the callable with named arguments and returns either a
	// single value, a slice of values (Result), or an error.
	Call(args map[string]any) (Result, error)
	// Name identifies the callable for logging.
	Name() string
}

// Result is the outcome of a Callable invocation: either a single scalar
// value (Values has length 1 and IsCollection is false) or an ordered
// collection (IsCollection is true, possibly empty).
type Result struct {
	Values       []any
	IsCollection bool
}

// Scalar wraps a single value as a non-collection Result.
func Scalar(v any) Result { return Result{Values: []any{v}} }

// Collection wraps a slice of values as a collection Result.
func Collection(vs []any) Result { return Result{Values: vs, IsCollection: true} }

// ArgDict is a named-parameter map used as the literal payload of cells fed
// into cross_action (the IR step's "arg-dict" reference).
type ArgDict map[string]Cell

// Cell is a single tagged-variant value stored at one coordinate.
type Cell struct {
	Kind      Kind
	Literal   any
	Callable  Callable
	Reference *Reference
}

// Lit builds a literal cell.
func Lit(v any) Cell { return Cell{Kind: KindLiteral, Literal: v} }

// Call builds a callable cell.
func Call(c Callable) Cell { return Cell{Kind: KindCallable, Callable: c} }

// Nested builds a nested-reference cell.
func Nested(r *Reference) Cell { return Cell{Kind: KindReference, Reference: r} }

// AsArgDict type-asserts a literal cell's payload as an ArgDict.
func (c Cell) AsArgDict() (ArgDict, bool) {
	if c.Kind != KindLiteral {
		return nil, false
	}
	d, ok := c.Literal.(ArgDict)
	return d, ok
}

// Equal reports structural equality, used by algebra-law tests.
func (c Cell) Equal(o Cell) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case KindLiteral:
		return fmt.Sprint(c.Literal) == fmt.Sprint(o.Literal)
	case KindCallable:
		return c.Callable == o.Callable
	case KindReference:
		if c.Reference == nil || o.Reference == nil {
			return c.Reference == o.Reference
		}
		return c.Reference.Equal(o.Reference)
	default:
		return false
	}
}
