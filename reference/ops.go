package reference

import "fmt"

// ElementAction applies fn pointwise across refs, broadcasting singleton
// axes. The result's axes are the union of input axes in first-seen order;
// sizes are the max per axis. Inputs disagreeing on a non-singleton axis
// size produce a ShapeMismatchError.
func ElementAction(fn func(cells []Cell) (Cell, error), refs ...*Reference) (*Reference, error) {
	if len(refs) == 0 {
		return New()
	}
	order := []string{}
	sizes := map[string]int{}
	for _, r := range refs {
		for _, a := range r.axes {
			if _, seen := sizes[a.Name]; !seen {
				order = append(order, a.Name)
				sizes[a.Name] = a.Size
			} else {
				cur := sizes[a.Name]
				switch {
				case cur == a.Size:
					// agree
				case cur == 1:
					sizes[a.Name] = a.Size
				case a.Size == 1:
					// keep cur
				default:
					return nil, &ShapeMismatchError{Axis: a.Name, Detail: fmt.Sprintf("sizes %d and %d disagree", cur, a.Size)}
				}
			}
		}
	}
	axes := make([]Axis, len(order))
	for i, n := range order {
		axes[i] = Axis{Name: n, Size: sizes[n]}
	}
	out, err := New(axes...)
	if err != nil {
		return nil, err
	}

	total := 1
	for _, a := range axes {
		total *= max1(a.Size)
	}
	coord := make(Coord, len(axes))
	for linear := 0; linear < total; linear++ {
		rem := linear
		for _, a := range axes {
			sz := max1(a.Size)
			coord[a.Name] = rem % sz
			rem /= sz
		}
		cells := make([]Cell, len(refs))
		for i, r := range refs {
			bc := broadcastCoord(r, coord)
			cell, err := r.Get(bc)
			if err != nil {
				return nil, err
			}
			cells[i] = cell
		}
		result, err := fn(cells)
		if err != nil {
			return nil, err
		}
		if err := out.Set(coord.Clone(), result); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func max1(size int) int {
	if size <= 0 {
		return 1
	}
	return size
}

// broadcastCoord projects a full result coordinate onto r's own axes,
// collapsing any axis r doesn't have or has as a singleton to index 0.
func broadcastCoord(r *Reference, coord Coord) Coord {
	out := make(Coord, len(r.axes))
	for _, a := range r.axes {
		idx, ok := coord[a.Name]
		if !ok || a.Size == 1 {
			out[a.Name] = 0
			continue
		}
		out[a.Name] = idx
	}
	return out
}

// CrossAction invokes an N-ary callable once per cell of argDictRef (whose
// cells must be ArgDict values), growing a new axis named newAxis on the
// result. If the callable returns a collection, every invocation must
// return collections of the same length (or all scalars); mixed arities are
// a ShapeMismatchError.
func CrossAction(fn Callable, argDictRef *Reference, newAxis string) (*Reference, error) {
	type invocation struct {
		coord  Coord
		result Result
	}
	invocations := make([]invocation, 0, len(argDictRef.cells))
	newAxisSize := -1
	for _, cc := range argDictRef.iterCells() {
		dict, ok := cc.cell.AsArgDict()
		if !ok {
			return nil, &ShapeMismatchError{Detail: "cross_action input cell is not an arg-dict"}
		}
		args := make(map[string]any, len(dict))
		for k, v := range dict {
			switch v.Kind {
			case KindCallable:
				args[k] = v.Callable
			case KindReference:
				args[k] = v.Reference
			default:
				args[k] = v.Literal
			}
		}
		res, err := fn.Call(args)
		if err != nil {
			return nil, err
		}
		n := 1
		if res.IsCollection {
			n = len(res.Values)
		}
		if newAxisSize == -1 {
			newAxisSize = n
		} else if newAxisSize != n {
			return nil, &ShapeMismatchError{Axis: newAxis, Detail: "callable returned inconsistent collection lengths across invocations"}
		}
		invocations = append(invocations, invocation{coord: cc.coord, result: res})
	}
	if newAxisSize == -1 {
		newAxisSize = 1
	}

	outAxes := append(append([]Axis{}, argDictRef.axes...), Axis{Name: newAxis, Size: newAxisSize})
	out, err := New(outAxes...)
	if err != nil {
		return nil, err
	}
	for _, inv := range invocations {
		for i := 0; i < newAxisSize; i++ {
			var v any
			if len(inv.result.Values) == 0 {
				v = nil
			} else if i < len(inv.result.Values) {
				v = inv.result.Values[i]
			} else {
				v = inv.result.Values[0]
			}
			coord := inv.coord.With(newAxis, i)
			if err := out.Set(coord, Lit(v)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Derelation selects element index along axis (which must hold ArgDict
// cells), then selects key from the dict, producing a reference with one
// fewer axis.
func Derelation(source *Reference, axis string, index int, key string) (*Reference, error) {
	sliced, err := sliceAxis(source, axis, index)
	if err != nil {
		return nil, err
	}
	out, err := New(sliced.Axes()...)
	if err != nil {
		return nil, err
	}
	for _, cc := range sliced.iterCells() {
		dict, ok := cc.cell.AsArgDict()
		if !ok {
			return nil, &ShapeMismatchError{Axis: axis, Detail: "derelation source cell is not an arg-dict"}
		}
		v, ok := dict[key]
		if !ok {
			return nil, &ShapeMismatchError{Axis: axis, Detail: fmt.Sprintf("key %q not present in cell", key)}
		}
		if err := out.Set(cc.coord, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// sliceAxis fixes axis at index and drops it from the result's axis list.
func sliceAxis(r *Reference, axis string, index int) (*Reference, error) {
	pos, ok := r.index[axis]
	if !ok {
		return nil, &AxisError{Axis: axis, Detail: "unknown axis"}
	}
	if index < 0 || index >= r.axes[pos].Size {
		return nil, &CoordError{Axis: axis, Detail: "index out of range"}
	}
	newAxes := make([]Axis, 0, len(r.axes)-1)
	for i, a := range r.axes {
		if i != pos {
			newAxes = append(newAxes, a)
		}
	}
	out, err := New(newAxes...)
	if err != nil {
		return nil, err
	}
	for _, cc := range r.iterCells() {
		if cc.coord[axis] != index {
			continue
		}
		coord := cc.coord.Clone()
		delete(coord, axis)
		if err := out.Set(coord, cc.cell); err != nil {
			return nil, err
		}
	}
	return out, nil
}
