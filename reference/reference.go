package reference

// Reference is a named-axis tensor: an ordered list of axes plus a sparse
// cell store keyed by full coordinate.
type Reference struct {
	axes  []Axis
	index map[string]int // axis name -> position in axes
	cells map[string]Cell
}

// New builds an empty Reference over the given axes, in the given order.
// Axis names must be unique.
func New(axes ...Axis) (*Reference, error) {
	r := &Reference{
		index: make(map[string]int, len(axes)),
		cells: make(map[string]Cell),
	}
	for _, a := range axes {
		if _, dup := r.index[a.Name]; dup {
			return nil, &AxisError{Axis: a.Name, Detail: "duplicate axis"}
		}
		r.index[a.Name] = len(r.axes)
		r.axes = append(r.axes, a)
	}
	return r, nil
}

// Axes returns a copy of the ordered axis list.
func (r *Reference) Axes() []Axis {
	out := make([]Axis, len(r.axes))
	copy(out, r.axes)
	return out
}

// Shape returns the sizes of the axes in declared order.
func (r *Reference) Shape() []int {
	out := make([]int, len(r.axes))
	for i, a := range r.axes {
		out[i] = a.Size
	}
	return out
}

// HasAxis reports whether the named axis exists.
func (r *Reference) HasAxis(name string) bool {
	_, ok := r.index[name]
	return ok
}

// AxisSize returns the size of the named axis, or (0, false) if absent.
func (r *Reference) AxisSize(name string) (int, bool) {
	i, ok := r.index[name]
	if !ok {
		return 0, false
	}
	return r.axes[i].Size, true
}

// canonicalKey resolves a (possibly partial) coordinate into a full,
// order-stable string key, defaulting omitted singleton axes to index 0.
func (r *Reference) canonicalKey(coord Coord) (string, Coord, error) {
	full := make(Coord, len(r.axes))
	for _, a := range r.axes {
		idx, given := coord[a.Name]
		if !given {
			if a.Size == 1 {
				idx = 0
			} else {
				return "", nil, &CoordError{Axis: a.Name, Detail: "missing coordinate on non-singleton axis"}
			}
		}
		if idx < 0 || idx >= a.Size {
			return "", nil, &CoordError{Axis: a.Name, Detail: "index out of range"}
		}
		full[a.Name] = idx
	}
	return encodeKey(r.axes, full), full, nil
}

// encodeKey produces a deterministic string key for a full coordinate,
// ordered by the reference's declared axis order (not map iteration order).
func encodeKey(axes []Axis, full Coord) string {
	keys := make([]string, len(axes))
	for i, a := range axes {
		keys[i] = a.Name
	}
	out := make([]byte, 0, 16*len(keys))
	for _, name := range keys {
		out = append(out, []byte(name)...)
		out = append(out, '=')
		out = appendInt(out, full[name])
		out = append(out, ';')
	}
	return string(out)
}

func appendInt(b []byte, v int) []byte {
	if v == 0 {
		return append(b, '0')
	}
	neg := v < 0
	if neg {
		v = -v
	}
	start := len(b)
	for v > 0 {
		b = append(b, byte('0'+v%10))
		v /= 10
	}
	if neg {
		b = append(b, '-')
	}
	// reverse in place
	for i, j := start, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// Get retrieves the cell at coord. Fails if a non-singleton axis is missing
// from coord or the index is out of range.
func (r *Reference) Get(coord Coord) (Cell, error) {
	key, _, err := r.canonicalKey(coord)
	if err != nil {
		return Cell{}, err
	}
	cell, ok := r.cells[key]
	if !ok {
		return Cell{}, nil
	}
	return cell, nil
}

// Exists reports whether a cell has been explicitly set at coord.
func (r *Reference) Exists(coord Coord) bool {
	key, _, err := r.canonicalKey(coord)
	if err != nil {
		return false
	}
	_, ok := r.cells[key]
	return ok
}

// Set writes value at coord. It never changes axis sizes; use AppendAxis /
// AppendCell to grow an axis.
func (r *Reference) Set(coord Coord, value Cell) error {
	key, _, err := r.canonicalKey(coord)
	if err != nil {
		return err
	}
	r.cells[key] = value
	return nil
}

// AppendAxis adds a new axis with the given name and initial size (usually
// 0) to the end of the axis list. The axis name must not already exist.
func (r *Reference) AppendAxis(name string, size int) error {
	if _, dup := r.index[name]; dup {
		return &AxisError{Axis: name, Detail: "axis already exists"}
	}
	r.index[name] = len(r.axes)
	r.axes = append(r.axes, Axis{Name: name, Size: size})
	return nil
}

// AppendCell extends axis by one index position, storing value at the
// coordinate formed by rest plus the new index on axis. It returns the new
// index. Used by grouping and looping to accumulate results in order.
func (r *Reference) AppendCell(axis string, rest Coord, value Cell) (int, error) {
	pos, ok := r.index[axis]
	if !ok {
		return 0, &AxisError{Axis: axis, Detail: "unknown axis"}
	}
	newIndex := r.axes[pos].Size
	r.axes[pos].Size++
	coord := rest.Clone()
	coord[axis] = newIndex
	if err := r.Set(coord, value); err != nil {
		return 0, err
	}
	return newIndex, nil
}

// Collapse removes axis, which must have size exactly 1. Every cell's
// coordinate on that axis was already 0; the axis is simply dropped from
// the axis list and from cell keys.
func (r *Reference) Collapse(axis string) (*Reference, error) {
	pos, ok := r.index[axis]
	if !ok {
		return nil, &AxisError{Axis: axis, Detail: "unknown axis"}
	}
	if r.axes[pos].Size != 1 {
		return nil, &AxisError{Axis: axis, Detail: "collapse requires size 1"}
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
		coord := cc.coord.Clone()
		delete(coord, axis)
		if err := out.Set(coord, cc.cell); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// cellWithCoord pairs a decoded coordinate with its stored cell.
type cellWithCoord struct {
	coord Coord
	cell  Cell
}

// iterCells decodes every stored cell back into its full coordinate. It is
// intentionally O(n) over stored cells, not the dense coordinate space.
func (r *Reference) iterCells() []cellWithCoord {
	out := make([]cellWithCoord, 0, len(r.cells))
	for key, cell := range r.cells {
		out = append(out, cellWithCoord{coord: decodeKey(r.axes, key), cell: cell})
	}
	return out
}

func decodeKey(axes []Axis, key string) Coord {
	coord := make(Coord, len(axes))
	pos := 0
	for _, a := range axes {
		// key segments are "name=idx;" in axes order
		eq := pos + len(a.Name) + 1
		end := eq
		for key[end] != ';' {
			end++
		}
		val := parseInt(key[eq:end])
		coord[a.Name] = val
		pos = end + 1
	}
	return coord
}

func parseInt(s string) int {
	neg := false
	i := 0
	if len(s) > 0 && s[0] == '-' {
		neg = true
		i++
	}
	v := 0
	for ; i < len(s); i++ {
		v = v*10 + int(s[i]-'0')
	}
	if neg {
		v = -v
	}
	return v
}

// Equal reports deep structural equality: same axes in the same order and
// the same cells (by Cell.Equal) at every coordinate.
func (r *Reference) Equal(o *Reference) bool {
	if r == nil || o == nil {
		return r == o
	}
	if len(r.axes) != len(o.axes) {
		return false
	}
	for i := range r.axes {
		if r.axes[i] != o.axes[i] {
			return false
		}
	}
	if len(r.cells) != len(o.cells) {
		return false
	}
	for key, c := range r.cells {
		oc, ok := o.cells[key]
		if !ok || !c.Equal(oc) {
			return false
		}
	}
	return true
}
