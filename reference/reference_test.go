package reference

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSetSingleton(t *testing.T) {
	r, err := New(Axis{Name: "a", Size: 1})
	require.NoError(t, err)
	require.NoError(t, r.Set(Coord{"a": 0}, Lit("x")))
	cell, err := r.Get(Coord{})
	require.NoError(t, err)
	require.Equal(t, "x", cell.Literal)
}

func TestGetMissingNonSingletonFails(t *testing.T) {
	r, err := New(Axis{Name: "a", Size: 3})
	require.NoError(t, err)
	_, err = r.Get(Coord{})
	require.Error(t, err)
}

func TestAppendCellGrowsAxis(t *testing.T) {
	r, err := New(Axis{Name: "items", Size: 0})
	require.NoError(t, err)
	idx0, err := r.AppendCell("items", Coord{}, Lit("a"))
	require.NoError(t, err)
	require.Equal(t, 0, idx0)
	idx1, err := r.AppendCell("items", Coord{}, Lit("b"))
	require.NoError(t, err)
	require.Equal(t, 1, idx1)
	sz, _ := r.AxisSize("items")
	require.Equal(t, 2, sz)
	c, err := r.Get(Coord{"items": 1})
	require.NoError(t, err)
	require.Equal(t, "b", c.Literal)
}

func TestCollapseRequiresSizeOne(t *testing.T) {
	r, err := New(Axis{Name: "a", Size: 2})
	require.NoError(t, err)
	_, err = r.Collapse("a")
	require.Error(t, err)
}

func TestCollapseDropsAxis(t *testing.T) {
	r, err := New(Axis{Name: "a", Size: 1}, Axis{Name: "b", Size: 2})
	require.NoError(t, err)
	require.NoError(t, r.Set(Coord{"a": 0, "b": 0}, Lit(1)))
	require.NoError(t, r.Set(Coord{"a": 0, "b": 1}, Lit(2)))
	out, err := r.Collapse("a")
	require.NoError(t, err)
	require.False(t, out.HasAxis("a"))
	c, err := out.Get(Coord{"b": 1})
	require.NoError(t, err)
	require.Equal(t, 2, c.Literal)
}

func TestElementActionIdentityLaw(t *testing.T) {
	r, err := New(Axis{Name: "a", Size: 3})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Set(Coord{"a": i}, Lit(i)))
	}
	identity := func(cells []Cell) (Cell, error) { return cells[0], nil }
	out, err := ElementAction(identity, r)
	require.NoError(t, err)
	require.True(t, r.Equal(out))
}

func TestElementActionBroadcastsSingleton(t *testing.T) {
	a, _ := New(Axis{Name: "n", Size: 3})
	for i := 0; i < 3; i++ {
		_ = a.Set(Coord{"n": i}, Lit(i))
	}
	b, _ := New(Axis{Name: "n", Size: 1})
	_ = b.Set(Coord{"n": 0}, Lit(10))

	add := func(cells []Cell) (Cell, error) {
		return Lit(cells[0].Literal.(int) + cells[1].Literal.(int)), nil
	}
	out, err := ElementAction(add, a, b)
	require.NoError(t, err)
	sz, _ := out.AxisSize("n")
	require.Equal(t, 3, sz)
	c, _ := out.Get(Coord{"n": 2})
	require.Equal(t, 12, c.Literal)
}

func TestElementActionShapeMismatch(t *testing.T) {
	a, _ := New(Axis{Name: "n", Size: 3})
	b, _ := New(Axis{Name: "n", Size: 2})
	fn := func(cells []Cell) (Cell, error) { return cells[0], nil }
	_, err := ElementAction(fn, a, b)
	require.Error(t, err)
}

type echoCallable struct{}

func (echoCallable) Name() string { return "echo" }
func (echoCallable) Call(args map[string]any) (Result, error) {
	return Scalar(args["x"]), nil
}

func TestCrossActionScalar(t *testing.T) {
	r, err := New(Axis{Name: "n", Size: 2})
	require.NoError(t, err)
	require.NoError(t, r.Set(Coord{"n": 0}, Cell{Kind: KindLiteral, Literal: ArgDict{"x": Lit(1)}}))
	require.NoError(t, r.Set(Coord{"n": 1}, Cell{Kind: KindLiteral, Literal: ArgDict{"x": Lit(2)}}))

	out, err := CrossAction(echoCallable{}, r, "result")
	require.NoError(t, err)
	sz, ok := out.AxisSize("result")
	require.True(t, ok)
	require.Equal(t, 1, sz)
	c, err := out.Get(Coord{"n": 1, "result": 0})
	require.NoError(t, err)
	require.Equal(t, 2, c.Literal)
}

func TestCrossActionThenCollapseEqualsElementAction(t *testing.T) {
	r, err := New(Axis{Name: "n", Size: 2})
	require.NoError(t, err)
	require.NoError(t, r.Set(Coord{"n": 0}, Cell{Kind: KindLiteral, Literal: ArgDict{"x": Lit(5)}}))
	require.NoError(t, r.Set(Coord{"n": 1}, Cell{Kind: KindLiteral, Literal: ArgDict{"x": Lit(6)}}))

	crossed, err := CrossAction(echoCallable{}, r, "out")
	require.NoError(t, err)
	collapsed, err := crossed.Collapse("out")
	require.NoError(t, err)

	plain, _ := New(Axis{Name: "n", Size: 2})
	_ = plain.Set(Coord{"n": 0}, Lit(5))
	_ = plain.Set(Coord{"n": 1}, Lit(6))
	viaElement, err := ElementAction(func(cells []Cell) (Cell, error) { return cells[0], nil }, plain)
	require.NoError(t, err)
	require.True(t, collapsed.Equal(viaElement))
}

func TestSerializationRoundTrip(t *testing.T) {
	r, err := New(Axis{Name: "a", Size: 2})
	require.NoError(t, err)
	require.NoError(t, r.Set(Coord{"a": 0}, Lit("x")))
	require.NoError(t, r.Set(Coord{"a": 1}, Lit(float64(3))))

	data, err := r.MarshalJSON()
	require.NoError(t, err)

	out := &Reference{}
	require.NoError(t, out.UnmarshalJSON(data))
	require.True(t, r.Equal(out))
}
