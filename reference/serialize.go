package reference

import (
	"encoding/json"
	"fmt"
	"sort"
)

// wireReference is the canonical on-wire shape used for checkpointing:
// { "axes": [{name,size}...], "cells": [{coord:{ax:k...}, value:<tagged>}...] }
// ordered by axis position. Round-tripping through this shape is exact.
type wireReference struct {
	Axes  []Axis      `json:"axes"`
	Cells []wireCell  `json:"cells"`
}

type wireCell struct {
	Coord map[string]int `json:"coord"`
	Value wireValue      `json:"value"`
}

type wireValue struct {
	Kind    string `json:"kind"`
	Literal any    `json:"literal,omitempty"`
	// Callables are not serializable; they must not survive to a checkpoint
	// boundary (the orchestrator always resolves them within a cycle).
	Nested *wireReference `json:"nested,omitempty"`
}

// MarshalJSON produces the canonical, axis-order-stable encoding.
func (r *Reference) MarshalJSON() ([]byte, error) {
	w, err := r.toWire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (r *Reference) toWire() (*wireReference, error) {
	w := &wireReference{Axes: r.Axes()}
	cells := r.iterCells()
	sort.Slice(cells, func(i, j int) bool {
		return coordLess(r.axes, cells[i].coord, cells[j].coord)
	})
	for _, cc := range cells {
		wv, err := cellToWire(cc.cell)
		if err != nil {
			return nil, err
		}
		w.Cells = append(w.Cells, wireCell{Coord: coordToMap(cc.coord), Value: wv})
	}
	return w, nil
}

func coordToMap(c Coord) map[string]int {
	out := make(map[string]int, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func coordLess(axes []Axis, a, b Coord) bool {
	for _, ax := range axes {
		if a[ax.Name] != b[ax.Name] {
			return a[ax.Name] < b[ax.Name]
		}
	}
	return false
}

func cellToWire(c Cell) (wireValue, error) {
	switch c.Kind {
	case KindLiteral:
		if dict, ok := c.AsArgDict(); ok {
			lit := map[string]wireValue{}
			for k, v := range dict {
				wv, err := cellToWire(v)
				if err != nil {
					return wireValue{}, err
				}
				lit[k] = wv
			}
			return wireValue{Kind: "argdict", Literal: lit}, nil
		}
		return wireValue{Kind: "literal", Literal: c.Literal}, nil
	case KindReference:
		if c.Reference == nil {
			return wireValue{Kind: "reference"}, nil
		}
		nested, err := c.Reference.toWire()
		if err != nil {
			return wireValue{}, err
		}
		return wireValue{Kind: "reference", Nested: nested}, nil
	case KindCallable:
		return wireValue{}, fmt.Errorf("reference: cannot serialize a callable cell")
	default:
		return wireValue{}, fmt.Errorf("reference: unknown cell kind %v", c.Kind)
	}
}

// UnmarshalJSON reconstructs a Reference from its canonical encoding.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var w wireReference
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	fresh, err := fromWire(&w)
	if err != nil {
		return err
	}
	*r = *fresh
	return nil
}

func fromWire(w *wireReference) (*Reference, error) {
	out, err := New(w.Axes...)
	if err != nil {
		return nil, err
	}
	for _, wc := range w.Cells {
		cell, err := wireToCell(wc.Value)
		if err != nil {
			return nil, err
		}
		if err := out.Set(Coord(wc.Coord), cell); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func wireToCell(v wireValue) (Cell, error) {
	switch v.Kind {
	case "literal":
		return Lit(v.Literal), nil
	case "argdict":
		raw, ok := v.Literal.(map[string]any)
		dict := ArgDict{}
		if ok {
			for k, rv := range raw {
				b, err := json.Marshal(rv)
				if err != nil {
					return Cell{}, err
				}
				var wv wireValue
				if err := json.Unmarshal(b, &wv); err != nil {
					return Cell{}, err
				}
				c, err := wireToCell(wv)
				if err != nil {
					return Cell{}, err
				}
				dict[k] = c
			}
		}
		return Cell{Kind: KindLiteral, Literal: dict}, nil
	case "reference":
		if v.Nested == nil {
			return Nested(nil), nil
		}
		nested, err := fromWire(v.Nested)
		if err != nil {
			return Cell{}, err
		}
		return Nested(nested), nil
	default:
		return Cell{}, fmt.Errorf("reference: unknown wire value kind %q", v.Kind)
	}
}
