package testutil

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestGrid_Shape(t *testing.T) {
	t.Parallel()

	m := Grid("g", 4, 3, 2, nil)
	if got := m.NumPoints(); got != 12 {
		t.Fatalf("points = %d, want 12", got)
	}
	if got := len(m.Faces); got != 2*3*2 {
		t.Fatalf("faces = %d, want 12", got)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := r3.Vec{X: 6, Y: 4, Z: 0}
	if got := m.Extent(); got != want {
		t.Errorf("extent = %+v, want %+v", got, want)
	}
}

func TestBox_Bounds(t *testing.T) {
	t.Parallel()

	lo, hi := r3.Vec{X: -1, Y: -2, Z: -3}, r3.Vec{X: 1, Y: 2, Z: 3}
	m := Box("b", lo, hi)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	b := m.Bounds()
	if b.Min != lo || b.Max != hi {
		t.Errorf("bounds = %+v, want [%+v, %+v]", b, lo, hi)
	}
}

func TestConstant(t *testing.T) {
	t.Parallel()

	vals, err := Constant(0.25)(FlatGrid(3, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vals) != 9 {
		t.Fatalf("len = %d, want 9", len(vals))
	}
	for i, v := range vals {
		if v != 0.25 {
			t.Errorf("vals[%d] = %f, want 0.25", i, v)
		}
	}
}
