package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// RGB is an 8-bit-per-channel display colour.
type RGB [3]uint8

// Mesh is an indexed triangle surface.
type Mesh struct {
	// Name is informational, usually the source filename.
	Name string

	Points []r3.Vec
	Faces  [][3]int

	// RGB is the per-point colour attribute written by the classifier.
	// It is nil until a colouring has been attached and, when set, has
	// exactly one entry per point.
	RGB []RGB
}

// New builds a mesh from points and faces. The slices are used as-is.
func New(name string, points []r3.Vec, faces [][3]int) *Mesh {
	return &Mesh{Name: name, Points: points, Faces: faces}
}

// NumPoints returns the number of points. A nil mesh has zero points.
func (m *Mesh) NumPoints() int {
	if m == nil {
		return 0
	}
	return len(m.Points)
}

// Validate checks that every face references an existing point.
func (m *Mesh) Validate() error {
	n := len(m.Points)
	for fi, f := range m.Faces {
		for _, vi := range f {
			if vi < 0 || vi >= n {
				return fmt.Errorf("face %d references point %d, mesh has %d points", fi, vi, n)
			}
		}
	}
	if m.RGB != nil && len(m.RGB) != n {
		return fmt.Errorf("rgb attribute has %d entries, mesh has %d points", len(m.RGB), n)
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of the points.
// An empty mesh returns the zero Box.
func (m *Mesh) Bounds() r3.Box {
	if m.NumPoints() == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: m.Points[0], Max: m.Points[0]}
	for _, p := range m.Points[1:] {
		b.Min.X = min(b.Min.X, p.X)
		b.Min.Y = min(b.Min.Y, p.Y)
		b.Min.Z = min(b.Min.Z, p.Z)
		b.Max.X = max(b.Max.X, p.X)
		b.Max.Y = max(b.Max.Y, p.Y)
		b.Max.Z = max(b.Max.Z, p.Z)
	}
	return b
}

// Extent returns max-min of the bounding box on each axis.
func (m *Mesh) Extent() r3.Vec {
	return m.Bounds().Size()
}

// Center returns the midpoint of the bounding box.
func (m *Mesh) Center() r3.Vec {
	return m.Bounds().Center()
}

// Heights returns a fresh slice holding the Z coordinate of every point.
func (m *Mesh) Heights() []float64 {
	z := make([]float64, m.NumPoints())
	for i, p := range m.Points {
		z[i] = p.Z
	}
	return z
}

// Clone returns a deep copy, including the RGB attribute when present.
func (m *Mesh) Clone() *Mesh {
	if m == nil {
		return nil
	}
	c := &Mesh{Name: m.Name}
	c.Points = append(make([]r3.Vec, 0, len(m.Points)), m.Points...)
	c.Faces = append(make([][3]int, 0, len(m.Faces)), m.Faces...)
	if m.RGB != nil {
		c.RGB = append(make([]RGB, 0, len(m.RGB)), m.RGB...)
	}
	return c
}

// Scale multiplies every point component-wise by f, about the origin.
func (m *Mesh) Scale(f r3.Vec) {
	for i, p := range m.Points {
		m.Points[i] = r3.Vec{X: p.X * f.X, Y: p.Y * f.Y, Z: p.Z * f.Z}
	}
}

// Translate adds d to every point.
func (m *Mesh) Translate(d r3.Vec) {
	for i, p := range m.Points {
		m.Points[i] = r3.Add(p, d)
	}
}
