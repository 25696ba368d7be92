// Package testutil provides shared test fixtures.
//
// Meshes are generated in code so no binary fixtures live in the tree.
package testutil

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/jawviewer/internal/mesh"
)

// Grid builds an nx by ny vertex grid over [0, (nx-1)*step] x [0, (ny-1)*step]
// with Z = height(x, y), triangulated with two faces per cell. Winding is
// counter-clockwise seen from +Z.
func Grid(name string, nx, ny int, step float64, height func(x, y float64) float64) *mesh.Mesh {
	if height == nil {
		height = func(float64, float64) float64 { return 0 }
	}
	points := make([]r3.Vec, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			x, y := float64(i)*step, float64(j)*step
			points = append(points, r3.Vec{X: x, Y: y, Z: height(x, y)})
		}
	}
	var faces [][3]int
	for j := 0; j+1 < ny; j++ {
		for i := 0; i+1 < nx; i++ {
			a := j*nx + i
			b := a + 1
			c := a + nx
			d := c + 1
			faces = append(faces, [3]int{a, b, d}, [3]int{a, d, c})
		}
	}
	return mesh.New(name, points, faces)
}

// FlatGrid is a Grid at constant height.
func FlatGrid(nx, ny int) *mesh.Mesh {
	return Grid("flat", nx, ny, 1, nil)
}

// RampGrid is a Grid whose height rises linearly along X.
func RampGrid(nx, ny int) *mesh.Mesh {
	return Grid("ramp", nx, ny, 1, func(x, _ float64) float64 { return 0.5 * x })
}

// BumpyGrid is a Grid with a smooth periodic bump pattern, giving a spread
// of curvature values.
func BumpyGrid(nx, ny int) *mesh.Mesh {
	return Grid("bumpy", nx, ny, 1, func(x, y float64) float64 {
		return 2 * math.Sin(x*0.9) * math.Cos(y*0.7)
	})
}

// Box returns the eight corners of an axis-aligned box with twelve outward
// facing triangles.
func Box(name string, lo, hi r3.Vec) *mesh.Mesh {
	points := []r3.Vec{
		{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z}, {X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z}, {X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z}, {X: lo.X, Y: hi.Y, Z: hi.Z},
	}
	faces := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{1, 2, 6}, {1, 6, 5}, // right
		{2, 3, 7}, {2, 7, 6}, // back
		{3, 0, 4}, {3, 4, 7}, // left
	}
	return mesh.New(name, points, faces)
}

// Constant returns a curvature function that reports the same value for
// every point.
func Constant(v float64) mesh.CurvatureFunc {
	return func(m *mesh.Mesh) ([]float64, error) {
		out := make([]float64, m.NumPoints())
		for i := range out {
			out[i] = v
		}
		return out, nil
	}
}

// ApproxEqualVec reports whether a and b agree within tol on every axis.
func ApproxEqualVec(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}
