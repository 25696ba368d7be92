// Package align puts an upper/lower arch pair into a shared viewing pose.
//
// The transform is a heuristic: the lower arch is stretched per axis until
// its bounding box matches the upper one, then moved so the box centres line
// up with a fixed vertical bite gap. It does not attempt registration.
package align

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/jawviewer/internal/mesh"
)

// Params controls the normalisation. All values are tunable constants, not
// derived from the meshes.
type Params struct {
	// Epsilon replaces zero-length lower extents before dividing.
	Epsilon float64
	// BiteGapY is added to the Y component of the lower mesh translation.
	BiteGapY float64
	// UpperNudge is a fixed offset applied to the upper mesh for framing.
	UpperNudge r3.Vec
}

// DefaultParams returns the stock constants: epsilon 1e-9, bite gap -8 on Y,
// upper nudge (-1, +1, +3).
func DefaultParams() Params {
	return Params{
		Epsilon:    1e-9,
		BiteGapY:   -8,
		UpperNudge: r3.Vec{X: -1, Y: 1, Z: 3},
	}
}

// Transform records what Normalize applied.
type Transform struct {
	LowerScale r3.Vec
	LowerShift r3.Vec
	UpperShift r3.Vec
}

// ScaleFactors returns upper/lower per axis, substituting eps for any zero
// lower component.
func ScaleFactors(upperExtent, lowerExtent r3.Vec, eps float64) r3.Vec {
	guard := func(v float64) float64 {
		if v == 0 {
			return eps
		}
		return v
	}
	return r3.Vec{
		X: upperExtent.X / guard(lowerExtent.X),
		Y: upperExtent.Y / guard(lowerExtent.Y),
		Z: upperExtent.Z / guard(lowerExtent.Z),
	}
}

// Normalize returns transformed copies of upper and lower; the inputs are not
// modified. Steps, in order:
//
//  1. scale lower about the origin by upperExtent/lowerExtent per axis
//  2. shift lower by center(upper) - center(lower), plus BiteGapY on Y
//  3. shift upper by UpperNudge
//
// Centres are bounding-box midpoints, taken after the lower scale and before
// the upper nudge. The per-point RGB attribute is carried over untouched.
func Normalize(upper, lower *mesh.Mesh, p Params) (*mesh.Mesh, *mesh.Mesh, Transform) {
	up := upper.Clone()
	low := lower.Clone()

	var t Transform
	t.LowerScale = ScaleFactors(up.Extent(), low.Extent(), p.Epsilon)
	low.Scale(t.LowerScale)

	t.LowerShift = r3.Sub(up.Center(), low.Center())
	t.LowerShift.Y += p.BiteGapY
	low.Translate(t.LowerShift)

	t.UpperShift = p.UpperNudge
	up.Translate(t.UpperShift)

	return up, low, t
}
