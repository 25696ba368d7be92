package align

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/jawviewer/internal/mesh"
	"github.com/banshee-data/jawviewer/internal/testutil"
)

const tol = 1e-9

func TestScaleFactors(t *testing.T) {
	t.Parallel()

	got := ScaleFactors(r3.Vec{X: 4, Y: 6, Z: 8}, r3.Vec{X: 2, Y: 3, Z: 0}, 1e-9)
	assert.InDelta(t, 2, got.X, tol)
	assert.InDelta(t, 2, got.Y, tol)
	assert.InDelta(t, 8e9, got.Z, 1)
	assert.False(t, math.IsInf(got.Z, 0))
}

func TestNormalize_ExtentsMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		upper *mesh.Mesh
		lower *mesh.Mesh
	}{
		{
			name:  "boxes",
			upper: testutil.Box("u", r3.Vec{X: -5, Y: 0, Z: 2}, r3.Vec{X: 5, Y: 3, Z: 9}),
			lower: testutil.Box("l", r3.Vec{X: 10, Y: 10, Z: 10}, r3.Vec{X: 12, Y: 17, Z: 11}),
		},
		{
			name:  "grids",
			upper: testutil.BumpyGrid(8, 6),
			lower: testutil.Grid("l", 5, 9, 0.3, func(x, y float64) float64 { return x*y - 1 }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, low, tr := Normalize(tt.upper, tt.lower, DefaultParams())
			assert.True(t, testutil.ApproxEqualVec(up.Extent(), low.Extent(), 1e-9),
				"upper extent %+v, lower extent %+v", up.Extent(), low.Extent())
			assert.Equal(t, DefaultParams().UpperNudge, tr.UpperShift)
		})
	}
}

func TestNormalize_Pose(t *testing.T) {
	t.Parallel()

	upper := testutil.Box("u", r3.Vec{X: 0, Y: 0, Z: 0}, r3.Vec{X: 10, Y: 4, Z: 2})
	lower := testutil.Box("l", r3.Vec{X: 100, Y: 50, Z: 20}, r3.Vec{X: 105, Y: 52, Z: 21})
	p := DefaultParams()

	up, low, _ := Normalize(upper, lower, p)

	// Upper moved by the nudge only.
	wantUpperCenter := r3.Add(upper.Center(), p.UpperNudge)
	assert.True(t, testutil.ApproxEqualVec(wantUpperCenter, up.Center(), tol))

	// Lower is centred on the original upper centre, dropped by the bite gap.
	wantLowerCenter := upper.Center()
	wantLowerCenter.Y += p.BiteGapY
	assert.True(t, testutil.ApproxEqualVec(wantLowerCenter, low.Center(), tol),
		"lower centre %+v, want %+v", low.Center(), wantLowerCenter)
}

func TestNormalize_InputsUntouched(t *testing.T) {
	t.Parallel()

	upper := testutil.RampGrid(4, 4)
	lower := testutil.BumpyGrid(4, 4)
	upperBefore := upper.Clone()
	lowerBefore := lower.Clone()

	Normalize(upper, lower, DefaultParams())

	assert.Equal(t, upperBefore.Points, upper.Points)
	assert.Equal(t, lowerBefore.Points, lower.Points)
}

func TestNormalize_UpperNudgeDeterministic(t *testing.T) {
	t.Parallel()

	upper := testutil.BumpyGrid(5, 5)
	lower := testutil.FlatGrid(5, 5)
	p := DefaultParams()

	upA, _, _ := Normalize(upper.Clone(), lower.Clone(), p)
	upB, _, _ := Normalize(upper.Clone(), lower.Clone(), p)

	for i := range upper.Points {
		dA := r3.Sub(upA.Points[i], upper.Points[i])
		dB := r3.Sub(upB.Points[i], upper.Points[i])
		require.True(t, testutil.ApproxEqualVec(dA, dB, 0))
		require.True(t, testutil.ApproxEqualVec(dA, p.UpperNudge, tol))
	}
}

func TestNormalize_DegenerateLowerAxis(t *testing.T) {
	t.Parallel()

	// Flat lower surface has zero Z extent.
	upper := testutil.BumpyGrid(6, 6)
	lower := testutil.FlatGrid(6, 6)

	_, low, tr := Normalize(upper, lower, DefaultParams())

	for _, v := range []float64{tr.LowerScale.X, tr.LowerScale.Y, tr.LowerScale.Z} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	for _, pt := range low.Points {
		assert.False(t, math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsNaN(pt.Z))
	}
}

func TestNormalize_KeepsColours(t *testing.T) {
	t.Parallel()

	upper := testutil.FlatGrid(2, 2)
	upper.RGB = []mesh.RGB{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}, {4, 4, 4}}
	up, _, _ := Normalize(upper, testutil.RampGrid(2, 2), DefaultParams())
	assert.Equal(t, upper.RGB, up.RGB)
}
