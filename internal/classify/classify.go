// Package classify splits the points of a dental surface into tooth and gum
// and paints them with display colours.
//
// The decision is a three-tier chain. Curvature is tried first; when it is
// unavailable or gives no useful split, height is tried; when that also fails
// the highest fraction of points by Z is taken. Every decision records which
// tier produced it.
package classify

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/jawviewer/internal/mesh"
)

// Source tags the tier that produced a mask.
type Source int

const (
	// SourceNone is used only for meshes with no points.
	SourceNone Source = iota
	SourceCurvature
	SourceHeight
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceCurvature:
		return "curvature"
	case SourceHeight:
		return "height"
	case SourceFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Params holds the classifier tuning.
type Params struct {
	// CurvaturePercentile is the fraction of finite |curvature| values at or
	// below the tooth threshold.
	CurvaturePercentile float64
	// HeightPercentile is the same for Z.
	HeightPercentile float64
	// FallbackTopFraction is the share of points, highest Z first, marked
	// tooth by the last tier.
	FallbackTopFraction float64

	ToothRGB mesh.RGB
	GumRGB   mesh.RGB

	// Curvature computes the per-point field. Nil disables the curvature tier.
	Curvature mesh.CurvatureFunc
}

// DefaultParams returns 65th percentile curvature, 60th percentile height,
// a 40% fallback, white teeth, pink gums and mean curvature.
func DefaultParams() Params {
	return Params{
		CurvaturePercentile: 0.65,
		HeightPercentile:    0.60,
		FallbackTopFraction: 0.40,
		ToothRGB:            mesh.RGB{255, 255, 255},
		GumRGB:              mesh.RGB{242, 153, 153},
		Curvature:           mesh.MeanCurvature,
	}
}

// Validate checks that the fractions are usable.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"curvature percentile", p.CurvaturePercentile},
		{"height percentile", p.HeightPercentile},
		{"fallback top fraction", p.FallbackTopFraction},
	} {
		if !(f.v > 0 && f.v <= 1) {
			return fmt.Errorf("%s must be in (0, 1], got %v", f.name, f.v)
		}
	}
	return nil
}

// Decision is the outcome of Decide.
type Decision struct {
	Source Source
	// Mask is true for tooth points. It has one entry per mesh point.
	Mask []bool
	// Threshold is the percentile value used by the curvature or height
	// tier. It is NaN for the fallback tier.
	Threshold float64
	// Teeth is the number of true entries in Mask.
	Teeth int
	// CurvatureErr is set when the curvature field could not be computed.
	// It never stops classification.
	CurvatureErr error
}

// ToothFraction returns Teeth as a share of all points, or 0 for an empty
// mask.
func (d Decision) ToothFraction() float64 {
	if len(d.Mask) == 0 {
		return 0
	}
	return float64(d.Teeth) / float64(len(d.Mask))
}

// Decide runs the tier chain on m. It never fails; an empty mesh yields an
// empty mask with SourceNone.
func Decide(m *mesh.Mesh, p Params) Decision {
	n := m.NumPoints()
	if n == 0 {
		return Decision{Source: SourceNone, Mask: []bool{}, Threshold: math.NaN()}
	}

	var d Decision
	if p.Curvature != nil {
		curv, err := p.Curvature(m)
		switch {
		case err != nil:
			d.CurvatureErr = err
		case len(curv) != n:
			d.CurvatureErr = fmt.Errorf("curvature field has %d values, mesh has %d points", len(curv), n)
		default:
			abs := make([]float64, n)
			for i, c := range curv {
				abs[i] = math.Abs(c)
			}
			if mask, thr, ok := percentileMask(abs, p.CurvaturePercentile); ok {
				d.Source, d.Mask, d.Threshold = SourceCurvature, mask, thr
			}
		}
	}

	if d.Mask == nil {
		if mask, thr, ok := percentileMask(m.Heights(), p.HeightPercentile); ok {
			d.Source, d.Mask, d.Threshold = SourceHeight, mask, thr
		}
	}

	if d.Mask == nil {
		d.Source = SourceFallback
		d.Mask = topFraction(m.Heights(), p.FallbackTopFraction)
		d.Threshold = math.NaN()
	}

	d.Teeth = countTrue(d.Mask)
	return d
}

// percentileMask marks values at or above the p-quantile of the finite
// values. Non-finite values are never marked. ok is false when no
// finite value exists or the mask selects none or all of the points.
func percentileMask(values []float64, p float64) (mask []bool, threshold float64, ok bool) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return nil, math.NaN(), false
	}
	sort.Float64s(finite)
	threshold = quantile(finite, clampFraction(p))

	mask = make([]bool, len(values))
	count := 0
	for i, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v >= threshold {
			mask[i] = true
			count++
		}
	}
	if count == 0 || count == len(values) {
		return nil, threshold, false
	}
	return mask, threshold, true
}

// quantile interpolates linearly between the order statistics either side of
// position (n-1)*p in sorted, which must be non-empty.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// topFraction marks the int(frac*n) highest values, at least one.
// NaN heights sort first and are therefore never picked ahead of real ones.
func topFraction(z []float64, frac float64) []bool {
	n := len(z)
	mask := make([]bool, n)
	if n == 0 {
		return mask
	}
	k := max(1, int(clampFraction(frac)*float64(n)))

	sorted := append([]float64(nil), z...)
	for i, v := range sorted {
		if math.IsNaN(v) {
			sorted[i] = math.Inf(-1)
		}
	}
	inds := make([]int, n)
	floats.Argsort(sorted, inds)
	for _, i := range inds[n-k:] {
		mask[i] = true
	}
	return mask
}

func clampFraction(f float64) float64 {
	if math.IsNaN(f) {
		return 1
	}
	return min(1, max(0, f))
}

func countTrue(mask []bool) int {
	c := 0
	for _, b := range mask {
		if b {
			c++
		}
	}
	return c
}

// Colorize returns a copy of m with the RGB attribute set from the decision.
// Geometry is copied unchanged; m itself is not modified.
func Colorize(m *mesh.Mesh, p Params) (*mesh.Mesh, Decision) {
	d := Decide(m, p)
	out := m.Clone()
	if out == nil {
		out = &mesh.Mesh{}
	}
	out.RGB = Paint(d.Mask, p.ToothRGB, p.GumRGB)
	return out, d
}

// Paint maps a mask to colours.
func Paint(mask []bool, tooth, gum mesh.RGB) []mesh.RGB {
	rgb := make([]mesh.RGB, len(mask))
	for i, t := range mask {
		if t {
			rgb[i] = tooth
		} else {
			rgb[i] = gum
		}
	}
	return rgb
}
