// Package render draws off-screen snapshots of a pair.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/jawviewer/internal/mesh"
	"github.com/banshee-data/jawviewer/internal/store"
)

// Camera names the projection used for a snapshot. Only "xy" exists.
const Camera = "xy"

// Options controls the snapshot.
type Options struct {
	// SizePx is the width and height of the PNG in pixels.
	SizePx int
	// MaxPoints caps the number of points drawn. Zero or less draws all.
	MaxPoints int
	// PointRadius is the glyph radius in pixels.
	PointRadius float64
	// Title is drawn above the plot when non-empty.
	Title string
}

// DefaultOptions matches the viewer defaults.
func DefaultOptions() Options {
	return Options{SizePx: 900, MaxPoints: 60000, PointRadius: 1.5}
}

// uncoloured is used for surfaces without an RGB attribute.
var uncoloured = mesh.RGB{160, 160, 160}

// Sample is one projected point with its display colour.
type Sample struct {
	X, Y, Z float64
	Color   mesh.RGB
}

// Snapshot renders both surfaces of p projected onto the XY plane and
// writes a PNG to w. Points are painted with their RGB attribute and drawn
// in ascending Z order so nearer points overdraw farther ones.
func Snapshot(w io.Writer, p store.Pair, opts Options) error {
	if opts.SizePx <= 0 {
		opts.SizePx = DefaultOptions().SizePx
	}
	if opts.PointRadius <= 0 {
		opts.PointRadius = DefaultOptions().PointRadius
	}

	samples := Samples(opts.MaxPoints, p.Upper.Mesh, p.Lower.Mesh)

	xys := make(plotter.XYs, len(samples))
	colors := make([]color.Color, len(samples))
	for i, s := range samples {
		xys[i].X, xys[i].Y = s.X, s.Y
		colors[i] = color.RGBA{R: s.Color[0], G: s.Color[1], B: s.Color[2], A: 255}
	}

	plt := plot.New()
	plt.BackgroundColor = color.White
	plt.HideAxes()
	if opts.Title != "" {
		plt.Title.Text = opts.Title
	}

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("case %d: scatter: %w", p.CaseID, err)
	}
	radius := vg.Points(opts.PointRadius)
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: colors[i], Radius: radius, Shape: draw.CircleGlyph{}}
	}
	plt.Add(scatter)
	squareRange(plt, xys)

	// 72 DPI makes one point one pixel.
	size := vg.Points(float64(opts.SizePx))
	canvas := vgimg.NewWith(vgimg.UseWH(size, size), vgimg.UseDPI(72))
	plt.Draw(draw.New(canvas))
	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(w); err != nil {
		return fmt.Errorf("case %d: write png: %w", p.CaseID, err)
	}
	return nil
}

// Samples gathers the finite points of the given meshes, strides them down
// to at most maxPoints (when positive) and sorts them by ascending Z.
func Samples(maxPoints int, meshes ...*mesh.Mesh) []Sample {
	total := 0
	for _, m := range meshes {
		total += m.NumPoints()
	}
	stride := 1
	if maxPoints > 0 && total > maxPoints {
		stride = (total + maxPoints - 1) / maxPoints
	}

	out := make([]Sample, 0, total/stride+1)
	k := 0
	for _, m := range meshes {
		for i := 0; i < m.NumPoints(); i++ {
			take := k%stride == 0
			k++
			if !take {
				continue
			}
			pt := m.Points[i]
			if !finite(pt.X) || !finite(pt.Y) || !finite(pt.Z) {
				continue
			}
			c := uncoloured
			if len(m.RGB) == len(m.Points) {
				c = m.RGB[i]
			}
			out = append(out, Sample{X: pt.X, Y: pt.Y, Z: pt.Z, Color: c})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Z < out[b].Z })
	return out
}

// squareRange gives both axes the same span so the projection keeps its
// aspect ratio.
func squareRange(plt *plot.Plot, xys plotter.XYs) {
	if len(xys) == 0 {
		plt.X.Min, plt.X.Max = -1, 1
		plt.Y.Min, plt.Y.Max = -1, 1
		return
	}
	xmin, xmax, ymin, ymax := plotter.XYRange(xys)
	half := math.Max(xmax-xmin, ymax-ymin)/2*1.05 + 1e-9
	cx, cy := (xmin+xmax)/2, (ymin+ymax)/2
	plt.X.Min, plt.X.Max = cx-half, cx+half
	plt.Y.Min, plt.Y.Max = cy-half, cy+half
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
