package viewer

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/jawviewer/internal/classify"
	"github.com/banshee-data/jawviewer/internal/mesh"
	"github.com/banshee-data/jawviewer/internal/render"
	"github.com/banshee-data/jawviewer/internal/store"
)

// chartSeries is one coloured group of points of a surface.
type chartSeries struct {
	Name  string
	Color mesh.RGB
	Data  []opts.ScatterData
}

// splitSurface divides the points of m into tooth and gum series by
// comparing each point's colour with tooth.
func splitSurface(role string, m *mesh.Mesh, tooth mesh.RGB, maxPoints int) (teeth, gum chartSeries) {
	teeth = chartSeries{Name: role + " tooth", Color: tooth}
	gum = chartSeries{Name: role + " gum"}
	for _, s := range render.Samples(maxPoints, m) {
		v := opts.ScatterData{Value: []interface{}{s.X, s.Y}}
		if s.Color == tooth {
			teeth.Data = append(teeth.Data, v)
			continue
		}
		gum.Color = s.Color
		gum.Data = append(gum.Data, v)
	}
	return teeth, gum
}

// pairBounds is the bounding box of both surfaces of p.
func pairBounds(p store.Pair) r3.Box {
	var b r3.Box
	first := true
	for _, m := range []*mesh.Mesh{p.Upper.Mesh, p.Lower.Mesh} {
		if m.NumPoints() == 0 {
			continue
		}
		mb := m.Bounds()
		if first {
			b, first = mb, false
			continue
		}
		b.Min = r3.Vec{X: min(b.Min.X, mb.Min.X), Y: min(b.Min.Y, mb.Min.Y), Z: min(b.Min.Z, mb.Min.Z)}
		b.Max = r3.Vec{X: max(b.Max.X, mb.Max.X), Y: max(b.Max.Y, mb.Max.Y), Z: max(b.Max.Z, mb.Max.Z)}
	}
	return b
}

func hexColor(c mesh.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// handlePairChart renders an interactive XY scatter of one pair with tooth
// and gum points as separate series. Both axes share one range so the arch
// keeps its shape.
// Query params:
//   - index (optional; defaults to the cursor)
//   - max_points (optional; default from the render options)
func (s *Server) handlePairChart(w http.ResponseWriter, r *http.Request) {
	idx, p, err := s.pairFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	maxPoints := s.render.MaxPoints
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		var v int
		if _, err := fmt.Sscanf(mp, "%d", &v); err == nil && v > 100 && v <= 200000 {
			maxPoints = v
		}
	}

	bounds := pairBounds(p)
	half := math.Max(bounds.Max.X-bounds.Min.X, bounds.Max.Y-bounds.Min.Y) / 2 * 1.05
	if half == 0 || math.IsNaN(half) {
		half = 1
	}
	cx, cy := (bounds.Min.X+bounds.Max.X)/2, (bounds.Min.Y+bounds.Max.Y)/2

	var series []chartSeries
	for _, surf := range []struct {
		role string
		m    *mesh.Mesh
	}{{"upper", p.Upper.Mesh}, {"lower", p.Lower.Mesh}} {
		teeth, gum := splitSurface(surf.role, surf.m, s.tooth, maxPoints/2)
		series = append(series, teeth, gum)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Jaw Viewer", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Pair: %d [%d/%d]", p.CaseID, idx+1, s.cursor.Store().Len()),
			Subtitle: fmt.Sprintf("%s (%s) / %s (%s)", p.Upper.File, p.Upper.Source, p.Lower.File, p.Lower.Source),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: cx - half, Max: cx + half, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: cy - half, Max: cy + half, Name: "Y", NameLocation: "middle", NameGap: 30}),
	)
	for _, cs := range series {
		if len(cs.Data) == 0 {
			continue
		}
		scatter.AddSeries(cs.Name, cs.Data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(cs.Color)}))
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// TierCounts tallies which classification tier produced each surface's mask.
type TierCounts struct {
	Upper map[classify.Source]int
	Lower map[classify.Source]int
}

// CountTiers tallies the classification tiers across st.
func CountTiers(st *store.Store) TierCounts {
	tc := TierCounts{Upper: map[classify.Source]int{}, Lower: map[classify.Source]int{}}
	for _, p := range st.Pairs() {
		tc.Upper[p.Upper.Source]++
		tc.Lower[p.Lower.Source]++
	}
	return tc
}

var tierOrder = []classify.Source{classify.SourceCurvature, classify.SourceHeight, classify.SourceFallback}

// handleTierChart renders a bar chart of classification tiers per role.
func (s *Server) handleTierChart(w http.ResponseWriter, r *http.Request) {
	st := s.cursor.Store()
	if st.Empty() {
		writeError(w, store.ErrNoPairs)
		return
	}
	tc := CountTiers(st)

	labels := make([]string, len(tierOrder))
	upper := make([]opts.BarData, len(tierOrder))
	lower := make([]opts.BarData, len(tierOrder))
	for i, src := range tierOrder {
		labels[i] = src.String()
		upper[i] = opts.BarData{Value: tc.Upper[src]}
		lower[i] = opts.BarData{Value: tc.Lower[src]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Classification tiers", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Classification tiers", Subtitle: fmt.Sprintf("%d pairs", st.Len())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("upper", upper).
		AddSeries("lower", lower)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
