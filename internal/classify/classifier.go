package classify

import (
	"github.com/banshee-data/jawviewer/internal/mesh"
)

// Classifier wraps Colorize and keeps per-tier counters for tuning.
// It is not safe for concurrent use.
type Classifier struct {
	Params Params

	// Statistics
	meshesProcessed int64
	bySource        [SourceFallback + 1]int64
	curvatureErrors int64
	pointsProcessed int64
	pointsTooth     int64
}

// NewClassifier builds a classifier with p.
func NewClassifier(p Params) *Classifier {
	return &Classifier{Params: p}
}

// DefaultClassifier uses DefaultParams.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultParams())
}

// Classify colours a copy of m and updates the counters.
func (c *Classifier) Classify(m *mesh.Mesh) (*mesh.Mesh, Decision) {
	out, d := Colorize(m, c.Params)
	c.meshesProcessed++
	c.bySource[d.Source]++
	if d.CurvatureErr != nil {
		c.curvatureErrors++
	}
	c.pointsProcessed += int64(len(d.Mask))
	c.pointsTooth += int64(d.Teeth)
	return out, d
}

// Stats is a snapshot of the classifier counters.
type Stats struct {
	Meshes          int64
	Empty           int64
	Curvature       int64
	Height          int64
	Fallback        int64
	CurvatureErrors int64
	Points          int64
	ToothPoints     int64
}

// Stats returns the counters accumulated since the last reset.
func (c *Classifier) Stats() Stats {
	return Stats{
		Meshes:          c.meshesProcessed,
		Empty:           c.bySource[SourceNone],
		Curvature:       c.bySource[SourceCurvature],
		Height:          c.bySource[SourceHeight],
		Fallback:        c.bySource[SourceFallback],
		CurvatureErrors: c.curvatureErrors,
		Points:          c.pointsProcessed,
		ToothPoints:     c.pointsTooth,
	}
}

// ResetStats clears accumulated statistics counters.
func (c *Classifier) ResetStats() {
	c.meshesProcessed = 0
	c.bySource = [SourceFallback + 1]int64{}
	c.curvatureErrors = 0
	c.pointsProcessed = 0
	c.pointsTooth = 0
}
