package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/jawviewer/internal/align"
	"github.com/banshee-data/jawviewer/internal/casefile"
	"github.com/banshee-data/jawviewer/internal/classify"
	"github.com/banshee-data/jawviewer/internal/mesh"
)

// DefaultConfigPath is the path to the canonical viewer defaults file.
const DefaultConfigPath = "config/viewer.defaults.json"

// Curvature estimators selectable by curvature_method.
const (
	CurvatureMean = "mean"
	CurvaturePCA  = "pca"
)

// ViewerConfig holds every tunable constant of the pairing, alignment and
// classification pipeline plus snapshot rendering. All fields are optional;
// the Get* methods supply defaults for anything left unset.
type ViewerConfig struct {
	// Pairing
	UpperKeywords    []string `json:"upper_keywords,omitempty"`
	LowerKeywords    []string `json:"lower_keywords,omitempty"`
	SurfaceExtension *string  `json:"surface_extension,omitempty"`

	// Classification
	CurvatureMethod     *string   `json:"curvature_method,omitempty"`
	CurvaturePercentile *float64  `json:"curvature_percentile,omitempty"`
	HeightPercentile    *float64  `json:"height_percentile,omitempty"`
	FallbackTopFraction *float64  `json:"fallback_top_fraction,omitempty"`
	ToothRGB            *[3]uint8 `json:"tooth_rgb,omitempty"`
	GumRGB              *[3]uint8 `json:"gum_rgb,omitempty"`

	// Alignment
	BiteGapY      *float64  `json:"bite_gap_y,omitempty"`
	UpperNudge    []float64 `json:"upper_nudge,omitempty"` // [x, y, z]
	ExtentEpsilon *float64  `json:"extent_epsilon,omitempty"`

	// Snapshots
	SnapshotSizePx    *int `json:"snapshot_size_px,omitempty"`
	SnapshotMaxPoints *int `json:"snapshot_max_points,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrRGB(v mesh.RGB) *[3]uint8   { c := [3]uint8(v); return &c }

// EmptyViewerConfig returns a ViewerConfig with every field unset.
func EmptyViewerConfig() *ViewerConfig {
	return &ViewerConfig{}
}

// DefaultViewerConfig returns a config with every field populated from the
// in-code defaults.
func DefaultViewerConfig() *ViewerConfig {
	e := EmptyViewerConfig()
	kw := e.KeywordSet()
	n := e.GetUpperNudge()
	return &ViewerConfig{
		UpperKeywords:       kw.Upper,
		LowerKeywords:       kw.Lower,
		SurfaceExtension:    ptrString(e.GetSurfaceExtension()),
		CurvatureMethod:     ptrString(e.GetCurvatureMethod()),
		CurvaturePercentile: ptrFloat64(e.GetCurvaturePercentile()),
		HeightPercentile:    ptrFloat64(e.GetHeightPercentile()),
		FallbackTopFraction: ptrFloat64(e.GetFallbackTopFraction()),
		ToothRGB:            ptrRGB(e.GetToothRGB()),
		GumRGB:              ptrRGB(e.GetGumRGB()),
		BiteGapY:            ptrFloat64(e.GetBiteGapY()),
		UpperNudge:          []float64{n.X, n.Y, n.Z},
		ExtentEpsilon:       ptrFloat64(e.GetExtentEpsilon()),
		SnapshotSizePx:      ptrInt(e.GetSnapshotSizePx()),
		SnapshotMaxPoints:   ptrInt(e.GetSnapshotMaxPoints()),
	}
}

// LoadViewerConfig loads a ViewerConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file fall back to defaults, so partial configs are safe.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyViewerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it is non-empty and returns the defaults
// otherwise.
func LoadOrDefault(path string) (*ViewerConfig, error) {
	if path == "" {
		return DefaultViewerConfig(), nil
	}
	return LoadViewerConfig(path)
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *ViewerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadViewerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the set values are usable.
func (c *ViewerConfig) Validate() error {
	for _, f := range []struct {
		key string
		v   *float64
	}{
		{"curvature_percentile", c.CurvaturePercentile},
		{"height_percentile", c.HeightPercentile},
		{"fallback_top_fraction", c.FallbackTopFraction},
	} {
		if f.v != nil && !(*f.v > 0 && *f.v <= 1) {
			return fmt.Errorf("%s must be in (0, 1], got %v", f.key, *f.v)
		}
	}

	if c.ExtentEpsilon != nil && !(*c.ExtentEpsilon > 0) {
		return fmt.Errorf("extent_epsilon must be positive, got %v", *c.ExtentEpsilon)
	}
	if c.BiteGapY != nil && (math.IsNaN(*c.BiteGapY) || math.IsInf(*c.BiteGapY, 0)) {
		return fmt.Errorf("bite_gap_y must be finite")
	}

	if c.UpperKeywords != nil && !hasKeyword(c.UpperKeywords) {
		return fmt.Errorf("upper_keywords must contain at least one non-blank keyword")
	}
	if c.LowerKeywords != nil && !hasKeyword(c.LowerKeywords) {
		return fmt.Errorf("lower_keywords must contain at least one non-blank keyword")
	}

	if c.SurfaceExtension != nil {
		ext := *c.SurfaceExtension
		if len(ext) < 2 || !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("surface_extension must start with '.', got %q", ext)
		}
	}

	if c.CurvatureMethod != nil {
		switch *c.CurvatureMethod {
		case CurvatureMean, CurvaturePCA:
		default:
			return fmt.Errorf("unknown curvature_method %q (want %q or %q)", *c.CurvatureMethod, CurvatureMean, CurvaturePCA)
		}
	}

	if c.UpperNudge != nil && len(c.UpperNudge) != 3 {
		return fmt.Errorf("upper_nudge must have 3 components, got %d", len(c.UpperNudge))
	}

	if c.SnapshotSizePx != nil && *c.SnapshotSizePx < 64 {
		return fmt.Errorf("snapshot_size_px must be at least 64, got %d", *c.SnapshotSizePx)
	}
	if c.SnapshotMaxPoints != nil && *c.SnapshotMaxPoints < 1 {
		return fmt.Errorf("snapshot_max_points must be positive, got %d", *c.SnapshotMaxPoints)
	}
	return nil
}

func hasKeyword(kw []string) bool {
	for _, k := range kw {
		if strings.TrimSpace(k) != "" {
			return true
		}
	}
	return false
}

// GetSurfaceExtension returns the accepted surface file extension.
func (c *ViewerConfig) GetSurfaceExtension() string {
	if c.SurfaceExtension == nil || *c.SurfaceExtension == "" {
		return ".stl"
	}
	return *c.SurfaceExtension
}

// GetCurvatureMethod returns "mean" or "pca".
func (c *ViewerConfig) GetCurvatureMethod() string {
	if c.CurvatureMethod == nil || *c.CurvatureMethod == "" {
		return CurvatureMean
	}
	return *c.CurvatureMethod
}

// GetCurvaturePercentile returns the curvature_percentile value or the default.
func (c *ViewerConfig) GetCurvaturePercentile() float64 {
	if c.CurvaturePercentile == nil {
		return 0.65
	}
	return *c.CurvaturePercentile
}

// GetHeightPercentile returns the height_percentile value or the default.
func (c *ViewerConfig) GetHeightPercentile() float64 {
	if c.HeightPercentile == nil {
		return 0.60
	}
	return *c.HeightPercentile
}

// GetFallbackTopFraction returns the fallback_top_fraction value or the default.
func (c *ViewerConfig) GetFallbackTopFraction() float64 {
	if c.FallbackTopFraction == nil {
		return 0.40
	}
	return *c.FallbackTopFraction
}

// GetToothRGB returns the tooth colour, white by default.
func (c *ViewerConfig) GetToothRGB() mesh.RGB {
	if c.ToothRGB == nil {
		return mesh.RGB{255, 255, 255}
	}
	return mesh.RGB(*c.ToothRGB)
}

// GetGumRGB returns the gum colour, a light pink by default.
func (c *ViewerConfig) GetGumRGB() mesh.RGB {
	if c.GumRGB == nil {
		return mesh.RGB{242, 153, 153}
	}
	return mesh.RGB(*c.GumRGB)
}

// GetBiteGapY returns the bite_gap_y value or the default.
func (c *ViewerConfig) GetBiteGapY() float64 {
	if c.BiteGapY == nil {
		return -8
	}
	return *c.BiteGapY
}

// GetUpperNudge returns the upper_nudge vector or the default.
func (c *ViewerConfig) GetUpperNudge() r3.Vec {
	if len(c.UpperNudge) != 3 {
		return r3.Vec{X: -1, Y: 1, Z: 3}
	}
	return r3.Vec{X: c.UpperNudge[0], Y: c.UpperNudge[1], Z: c.UpperNudge[2]}
}

// GetExtentEpsilon returns the extent_epsilon value or the default.
func (c *ViewerConfig) GetExtentEpsilon() float64 {
	if c.ExtentEpsilon == nil {
		return 1e-9
	}
	return *c.ExtentEpsilon
}

// GetSnapshotSizePx returns the snapshot edge length in pixels.
func (c *ViewerConfig) GetSnapshotSizePx() int {
	if c.SnapshotSizePx == nil {
		return 900
	}
	return *c.SnapshotSizePx
}

// GetSnapshotMaxPoints returns the per-snapshot point budget.
func (c *ViewerConfig) GetSnapshotMaxPoints() int {
	if c.SnapshotMaxPoints == nil {
		return 60000
	}
	return *c.SnapshotMaxPoints
}

// KeywordSet returns the role keywords, falling back to the stock sets for
// whichever side is unset.
func (c *ViewerConfig) KeywordSet() casefile.Keywords {
	kw := casefile.DefaultKeywords()
	if c.UpperKeywords != nil {
		kw.Upper = append([]string(nil), c.UpperKeywords...)
	}
	if c.LowerKeywords != nil {
		kw.Lower = append([]string(nil), c.LowerKeywords...)
	}
	return kw
}

// NormalizeParams returns the alignment parameters.
func (c *ViewerConfig) NormalizeParams() align.Params {
	return align.Params{
		Epsilon:    c.GetExtentEpsilon(),
		BiteGapY:   c.GetBiteGapY(),
		UpperNudge: c.GetUpperNudge(),
	}
}

// CurvatureFunc returns the estimator named by curvature_method.
func (c *ViewerConfig) CurvatureFunc() mesh.CurvatureFunc {
	if c.GetCurvatureMethod() == CurvaturePCA {
		return mesh.SurfaceVariation
	}
	return mesh.MeanCurvature
}

// ClassifyParams returns the classifier parameters.
func (c *ViewerConfig) ClassifyParams() classify.Params {
	return classify.Params{
		CurvaturePercentile: c.GetCurvaturePercentile(),
		HeightPercentile:    c.GetHeightPercentile(),
		FallbackTopFraction: c.GetFallbackTopFraction(),
		ToothRGB:            c.GetToothRGB(),
		GumRGB:              c.GetGumRGB(),
		Curvature:           c.CurvatureFunc(),
	}
}

// JSON returns the config encoded as indented JSON.
func (c *ViewerConfig) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
