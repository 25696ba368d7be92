// Package pairing groups surface files into upper/lower pairs by case id and
// runs each complete pair through alignment and classification.
//
// Collection is best effort. Files that cannot take part in a pair are
// recorded as skips with a reason and never reported as errors.
package pairing

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/banshee-data/jawviewer/internal/align"
	"github.com/banshee-data/jawviewer/internal/casefile"
	"github.com/banshee-data/jawviewer/internal/classify"
	"github.com/banshee-data/jawviewer/internal/config"
	"github.com/banshee-data/jawviewer/internal/fsutil"
	"github.com/banshee-data/jawviewer/internal/mesh"
	"github.com/banshee-data/jawviewer/internal/monitoring"
	"github.com/banshee-data/jawviewer/internal/stlio"
	"github.com/banshee-data/jawviewer/internal/store"
	"github.com/banshee-data/jawviewer/internal/timeutil"
)

// Reason explains why a file is not part of any pair.
type Reason string

const (
	ReasonWrongExtension Reason = "wrong_extension"
	ReasonNoCaseID       Reason = "no_case_id"
	ReasonUnknownRole    Reason = "unknown_role"
	ReasonDuplicateRole  Reason = "duplicate_role"
	ReasonIncompleteCase Reason = "incomplete_case"
	ReasonLoadFailed     Reason = "load_failed"
)

// Skip records one excluded file.
type Skip struct {
	Filename string
	CaseID   casefile.CaseID
	Role     casefile.Role
	Reason   Reason
	Detail   string
}

// Result is the outcome of one collection.
type Result struct {
	Pairs     []store.Pair
	Skipped   []Skip
	FilesSeen int
	Stats     classify.Stats
	Started   time.Time
	Finished  time.Time
}

// Store wraps the collected pairs in a store.Store.
func (r Result) Store() *store.Store { return store.New(r.Pairs) }

// LoadFunc loads the surface with the given filename.
type LoadFunc func(name string) (*mesh.Mesh, error)

// errNoMesh is recorded when a LoadFunc reports success without a mesh.
var errNoMesh = errors.New("loader returned no mesh")

func (load LoadFunc) loadMesh(name string) (*mesh.Mesh, error) {
	m, err := load(name)
	if err == nil && m == nil {
		err = errNoMesh
	}
	return m, err
}

// Options configures a Collector.
type Options struct {
	Keywords  casefile.Keywords
	Extension string
	Align     align.Params
	Classify  classify.Params
}

// DefaultOptions uses the stock keywords, ".stl" and default tuning.
func DefaultOptions() Options {
	return Options{
		Keywords:  casefile.DefaultKeywords(),
		Extension: ".stl",
		Align:     align.DefaultParams(),
		Classify:  classify.DefaultParams(),
	}
}

// OptionsFromConfig maps a viewer config onto collector options.
func OptionsFromConfig(cfg *config.ViewerConfig) Options {
	return Options{
		Keywords:  cfg.KeywordSet(),
		Extension: cfg.GetSurfaceExtension(),
		Align:     cfg.NormalizeParams(),
		Classify:  cfg.ClassifyParams(),
	}
}

// Collector builds pairs from filenames.
type Collector struct {
	opts       Options
	classifier *classify.Classifier
	clock      timeutil.Clock
}

// NewCollector returns a Collector using opts and the real clock.
func NewCollector(opts Options) *Collector {
	return &Collector{
		opts:       opts,
		classifier: classify.NewClassifier(opts.Classify),
		clock:      timeutil.RealClock{},
	}
}

// WithClock sets the clock used to time collections.
func (c *Collector) WithClock(clk timeutil.Clock) *Collector {
	c.clock = clk
	return c
}

type bucket struct {
	upper []string
	lower []string
}

// Collect groups names by case id and builds one pair per case that has both
// an upper and a lower surface. Cases are emitted in ascending id order.
//
// When several files claim the same case and role, the lexicographically
// smallest name is used and the rest are skipped as duplicates. load is only
// called for files that end up in a complete case; a load failure drops
// that case alone.
func (c *Collector) Collect(names []string, load LoadFunc) Result {
	res := Result{FilesSeen: len(names), Started: c.clock.Now()}
	buckets := make(map[int]*bucket)

	for _, name := range names {
		if !fsutil.HasExt(name, c.opts.Extension) {
			res.Skipped = append(res.Skipped, Skip{Filename: name, Reason: ReasonWrongExtension})
			continue
		}
		info := casefile.Parse(name, c.opts.Keywords)
		switch {
		case !info.CaseID.Valid:
			res.Skipped = append(res.Skipped, Skip{Filename: name, Role: info.Role, Reason: ReasonNoCaseID})
			continue
		case info.Role == casefile.RoleUnknown:
			res.Skipped = append(res.Skipped, Skip{Filename: name, CaseID: info.CaseID, Reason: ReasonUnknownRole})
			continue
		}
		b := buckets[info.CaseID.Value]
		if b == nil {
			b = &bucket{}
			buckets[info.CaseID.Value] = b
		}
		if info.Role == casefile.RoleUpper {
			b.upper = append(b.upper, name)
		} else {
			b.lower = append(b.lower, name)
		}
	}

	ids := make([]int, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	c.classifier.ResetStats()
	for _, id := range ids {
		if p, ok := c.collectCase(id, buckets[id], load, &res.Skipped); ok {
			res.Pairs = append(res.Pairs, p)
		}
	}
	res.Stats = c.classifier.Stats()
	res.Finished = c.clock.Now()

	for _, s := range res.Skipped {
		monitoring.Diagf("skip %s: %s %s", s.Filename, s.Reason, s.Detail)
	}
	monitoring.Opsf("collected %d pairs from %d files (%d skipped) in %v",
		len(res.Pairs), res.FilesSeen, len(res.Skipped), res.Finished.Sub(res.Started))
	return res
}

func (c *Collector) collectCase(id int, b *bucket, load LoadFunc, skipped *[]Skip) (store.Pair, bool) {
	cid := casefile.CaseID{Value: id, Valid: true}
	upper := pick(b.upper, cid, casefile.RoleUpper, skipped)
	lower := pick(b.lower, cid, casefile.RoleLower, skipped)

	if upper == "" || lower == "" {
		for _, name := range []string{upper, lower} {
			if name != "" {
				*skipped = append(*skipped, Skip{Filename: name, CaseID: cid, Role: roleOf(name, upper), Reason: ReasonIncompleteCase})
			}
		}
		return store.Pair{}, false
	}

	upMesh, upErr := load.loadMesh(upper)
	lowMesh, lowErr := load.loadMesh(lower)
	if upErr != nil || lowErr != nil {
		for _, f := range []struct {
			name, partner string
			role          casefile.Role
			err, other    error
		}{
			{upper, lower, casefile.RoleUpper, upErr, lowErr},
			{lower, upper, casefile.RoleLower, lowErr, upErr},
		} {
			s := Skip{Filename: f.name, CaseID: cid, Role: f.role}
			if f.err != nil {
				s.Reason, s.Detail = ReasonLoadFailed, f.err.Error()
				monitoring.Opsf("case %d: failed to load %s: %v", id, f.name, f.err)
			} else {
				s.Reason, s.Detail = ReasonIncompleteCase, fmt.Sprintf("partner %s failed to load", f.partner)
			}
			*skipped = append(*skipped, s)
		}
		return store.Pair{}, false
	}

	upAligned, lowAligned, tr := align.Normalize(upMesh, lowMesh, c.opts.Align)
	monitoring.Tracef("case %d: lower scale %+v shift %+v", id, tr.LowerScale, tr.LowerShift)

	upColoured, upDec := c.classifier.Classify(upAligned)
	lowColoured, lowDec := c.classifier.Classify(lowAligned)
	for _, d := range []struct {
		name string
		dec  classify.Decision
	}{{upper, upDec}, {lower, lowDec}} {
		if d.dec.CurvatureErr != nil {
			monitoring.Diagf("case %d: %s: no curvature signal: %v", id, d.name, d.dec.CurvatureErr)
		}
		monitoring.Diagf("case %d: %s: %s mask, %d/%d tooth points", id, d.name, d.dec.Source, d.dec.Teeth, len(d.dec.Mask))
	}

	return store.Pair{
		CaseID: id,
		Upper:  store.Surface{File: upper, Mesh: upColoured, Source: upDec.Source, Teeth: upDec.Teeth},
		Lower:  store.Surface{File: lower, Mesh: lowColoured, Source: lowDec.Source, Teeth: lowDec.Teeth},
	}, true
}

// pick returns the smallest name and records the others as duplicates.
func pick(names []string, cid casefile.CaseID, role casefile.Role, skipped *[]Skip) string {
	if len(names) == 0 {
		return ""
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for _, dup := range sorted[1:] {
		*skipped = append(*skipped, Skip{
			Filename: dup,
			CaseID:   cid,
			Role:     role,
			Reason:   ReasonDuplicateRole,
			Detail:   fmt.Sprintf("%s already used", sorted[0]),
		})
	}
	return sorted[0]
}

func roleOf(name, upper string) casefile.Role {
	if name == upper {
		return casefile.RoleUpper
	}
	return casefile.RoleLower
}

// CollectDir lists dir on fsys and collects every file in it, loading
// surfaces with stlio.
func (c *Collector) CollectDir(fsys fsutil.FileSystem, dir string) (Result, error) {
	listing, err := fsutil.ListSurfaces(fsys, dir, c.opts.Extension)
	if err != nil {
		return Result{}, fmt.Errorf("list %s: %w", dir, err)
	}
	names := append(append([]string(nil), listing.Matched...), listing.Other...)
	sort.Strings(names)

	loader := stlio.NewLoader(fsys)
	monitoring.Opsf("collecting surfaces from %s (%d files)", dir, len(names))
	return c.Collect(names, func(name string) (*mesh.Mesh, error) {
		return loader.Load(filepath.Join(dir, name))
	}), nil
}
