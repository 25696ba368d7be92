// Command pairscan collects arch pairs from a data directory and prints
// one line per pair. It can also write a PNG snapshot per pair and record
// the run in the collection catalogue.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/jawviewer/internal/catalog"
	"github.com/banshee-data/jawviewer/internal/config"
	"github.com/banshee-data/jawviewer/internal/fsutil"
	"github.com/banshee-data/jawviewer/internal/monitoring"
	"github.com/banshee-data/jawviewer/internal/pairing"
	"github.com/banshee-data/jawviewer/internal/render"
	"github.com/banshee-data/jawviewer/internal/store"
	"github.com/banshee-data/jawviewer/internal/timeutil"
	"github.com/banshee-data/jawviewer/internal/version"
)

// options are the parsed command-line flags.
type options struct {
	dataDir    string
	configPath string
	pngDir     string
	dbPath     string
	skips      bool
	verbose    bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("pairscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.dataDir, "data-dir", os.Getenv("DATA_DIR"), "Directory of surface scans (env DATA_DIR)")
	fs.StringVar(&o.configPath, "config", "", "Path to a viewer tuning JSON file")
	fs.StringVar(&o.pngDir, "png-dir", "", "Write case-<id>.png snapshots into this directory")
	fs.StringVar(&o.dbPath, "db", "", "Record the run in this catalogue database")
	fs.BoolVar(&o.skips, "skips", false, "Also list skipped files")
	fs.BoolVar(&o.verbose, "v", false, "Log per-case decisions")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.dataDir == "" && !o.version {
		return o, errors.New("-data-dir is required")
	}
	return o, nil
}

// toothPercent is the share of tooth points over both surfaces.
func toothPercent(p store.Pair) float64 {
	n := p.Upper.Mesh.NumPoints() + p.Lower.Mesh.NumPoints()
	if n == 0 {
		return 0
	}
	return 100 * float64(p.Upper.Teeth+p.Lower.Teeth) / float64(n)
}

// writeTable prints the pair table.
func writeTable(w io.Writer, res pairing.Result) {
	fmt.Fprintf(w, "%-5s %-8s %-28s %-28s %-10s %-10s %6s\n",
		"index", "case_id", "upper", "lower", "upper_tier", "lower_tier", "tooth%")
	for i, p := range res.Pairs {
		fmt.Fprintf(w, "%-5d %-8d %-28s %-28s %-10s %-10s %6.1f\n",
			i, p.CaseID, p.Upper.File, p.Lower.File, p.Upper.Source, p.Lower.Source, toothPercent(p))
	}
	fmt.Fprintf(w, "%d pairs from %d files, %d skipped\n", len(res.Pairs), res.FilesSeen, len(res.Skipped))
}

func writeSkips(w io.Writer, res pairing.Result) {
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "skip %-28s %-16s %s\n", s.Filename, s.Reason, s.Detail)
	}
}

// writeSnapshots renders one PNG per pair into dir.
func writeSnapshots(fsys fsutil.FileSystem, dir string, st *store.Store, opts render.Options) error {
	if st.Empty() {
		return store.ErrNoPairs
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for i, p := range st.Pairs() {
		o := opts
		o.Title = fmt.Sprintf("Pair: %d [%d/%d]", p.CaseID, i+1, st.Len())
		path := filepath.Join(dir, fmt.Sprintf("case-%d.png", p.CaseID))
		f, err := fsys.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := render.Snapshot(f, p, o); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
	}
	return nil
}

func run(ctx context.Context, o options, fsys fsutil.FileSystem, clk timeutil.Clock, stdout io.Writer) error {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	res, err := pairing.NewCollector(pairing.OptionsFromConfig(cfg)).WithClock(clk).CollectDir(fsys, o.dataDir)
	if err != nil {
		return err
	}
	writeTable(stdout, res)
	if o.skips {
		writeSkips(stdout, res)
	}

	if o.pngDir != "" {
		opts := render.DefaultOptions()
		opts.SizePx = cfg.GetSnapshotSizePx()
		opts.MaxPoints = cfg.GetSnapshotMaxPoints()
		if err := writeSnapshots(fsys, o.pngDir, res.Store(), opts); err != nil && !errors.Is(err, store.ErrNoPairs) {
			return err
		}
	}

	if o.dbPath != "" {
		cat, err := catalog.Open(o.dbPath)
		if err != nil {
			return err
		}
		defer cat.Close()
		cfgJSON, err := cfg.JSON()
		if err != nil {
			return err
		}
		r := catalog.NewRun(o.dataDir, res, cfgJSON)
		if err := cat.RecordRun(ctx, &r); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "recorded run %s\n", r.RunID)
	}
	return nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
	if o.version {
		fmt.Println(version.String("pairscan"))
		return
	}

	// Only operational messages unless -v.
	w := monitoring.DefaultLogWriters()
	if !o.verbose {
		w.Diag = nil
	}
	monitoring.SetLogWriters(w)

	if err := run(context.Background(), o, fsutil.OSFileSystem{}, timeutil.RealClock{}, os.Stdout); err != nil {
		log.Fatalf("pairscan: %v", err)
	}
}
