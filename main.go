// Command jawviewer collects upper/lower arch scans from a data directory
// and serves them for browsing over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/jawviewer/internal/catalog"
	"github.com/banshee-data/jawviewer/internal/config"
	"github.com/banshee-data/jawviewer/internal/fsutil"
	"github.com/banshee-data/jawviewer/internal/monitoring"
	"github.com/banshee-data/jawviewer/internal/pairing"
	"github.com/banshee-data/jawviewer/internal/render"
	"github.com/banshee-data/jawviewer/internal/timeutil"
	"github.com/banshee-data/jawviewer/internal/version"
	"github.com/banshee-data/jawviewer/internal/viewer"
)

const defaultDataDir = "/srv/jaw-viewer-data"

var (
	dataDir     = flag.String("data-dir", envOr("DATA_DIR", defaultDataDir), "Directory of surface scans (env DATA_DIR)")
	listen      = flag.String("listen", listenAddr(os.Getenv("PORT")), "Listen address (env PORT sets :PORT)")
	configPath  = flag.String("config", "", "Path to a viewer tuning JSON file (defaults built in)")
	dbPath      = flag.String("db", "jawviewer.db", "Path to the collection catalogue; empty disables it")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// envOr returns the environment variable key, or def when it is unset or empty.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// listenAddr maps a PORT value onto a listen address.
func listenAddr(port string) string {
	if port == "" {
		return ":8080"
	}
	return ":" + port
}

// collect runs one collection over dir and records it in cat when cat is
// non-nil. Catalogue failures are logged and do not fail the collection.
func collect(ctx context.Context, clk timeutil.Clock, cfg *config.ViewerConfig, fsys fsutil.FileSystem, dir string, cat *catalog.Catalog) (pairing.Result, error) {
	res, err := pairing.NewCollector(pairing.OptionsFromConfig(cfg)).WithClock(clk).CollectDir(fsys, dir)
	if err != nil {
		return pairing.Result{}, err
	}
	if cat == nil {
		return res, nil
	}
	cfgJSON, err := cfg.JSON()
	if err != nil {
		monitoring.Opsf("encode config for catalogue: %v", err)
	}
	run := catalog.NewRun(dir, res, cfgJSON)
	if err := cat.RecordRun(ctx, &run); err != nil {
		monitoring.Opsf("record collection run: %v", err)
	} else {
		monitoring.Diagf("recorded collection run %s", run.RunID)
	}
	return res, nil
}

func renderOptions(cfg *config.ViewerConfig) render.Options {
	opts := render.DefaultOptions()
	opts.SizePx = cfg.GetSnapshotSizePx()
	opts.MaxPoints = cfg.GetSnapshotMaxPoints()
	return opts
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("jawviewer"))
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cat *catalog.Catalog
	if *dbPath != "" {
		cat, err = catalog.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open catalogue: %v", err)
		}
		defer cat.Close()
	}

	res, err := collect(ctx, timeutil.RealClock{}, cfg, fsutil.OSFileSystem{}, *dataDir, cat)
	if err != nil {
		// An unreadable directory still starts the viewer, with no pairs.
		monitoring.Opsf("collection failed: %v", err)
	}

	srv, err := viewer.NewServer(viewer.Config{
		Address:  *listen,
		Store:    res.Store(),
		Catalog:  cat,
		Render:   renderOptions(cfg),
		ToothRGB: cfg.GetToothRGB(),
	})
	if err != nil {
		log.Fatalf("failed to create viewer: %v", err)
	}
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("viewer: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
