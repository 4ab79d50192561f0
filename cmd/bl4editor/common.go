package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skeletor601/BL4-SaveEditor/internal/catalog"
	"github.com/skeletor601/BL4-SaveEditor/internal/config"
	"github.com/skeletor601/BL4-SaveEditor/internal/favorites"
	"github.com/skeletor601/BL4-SaveEditor/internal/kv"
	"github.com/skeletor601/BL4-SaveEditor/internal/metrics"
	"github.com/skeletor601/BL4-SaveEditor/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// partsFileNames are looked up in data.dir when plugins.parts.file is unset.
var partsFileNames = []string{"parts.json", "parts.yaml", "parts.yml"}

// newLogger builds a logger from logging.level and logging.format. floor
// raises the level for commands whose stdout is the product.
func newLogger(cfg *config.Config, floor zapcore.Level) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.GetString("logging.format") == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(cfg.GetString("logging.level"))
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	if lvl.Level() < floor {
		lvl.SetLevel(floor)
	}
	zc.Level = lvl
	return zc.Build()
}

// resolvePartsFile fills plugins.parts.file from data.dir when unset and a
// parts file exists there.
func resolvePartsFile(cfg *config.Config) {
	if cfg.GetString("plugins.parts.file") != "" {
		return
	}
	for _, name := range partsFileNames {
		p := filepath.Join(cfg.GetString("data.dir"), name)
		if _, err := os.Stat(p); err == nil {
			cfg.Set("plugins.parts.file", p)
			return
		}
	}
}

// openDB opens the database at database.path, creating its directory.
func openDB(cfg *config.Config) (*store.SQLiteStore, error) {
	path := cfg.GetString("database.path")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return store.New(path)
}

// openLedger opens the database and loads the favorites ledger. The caller
// closes the returned store.
func openLedger(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*favorites.Ledger, *store.SQLiteStore, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	slots, err := kv.NewSQLiteSlots(ctx, db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("open favorites storage: %w", err)
	}
	ledger := favorites.NewLedger(slots, logger.Named("favorites"), m)
	ledger.Load(ctx)
	return ledger, db, nil
}

// loadCatalog fills a store from the configured parts file and source URL,
// falling back to the built-in sample.
func loadCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) *catalog.Store {
	resolvePartsFile(cfg)
	var sources []catalog.Source
	if f := cfg.GetString("plugins.parts.file"); f != "" {
		sources = append(sources, &catalog.FileSource{Path: f})
	}
	if u := cfg.GetString("plugins.parts.source_url"); u != "" {
		sources = append(sources, catalog.NewHTTPSource(u, cfg.GetDuration("plugins.parts.fetch_timeout")))
	}
	rows, origin := catalog.NewLoader(logger, nil, sources...).Load(ctx)
	s := catalog.NewStore()
	s.Replace(rows, origin)
	return s
}

func exitErr(err error) {
	var pe *favorites.ParseError
	if errors.As(err, &pe) {
		fmt.Fprintln(os.Stderr, "Import failed")
		fmt.Fprintf(os.Stderr, "  %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
