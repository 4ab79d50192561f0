package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/skeletor601/BL4-SaveEditor/internal/catalog"
	"github.com/skeletor601/BL4-SaveEditor/internal/config"
	"github.com/skeletor601/BL4-SaveEditor/internal/favorites"
	"github.com/skeletor601/BL4-SaveEditor/internal/kv"
	"github.com/skeletor601/BL4-SaveEditor/internal/metrics"
	"github.com/skeletor601/BL4-SaveEditor/internal/news"
	"github.com/skeletor601/BL4-SaveEditor/internal/plugin"
	"github.com/skeletor601/BL4-SaveEditor/internal/saveproxy"
	"github.com/skeletor601/BL4-SaveEditor/internal/server"
	"github.com/skeletor601/BL4-SaveEditor/internal/version"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg, zapcore.DebugLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// serve wires the modules, runs the HTTP server and blocks until ctx is
// cancelled or the server fails.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("bl4editor server starting", zap.String("version", version.Short()))

	m := metrics.New()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slots, err := kv.NewSQLiteSlots(ctx, db)
	if err != nil {
		return fmt.Errorf("open favorites storage: %w", err)
	}
	ledger := favorites.NewLedger(slots, logger.Named("favorites"), m)
	if !cfg.GetBool("plugins.favorites.enabled") {
		// The parts module still marks favorites.
		ledger.Load(ctx)
	}

	resolvePartsFile(cfg)
	dataDir := cfg.GetString("data.dir")

	registry := plugin.NewRegistry(logger)
	plugins := []plugin.Plugin{
		catalog.New(catalog.NewStore(), ledger, m),
		favorites.New(ledger),
		news.New(dataDir),
		saveproxy.New(m),
	}
	for _, p := range plugins {
		if err := registry.Register(p); err != nil {
			return err
		}
	}
	if err := registry.InitAll(cfg); err != nil {
		return err
	}
	if err := registry.StartAll(ctx); err != nil {
		return err
	}
	defer registry.StopAll()

	addr := net.JoinHostPort(cfg.GetString("server.host"), strconv.Itoa(cfg.GetInt("server.port")))
	srv := server.New(server.Options{
		Addr:         addr,
		ReadTimeout:  cfg.GetDuration("server.read_timeout"),
		WriteTimeout: cfg.GetDuration("server.write_timeout"),
		CORSOrigins:  cfg.GetStringSlice("server.cors_origins"),
		DataDir:      dataDir,
		App: version.AppInfo{
			Version:     cfg.GetString("app.version"),
			Changelog:   cfg.GetString("app.changelog"),
			DownloadURL: cfg.GetString("app.download_url"),
		},
	}, registry, m, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	logger.Info("bl4editor server ready", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if err := db.Checkpoint(shutdownCtx); err != nil {
		logger.Warn("WAL checkpoint failed", zap.Error(err))
	}
	logger.Info("bl4editor server stopped")
	return nil
}
