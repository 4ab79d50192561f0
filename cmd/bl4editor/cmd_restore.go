package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/skeletor601/BL4-SaveEditor/internal/backup"
	"github.com/skeletor601/BL4-SaveEditor/internal/config"
)

func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	input := fs.String("input", "", "backup archive to restore (required)")
	configFile := fs.String("config", "", "config file path to restore into; skipped when empty")
	force := fs.Bool("force", false, "overwrite existing files")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "error: --input is required")
		fs.Usage()
		os.Exit(1)
	}

	// The config file may not exist yet; only its path is needed.
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	m, err := backup.Restore(ctx, *input, backup.Paths{
		DBPath:     cfg.GetString("database.path"),
		ConfigPath: *configFile,
		DataDir:    cfg.GetString("data.dir"),
	}, *force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
		if errors.Is(err, backup.ErrExists) {
			fmt.Fprintln(os.Stderr, "use --force to overwrite")
		}
		os.Exit(1)
	}
	fmt.Printf("Restore complete: %d files from backup of version %s\n", len(m.Files), m.Version)
}
