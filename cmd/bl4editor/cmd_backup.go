package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/skeletor601/BL4-SaveEditor/internal/backup"
	"github.com/skeletor601/BL4-SaveEditor/internal/config"
)

func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	output := fs.String("output", "", "output file path (default: bl4editor-backup-{timestamp}.tar.gz)")
	configFile := fs.String("config", "", "path to config file to include in backup")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *output == "" {
		*output = fmt.Sprintf("bl4editor-backup-%s.tar.gz", time.Now().Format("20060102-150405"))
	}

	ctx := context.Background()
	m, err := backup.Backup(ctx, backup.Paths{
		DBPath:     cfg.GetString("database.path"),
		ConfigPath: *configFile,
		DataDir:    cfg.GetString("data.dir"),
	}, *output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Backup created: %s (%d files)\n", *output, len(m.Files))
}
