package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/skeletor601/BL4-SaveEditor/internal/config"
	"github.com/skeletor601/BL4-SaveEditor/internal/favorites"
	"go.uber.org/zap/zapcore"
)

var errUsage = errors.New("usage: bl4editor favorites {list|toggle <key>|export [-o file] [keys...]|import <file>}")

func runFavorites(args []string) {
	fs := flag.NewFlagSet("favorites", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		exitErr(err)
	}
	logger, err := newLogger(cfg, zapcore.WarnLevel)
	if err != nil {
		exitErr(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	ledger, db, err := openLedger(ctx, cfg, logger, nil)
	if err != nil {
		exitErr(err)
	}
	defer db.Close()

	if err := favoritesCmd(ctx, ledger, fs.Args(), os.Stdin, os.Stdout); err != nil {
		db.Close()
		exitErr(err)
	}
}

// favoritesCmd runs one favorites subcommand against ledger. An import
// path of "-" reads stdin.
func favoritesCmd(ctx context.Context, ledger *favorites.Ledger, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		for _, k := range ledger.Keys() {
			fmt.Fprintln(stdout, k)
		}
		return nil

	case "toggle":
		if len(args) != 2 || strings.TrimSpace(args[1]) == "" {
			return errUsage
		}
		if ledger.Toggle(ctx, args[1]) {
			fmt.Fprintf(stdout, "added %s\n", args[1])
		} else {
			fmt.Fprintf(stdout, "removed %s\n", args[1])
		}
		return nil

	case "export":
		fs := flag.NewFlagSet("favorites export", flag.ContinueOnError)
		output := fs.String("o", "", "output file (default stdout; "+favorites.ExportFilename+" is the web client's name)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		var subset []string
		if fs.NArg() > 0 {
			subset = fs.Args()
		}
		doc := ledger.Export(subset)
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if *output == "" {
			_, err = stdout.Write(data)
			return err
		}
		if err := os.WriteFile(*output, data, 0o600); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(stdout, "Exported %d favorite(s) to %s\n", len(doc.Keys), *output)
		return nil

	case "import":
		if len(args) != 2 {
			return errUsage
		}
		var data []byte
		var err error
		if args[1] == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(args[1])
		}
		if err != nil {
			return fmt.Errorf("read import file: %w", err)
		}
		added, err := ledger.Import(ctx, data)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, favorites.ImportMessage(added))
		return nil
	}
	return errUsage
}
