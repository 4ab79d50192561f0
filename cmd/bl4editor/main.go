// Command bl4editor runs the BL4 save editor backend and offers catalog,
// favorites and maintenance commands for the terminal.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/skeletor601/BL4-SaveEditor/internal/version"
)

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		switch a := args[0]; {
		case a == "-version" || a == "--version":
			cmd, args = "version", nil
		case a == "-h" || a == "--help":
			cmd, args = "help", nil
		case !strings.HasPrefix(a, "-"):
			cmd, args = a, args[1:]
		}
	}

	switch cmd {
	case "serve":
		runServe(args)
	case "search":
		runSearch(args)
	case "favorites":
		runFavorites(args)
	case "copy":
		runCopy(args)
	case "backup":
		runBackup(args)
	case "restore":
		runRestore(args)
	case "version":
		fmt.Println(version.Info())
	case "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: bl4editor <command> [flags]

Commands:
  serve                      run the HTTP backend (default)
  search [flags]             search the parts catalog
  favorites list             list favorite keys
  favorites toggle <key>     add or remove a favorite
  favorites export [keys]    write the favorites document
  favorites import <file>    merge a favorites document
  copy [-qty N] <code>       print the copy-format payload for an item code
  backup                     archive the database, config and data files
  restore                    restore a backup archive
  version                    print version information

Run "bl4editor <command> -h" for command flags.
`)
}
