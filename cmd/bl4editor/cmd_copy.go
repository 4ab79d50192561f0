package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/skeletor601/BL4-SaveEditor/internal/itemcode"
)

func runCopy(args []string) {
	fs := flag.NewFlagSet("copy", flag.ExitOnError)
	qty := fs.Int("qty", 1, fmt.Sprintf("quantity (%d-%d)", itemcode.MinQuantity, itemcode.MaxQuantity))
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: bl4editor copy [-qty N] <code>")
		os.Exit(1)
	}

	copyCode(os.Stdout, os.Stderr, strings.Join(fs.Args(), " "), *qty)
}

// copyCode writes the clipboard payload for code to out. A failed write is
// reported on errOut and is not fatal.
func copyCode(out, errOut io.Writer, code string, qty int) {
	payload, _ := itemcode.CopyPayload(code, qty)
	if _, err := fmt.Fprintln(out, payload); err != nil {
		fmt.Fprintf(errOut, "Copy failed: %v\n", err)
	}
}
