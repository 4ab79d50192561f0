package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/skeletor601/BL4-SaveEditor/internal/catalog"
	"github.com/skeletor601/BL4-SaveEditor/internal/config"
	"go.uber.org/zap/zapcore"
)

const effectWidth = 60

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	query := fs.String("q", "", "free-text query")
	category := fs.String("category", "", "category filter (e.g. Enhancement)")
	manufacturer := fs.String("manufacturer", "", "manufacturer filter")
	partType := fs.String("part-type", "", "part type filter")
	favOnly := fs.Bool("favorites", false, "only favorites")
	quick := fs.String("quick", "", "quick filter: damage, crit or splash")
	rarity := fs.String("rarity", "", "rarity sort: legendary, epic, rare or common first")
	sortCol := fs.String("sort", "", "sort column: code, itemType, rarity, partName or effect")
	dir := fs.String("dir", "asc", "sort direction: asc or desc")
	limit := fs.Int("limit", 50, "maximum rows to print")
	asJSON := fs.Bool("json", false, "print rows as JSON")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *query == "" && fs.NArg() > 0 {
		*query = fs.Arg(0)
	}

	req, err := catalog.ParseSearchRequest(map[string][]string{
		"q":            {*query},
		"category":     {*category},
		"manufacturer": {*manufacturer},
		"partType":     {*partType},
		"favorites":    {strconv.FormatBool(*favOnly)},
		"quick":        {*quick},
		"sortRarity":   {*rarity},
		"sort":         {*sortCol},
		"dir":          {*dir},
		"limit":        {strconv.Itoa(*limit)},
	})
	if err != nil {
		exitErr(err)
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

	engine := catalog.NewEngine(loadCatalog(ctx, cfg, logger), ledger, !cfg.GetBool("plugins.parts.strict_rarity_priority"))
	res := engine.Search(req)
	if *asJSON {
		err = printHitsJSON(os.Stdout, res)
	} else {
		err = printHits(os.Stdout, res)
	}
	if err != nil {
		exitErr(err)
	}
}

// printHits renders the result as the catalog table.
func printHits(w io.Writer, res catalog.SearchResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FAV\tCODE\tITEM TYPE\tRARITY\tPART NAME\tEFFECT")
	for _, h := range res.Hits {
		fav := ""
		if h.Favorite {
			fav = "★"
		}
		r := h.Facets.Rarity
		if r == "" {
			r = "—"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			fav, h.Row.CodeLabel(), h.Row.ItemType, r, h.Row.PartNameLabel(), truncate(h.Row.EffectLabel(), effectWidth))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d of %d rows\n", len(res.Hits), res.Total)
	return err
}

func printHitsJSON(w io.Writer, res catalog.SearchResult) error {
	type hit struct {
		Key       string `json:"key"`
		Item      any    `json:"item"`
		Rarity    string `json:"rarity"`
		Legendary bool   `json:"legendary"`
		Category  string `json:"category"`
		Favorite  bool   `json:"favorite"`
	}
	out := struct {
		Total int   `json:"total"`
		Items []hit `json:"items"`
	}{Total: res.Total, Items: make([]hit, len(res.Hits))}
	for i, h := range res.Hits {
		out.Items[i] = hit{
			Key:       h.Key,
			Item:      h.Row,
			Rarity:    h.Facets.Rarity,
			Legendary: h.Facets.Legendary,
			Category:  h.Facets.Category,
			Favorite:  h.Favorite,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
