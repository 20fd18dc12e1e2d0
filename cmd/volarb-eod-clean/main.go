// One-shot tool: normalise a raw vendor EOD options export into the clean
// CSV the backtest engine consumes. Strips bracketed headers, keeps the
// canonical column set, and optionally filters to a single calendar year.
//
// Usage:
//
//	go run cmd/volarb-eod-clean/main.go -in data/options.csv -out data/clean/SPY_2023_eod.csv -year 2023
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/loader"
)

func main() {
	var (
		inPath  = flag.String("in", "data/options.csv", "raw vendor EOD export")
		outPath = flag.String("out", "data/clean/eod.csv", "cleaned output path")
		year    = flag.Int("year", 0, "keep only rows from this calendar year (0 = all)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	stats, err := loader.CleanEODFile(*inPath, *outPath, *year)
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	slog.Info("eod clean complete",
		"in", *inPath, "out", *outPath, "year", *year,
		"rows", stats.Rows, "malformed", stats.Malformed)
}
