// Batch backtest runner: loads the signals and market tables, runs the
// matching engine, persists the trade report (parquet + sqlite archive),
// and prints a console summary.
//
// Usage:
//
//	go run cmd/volarb-backtest/main.go -config config/volarb.yaml
//	go run cmd/volarb-backtest/main.go -signals data/signals.csv -market data/clean/SPY_2023_eod.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/backtest"
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/config"
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/loader"
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/report"
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/risk"
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/util"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "path to YAML config file (optional)")
		signalsCSV = flag.String("signals", "", "signals CSV (overrides config)")
		marketCSV  = flag.String("market", "", "market data CSV (overrides config)")
		reportDir  = flag.String("out", "", "report output directory (overrides config)")
		dbPath     = flag.String("db", "", "sqlite archive path (overrides config)")
	)
	flag.Parse()

	// A .env file is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *signalsCSV != "" {
		cfg.Data.SignalsPath = *signalsCSV
	}
	if *marketCSV != "" {
		cfg.Data.MarketPath = *marketCSV
	}
	if *reportDir != "" {
		cfg.Storage.ReportDir = *reportDir
	}
	if *dbPath != "" {
		cfg.Storage.SQLitePath = *dbPath
	}
	if cfg.Data.SignalsPath == "" || cfg.Data.MarketPath == "" {
		log.Fatal("signals and market data paths are required (flags, config file, or env)")
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	signals, sstats, err := loader.ReadSignalsFile(cfg.Data.SignalsPath, logger)
	if err != nil {
		log.Fatalf("loading signals: %v", err)
	}
	logger.Info("signals loaded",
		"path", cfg.Data.SignalsPath, "rows", sstats.Rows, "malformed", sstats.Malformed)

	quotes, mstats, err := loader.ReadMarketFile(cfg.Data.MarketPath, logger)
	if err != nil {
		log.Fatalf("loading market data: %v", err)
	}
	logger.Info("market data loaded",
		"path", cfg.Data.MarketPath, "rows", mstats.Rows, "malformed", mstats.Malformed)

	var sizer backtest.Sizer
	if cfg.Risk.SizingEnabled {
		ps := risk.NewPositionSizer(cfg.Risk.Capital)
		if cfg.Risk.RiskPerTrade > 0 {
			ps.RiskPerTrade = cfg.Risk.RiskPerTrade
		}
		if cfg.Risk.MaxPositionPct > 0 {
			ps.MaxPositionPct = cfg.Risk.MaxPositionPct
		}
		sizer = ps
		logger.Info("position sizing enabled",
			"capital", ps.Capital, "risk_per_trade", ps.RiskPerTrade)
	}

	engine := backtest.NewEngine(backtest.EngineConfig{
		ContractMultiplier: cfg.Backtest.ContractMultiplier,
		Quantity:           cfg.Backtest.Quantity,
		MaxWorkers:         cfg.Backtest.MaxWorkers,
		MaxSignals:         cfg.Backtest.MaxSignals,
		Sizer:              sizer,
	}, logger)

	rep, err := engine.Run(ctx, signals, quotes)
	if err != nil {
		log.Fatalf("backtest run: %v", err)
	}

	store, err := report.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite archive: %v", err)
	}
	defer store.Close()

	runID, err := store.SaveReport(ctx, rep)
	if err != nil {
		log.Fatalf("archiving run: %v", err)
	}

	if err := os.MkdirAll(cfg.Storage.ReportDir, 0o755); err != nil {
		log.Fatalf("creating report dir: %v", err)
	}
	parquetPath := filepath.Join(cfg.Storage.ReportDir, "trades-"+runID+".parquet")
	if err := report.WriteTradeReport(parquetPath, rep.Trades); err != nil {
		log.Fatalf("writing trade report: %v", err)
	}
	logger.Info("run archived", "run_id", runID, "parquet", parquetPath,
		"sqlite", cfg.Storage.SQLitePath)

	analysis := risk.Analyze(rep.Trades, cfg.Risk.Capital, cfg.Risk.MaxDrawdownPct)
	printSummary(rep, analysis)
}

// printSummary renders the run statistics, portfolio summary, and equity
// analysis to stdout.
func printSummary(rep *backtest.Report, analysis risk.Analysis) {
	s := rep.Summary

	fmt.Printf("\nSignals: %d  matched: %d  unmatched: %d  truncated: %d  malformed market rows: %d\n\n",
		rep.Stats.Signals, rep.Stats.MatchedSignals, rep.Stats.UnmatchedSignals,
		rep.Stats.Truncated, rep.Stats.MalformedRows)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Trades", "Closed", "UnmEntry", "UnmExit", "TotalPnL", "AvgPnL", "WinRate", "PF")
	table.Append(
		fmt.Sprintf("%d", s.TotalTrades),
		fmt.Sprintf("%d", s.Closed),
		fmt.Sprintf("%d", s.UnmatchedEntry),
		fmt.Sprintf("%d", s.UnmatchedExit),
		fmt.Sprintf("%.2f", s.TotalPnL),
		fmt.Sprintf("%.4f", s.AvgPnL),
		fmt.Sprintf("%.1f%%", s.WinRate*100),
		fmt.Sprintf("%.2f", s.ProfitFactor),
	)
	table.Render()

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.Header("MaxProfit", "MaxLoss", "AvgWin", "AvgLoss", "Ambiguous")
	tbl.Append(
		fmt.Sprintf("%.2f", s.MaxProfit),
		fmt.Sprintf("%.2f", s.MaxLoss),
		fmt.Sprintf("%.4f", s.AvgWin),
		fmt.Sprintf("%.4f", s.AvgLoss),
		fmt.Sprintf("%d", rep.Stats.AmbiguousMatches),
	)
	tbl.Render()

	breached := "no"
	if analysis.LimitBreached {
		breached = "YES"
	}
	rt := tablewriter.NewWriter(os.Stdout)
	rt.Header("Capital", "FinalEquity", "MaxDD", "DDLimitHit", "CAGR", "Sharpe")
	rt.Append(
		fmt.Sprintf("%.0f", analysis.StartCapital),
		fmt.Sprintf("%.2f", analysis.FinalEquity),
		fmt.Sprintf("%.2f%%", analysis.MaxDrawdown*100),
		breached,
		fmt.Sprintf("%.2f%%", analysis.CAGR*100),
		fmt.Sprintf("%.2f", analysis.Sharpe),
	)
	rt.Render()
}
