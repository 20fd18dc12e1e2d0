// One-shot tool: sweep the risk parameter grid (risk per trade x max
// drawdown) over one signal/market data set and print the resulting
// equity metrics per combination. Inputs are loaded once; each grid point
// runs its own sized backtest.
//
// Usage:
//
//	go run cmd/volarb-sweep/main.go -signals data/signals.csv -market data/clean/SPY_2023_eod.csv
//	go run cmd/volarb-sweep/main.go -risk 0.01,0.02,0.03 -drawdown 0.1,0.15,0.2 -max 100
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/backtest"
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/config"
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/loader"
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/risk"
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/util"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "path to YAML config file (optional)")
		signalsCSV = flag.String("signals", "", "signals CSV (overrides config)")
		marketCSV  = flag.String("market", "", "market data CSV (overrides config)")
		riskList   = flag.String("risk", "0.01,0.02,0.03", "comma-separated risk_per_trade values")
		ddList     = flag.String("drawdown", "0.1,0.15,0.2", "comma-separated max_drawdown_pct values")
		maxSignals = flag.Int("max", 100, "signals per grid point (0 = all)")
	)
	flag.Parse()

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
	if cfg.Data.SignalsPath == "" || cfg.Data.MarketPath == "" {
		log.Fatal("signals and market data paths are required (flags, config file, or env)")
	}

	riskValues, err := parseFloats(*riskList)
	if err != nil {
		log.Fatalf("parsing -risk: %v", err)
	}
	ddValues, err := parseFloats(*ddList)
	if err != nil {
		log.Fatalf("parsing -drawdown: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	signals, _, err := loader.ReadSignalsFile(cfg.Data.SignalsPath, logger)
	if err != nil {
		log.Fatalf("loading signals: %v", err)
	}
	quotes, _, err := loader.ReadMarketFile(cfg.Data.MarketPath, logger)
	if err != nil {
		log.Fatalf("loading market data: %v", err)
	}
	logger.Info("sweep starting",
		"signals", len(signals), "market_rows", len(quotes),
		"combinations", len(riskValues)*len(ddValues))

	ctx := context.Background()
	results := risk.Sweep(riskValues, ddValues, func(p risk.SweepParams) risk.Analysis {
		sizer := risk.NewPositionSizer(cfg.Risk.Capital)
		sizer.RiskPerTrade = p.RiskPerTrade
		if cfg.Risk.MaxPositionPct > 0 {
			sizer.MaxPositionPct = cfg.Risk.MaxPositionPct
		}

		engine := backtest.NewEngine(backtest.EngineConfig{
			ContractMultiplier: cfg.Backtest.ContractMultiplier,
			MaxWorkers:         cfg.Backtest.MaxWorkers,
			MaxSignals:         *maxSignals,
			Sizer:              sizer,
		}, logger)

		rep, err := engine.Run(ctx, signals, quotes)
		if err != nil {
			log.Fatalf("backtest run (risk=%v drawdown=%v): %v",
				p.RiskPerTrade, p.MaxDrawdownPct, err)
		}
		return risk.Analyze(rep.Trades, cfg.Risk.Capital, p.MaxDrawdownPct)
	})

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Risk/Trade", "DDLimit", "Trades", "FinalEquity", "MaxDD", "DDLimitHit", "CAGR", "Sharpe")
	for _, r := range results {
		breached := "no"
		if r.Analysis.LimitBreached {
			breached = "YES"
		}
		table.Append(
			fmt.Sprintf("%.2f%%", r.Params.RiskPerTrade*100),
			fmt.Sprintf("%.0f%%", r.Params.MaxDrawdownPct*100),
			fmt.Sprintf("%d", r.Analysis.TradesApplied),
			fmt.Sprintf("%.2f", r.Analysis.FinalEquity),
			fmt.Sprintf("%.2f%%", r.Analysis.MaxDrawdown*100),
			breached,
			fmt.Sprintf("%.2f%%", r.Analysis.CAGR*100),
			fmt.Sprintf("%.2f", r.Analysis.Sharpe),
		)
	}
	table.Render()
}

// parseFloats parses a comma-separated list of floats.
func parseFloats(list string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", part, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}
