package backtest

import (
	"context"
	"log/slog"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

// EngineConfig holds the tunable parameters of a backtest run.
type EngineConfig struct {
	// ContractMultiplier scales pnl for contract sizing (100 for standard
	// US equity options). Defaults to 1.
	ContractMultiplier float64

	// Quantity is the number of contracts per trade. Defaults to 1.
	Quantity int

	// MaxWorkers bounds matcher parallelism; values below 2 run serially.
	MaxWorkers int

	// MaxSignals caps the number of signals processed per run; 0 means no
	// cap. The cap is a deterministic prefix, never a random sample.
	MaxSignals int

	// Sizer, when non-nil, sizes each position from its resolved entry
	// price and the signal's confidence instead of the fixed Quantity.
	Sizer Sizer
}

// RunStats counts every non-fatal condition encountered during a run.
type RunStats struct {
	Signals          int
	MatchedSignals   int
	UnmatchedSignals int
	Truncated        int

	Closed           int
	UnmatchedEntry   int
	UnmatchedExit    int
	AmbiguousMatches int
	MalformedRows    int
}

// Report is the complete output of one backtest run: one trade per signal in
// input order, run statistics, and the portfolio summary.
type Report struct {
	Trades  []domain.Trade
	Stats   RunStats
	Summary Summary
}

// Engine orchestrates matching and trade building across a signal set,
// drives each trade's lifecycle, and aggregates results.
type Engine struct {
	cfg     EngineConfig
	builder *TradeBuilder
	log     *slog.Logger
}

// NewEngine creates an Engine with the given configuration.
func NewEngine(cfg EngineConfig, log *slog.Logger) *Engine {
	if cfg.ContractMultiplier <= 0 {
		cfg.ContractMultiplier = 1
	}
	if cfg.Quantity < 1 {
		cfg.Quantity = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:     cfg,
		builder: NewTradeBuilder(cfg.Quantity, cfg.Sizer, log),
		log:     log,
	}
}

// Run executes a full backtest: index construction, matching, trade building,
// and aggregation. Every signal is processed exactly once and yields exactly
// one trade; a failure to resolve one trade never aborts the run. Run is
// deterministic: identical inputs produce an identical report regardless of
// worker count. The context is checked between signals, so a caller can
// abort a batch; no single trade blocks on anything external.
func (e *Engine) Run(ctx context.Context, signals []domain.Signal, quotes []domain.MarketQuote) (*Report, error) {
	stats := RunStats{}

	if e.cfg.MaxSignals > 0 && len(signals) > e.cfg.MaxSignals {
		stats.Truncated = len(signals) - e.cfg.MaxSignals
		signals = signals[:e.cfg.MaxSignals]
		e.log.Info("signal cap applied",
			"processing", len(signals), "truncated", stats.Truncated)
	}
	stats.Signals = len(signals)

	// Index construction completes before any lookup begins; after this
	// barrier the index is immutable and shared read-only.
	ix := BuildIndex(quotes)
	stats.MalformedRows = ix.Malformed()
	e.log.Info("market index built",
		"rows", ix.Len(), "malformed", ix.Malformed())

	records, ms := MatchSignals(signals, ix, e.cfg.MaxWorkers)
	stats.MatchedSignals = ms.Matched
	stats.UnmatchedSignals = ms.Unmatched

	trades := make([]domain.Trade, 0, len(signals))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sig := signals[rec.SignalIndex]

		// Exit resolution is the same three-key composite lookup as entry,
		// quoted at the exit date (the option's expiration).
		exitKey := domain.NewKey(sig.ExpireDate, sig.Strike, sig.ExpireDate)
		res := e.builder.Build(rec.SignalIndex, sig, rec.Quotes, ix.Lookup(exitKey))
		stats.AmbiguousMatches += res.Ambiguous

		trade := res.Trade
		switch {
		case trade.State == domain.TradeStateUnmatchedEntry:
			stats.UnmatchedEntry++
		case res.HasExit:
			trade.ExitPrice = res.ExitPrice
			if err := trade.Transition(domain.TradeStateClosed); err != nil {
				return nil, err
			}
			pnl := trade.Sign * (trade.ExitPrice - trade.EntryPrice) *
				e.cfg.ContractMultiplier * float64(trade.Quantity)
			trade.PnL = &pnl
			stats.Closed++
		default:
			if err := trade.Transition(domain.TradeStateUnmatchedExit); err != nil {
				return nil, err
			}
			stats.UnmatchedExit++
		}
		trades = append(trades, trade)
	}

	report := &Report{
		Trades:  trades,
		Stats:   stats,
		Summary: Summarize(trades),
	}
	e.log.Info("backtest complete",
		"trades", len(trades),
		"closed", stats.Closed,
		"unmatched_entry", stats.UnmatchedEntry,
		"unmatched_exit", stats.UnmatchedExit,
		"ambiguous", stats.AmbiguousMatches,
		"total_pnl", report.Summary.TotalPnL)
	return report, nil
}
