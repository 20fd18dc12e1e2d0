package risk

import (
	"math"
	"time"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

// tradingDaysPerYear annualises per-trade return volatility for the Sharpe
// ratio.
const tradingDaysPerYear = 252

// Analysis is the risk view of one backtest run: the equity curve walked
// trade by trade under a drawdown limit.
type Analysis struct {
	// StartCapital is the equity the curve starts from.
	StartCapital float64

	// FinalEquity is the equity after the last applied trade.
	FinalEquity float64

	// MaxDrawdown is the deepest peak-to-trough drawdown observed, as a
	// fraction in [0,1].
	MaxDrawdown float64

	// LimitBreached reports whether the drawdown limit tripped; trades
	// after the breach are not applied.
	LimitBreached bool

	// TradesApplied counts the closed trades applied to the curve.
	TradesApplied int

	// CAGR is the compound annual growth rate between the first applied
	// trade's entry and the last applied trade's exit.
	CAGR float64

	// Sharpe is the annualised mean-over-volatility of per-trade returns;
	// 0 when fewer than two trades were applied or volatility is zero.
	Sharpe float64
}

// Analyze walks the closed trades in the given order, accumulating their pnl
// into an equity curve guarded by a DrawdownLimiter. Once the limiter trips,
// remaining trades are ignored, as a live portfolio under that limit would
// have stopped trading. Non-closed trades never touch the curve.
func Analyze(trades []domain.Trade, capital, maxDrawdownPct float64) Analysis {
	a := Analysis{StartCapital: capital, FinalEquity: capital}
	if capital <= 0 {
		return a
	}

	limiter := NewDrawdownLimiter(capital, maxDrawdownPct)
	equity := capital
	var returns []float64
	var firstEntry, lastExit time.Time

	for _, t := range trades {
		if t.State != domain.TradeStateClosed || t.PnL == nil {
			continue
		}
		if a.LimitBreached {
			continue
		}

		prev := equity
		equity += *t.PnL
		a.TradesApplied++
		returns = append(returns, (equity-prev)/prev)

		if firstEntry.IsZero() {
			firstEntry = t.EntryDate
		}
		lastExit = t.ExitDate

		if !limiter.UpdateEquity(equity) {
			a.LimitBreached = true
		}
		if dd := limiter.Drawdown(); dd > a.MaxDrawdown {
			a.MaxDrawdown = dd
		}
	}

	a.FinalEquity = equity
	if a.TradesApplied > 0 {
		a.CAGR = CAGR(capital, equity, firstEntry, lastExit)
	}
	a.Sharpe = sharpe(returns)
	return a
}

// sharpe annualises the mean/stddev of per-trade returns. The population
// standard deviation is used.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}

// ---------------------------------------------------------------------------
// Parameter sweep
// ---------------------------------------------------------------------------

// SweepParams is one point of the risk parameter grid.
type SweepParams struct {
	RiskPerTrade   float64
	MaxDrawdownPct float64
}

// SweepResult pairs a grid point with the analysis of its run.
type SweepResult struct {
	Params   SweepParams
	Analysis Analysis
}

// Sweep evaluates run over the full cross product of the two parameter
// lists, in order: riskPerTrade outer, maxDrawdownPct inner. run is expected
// to execute a backtest under those parameters and return its risk analysis.
func Sweep(riskPerTrade, maxDrawdownPct []float64, run func(SweepParams) Analysis) []SweepResult {
	results := make([]SweepResult, 0, len(riskPerTrade)*len(maxDrawdownPct))
	for _, rpt := range riskPerTrade {
		for _, dd := range maxDrawdownPct {
			p := SweepParams{RiskPerTrade: rpt, MaxDrawdownPct: dd}
			results = append(results, SweepResult{Params: p, Analysis: run(p)})
		}
	}
	return results
}
