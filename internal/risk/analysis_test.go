package risk

import (
	"math"
	"testing"
	"time"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

func closed(pnl float64, entry, exit time.Time) domain.Trade {
	return domain.Trade{
		State:     domain.TradeStateClosed,
		PnL:       &pnl,
		EntryDate: entry,
		ExitDate:  exit,
	}
}

func TestAnalyze(t *testing.T) {
	jan := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)

	trades := []domain.Trade{
		closed(10000, jan, jan.AddDate(0, 1, 0)),
		closed(-5000, jan.AddDate(0, 2, 0), jan.AddDate(0, 3, 0)),
		closed(2000, jan.AddDate(0, 4, 0), dec),
		{State: domain.TradeStateUnmatchedEntry}, // never touches the curve
	}

	a := Analyze(trades, 100000, 0.2)

	if a.TradesApplied != 3 {
		t.Errorf("TradesApplied = %d, want 3", a.TradesApplied)
	}
	if a.FinalEquity != 107000 {
		t.Errorf("FinalEquity = %v, want 107000", a.FinalEquity)
	}
	if a.LimitBreached {
		t.Error("20% limit must hold for a 4.5% drawdown")
	}
	// Peak 110000, trough 105000.
	if math.Abs(a.MaxDrawdown-5000.0/110000.0) > 1e-12 {
		t.Errorf("MaxDrawdown = %v, want 5000/110000", a.MaxDrawdown)
	}
	if a.CAGR <= 0 {
		t.Errorf("CAGR = %v, want positive for a profitable year", a.CAGR)
	}
	if a.Sharpe == 0 {
		t.Error("Sharpe should be defined for three varied returns")
	}
}

func TestAnalyzeBreachStopsApplying(t *testing.T) {
	d := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	trades := []domain.Trade{
		closed(10000, d, d.AddDate(0, 0, 7)),
		closed(-30000, d.AddDate(0, 1, 0), d.AddDate(0, 1, 7)),
		closed(50000, d.AddDate(0, 2, 0), d.AddDate(0, 2, 7)),
	}

	a := Analyze(trades, 100000, 0.1)

	if !a.LimitBreached {
		t.Fatal("27% drawdown must trip a 10% limit")
	}
	// The winning trade after the breach is never applied.
	if a.TradesApplied != 2 {
		t.Errorf("TradesApplied = %d, want 2", a.TradesApplied)
	}
	if a.FinalEquity != 80000 {
		t.Errorf("FinalEquity = %v, want 80000", a.FinalEquity)
	}
}

func TestAnalyzeNoClosedTrades(t *testing.T) {
	trades := []domain.Trade{{State: domain.TradeStateUnmatchedEntry}}
	a := Analyze(trades, 100000, 0.2)

	if a.FinalEquity != 100000 || a.TradesApplied != 0 {
		t.Errorf("empty analysis = %+v, want untouched capital", a)
	}
	if a.CAGR != 0 || a.Sharpe != 0 || a.MaxDrawdown != 0 {
		t.Errorf("empty analysis metrics must be zero, got %+v", a)
	}
}

func TestSweep(t *testing.T) {
	var seen []SweepParams
	results := Sweep(
		[]float64{0.01, 0.02},
		[]float64{0.1, 0.2},
		func(p SweepParams) Analysis {
			seen = append(seen, p)
			return Analysis{FinalEquity: p.RiskPerTrade * 1e6}
		},
	)

	if len(results) != 4 {
		t.Fatalf("got %d results, want the 2x2 grid", len(results))
	}
	// Deterministic order: risk outer, drawdown inner.
	want := []SweepParams{
		{0.01, 0.1}, {0.01, 0.2}, {0.02, 0.1}, {0.02, 0.2},
	}
	for i, p := range seen {
		if p != want[i] {
			t.Errorf("combination %d = %+v, want %+v", i, p, want[i])
		}
	}
	if results[2].Analysis.FinalEquity != 20000 {
		t.Errorf("result 2 FinalEquity = %v, want run output carried through", results[2].Analysis.FinalEquity)
	}
}
