package backtest

import (
	"math"
	"testing"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

func closedTrade(pnl float64) domain.Trade {
	return domain.Trade{State: domain.TradeStateClosed, PnL: &pnl}
}

func TestSummarize(t *testing.T) {
	trades := []domain.Trade{
		closedTrade(10),
		closedTrade(-4),
		closedTrade(6),
		closedTrade(-2),
		{State: domain.TradeStateUnmatchedEntry},
		{State: domain.TradeStateUnmatchedExit},
	}

	s := Summarize(trades)

	if s.TotalTrades != 6 {
		t.Errorf("TotalTrades = %d, want 6", s.TotalTrades)
	}
	if s.Closed != 4 {
		t.Errorf("Closed = %d, want 4", s.Closed)
	}
	if s.UnmatchedEntry != 1 || s.UnmatchedExit != 1 {
		t.Errorf("unmatched counts = %d/%d, want 1/1", s.UnmatchedEntry, s.UnmatchedExit)
	}
	if s.TotalPnL != 10 {
		t.Errorf("TotalPnL = %v, want 10", s.TotalPnL)
	}
	if s.AvgPnL != 2.5 {
		t.Errorf("AvgPnL = %v, want 2.5", s.AvgPnL)
	}
	if s.WinRate != 0.5 {
		t.Errorf("WinRate = %v, want 0.5", s.WinRate)
	}
	if s.MaxProfit != 10 || s.MaxLoss != -4 {
		t.Errorf("MaxProfit/MaxLoss = %v/%v, want 10/-4", s.MaxProfit, s.MaxLoss)
	}
	if s.AvgWin != 8 {
		t.Errorf("AvgWin = %v, want 8", s.AvgWin)
	}
	if s.AvgLoss != -3 {
		t.Errorf("AvgLoss = %v, want -3", s.AvgLoss)
	}
	if s.ProfitFactor != 16.0/6.0 {
		t.Errorf("ProfitFactor = %v, want %v", s.ProfitFactor, 16.0/6.0)
	}
}

func TestSummarizeNoLosses(t *testing.T) {
	s := Summarize([]domain.Trade{closedTrade(1), closedTrade(2)})
	if !math.IsInf(s.ProfitFactor, 1) {
		t.Errorf("ProfitFactor = %v, want +Inf when there are no losses", s.ProfitFactor)
	}
	if s.WinRate != 1 {
		t.Errorf("WinRate = %v, want 1", s.WinRate)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalTrades != 0 || s.AvgPnL != 0 || s.WinRate != 0 || s.ProfitFactor != 0 {
		t.Errorf("zero-trade summary should be all zeros, got %+v", s)
	}
}

func TestSummarizeDoesNotMutate(t *testing.T) {
	pnl := 3.0
	trades := []domain.Trade{{State: domain.TradeStateClosed, PnL: &pnl}}
	_ = Summarize(trades)
	if *trades[0].PnL != 3.0 || trades[0].State != domain.TradeStateClosed {
		t.Error("Summarize must not mutate its input")
	}
}
