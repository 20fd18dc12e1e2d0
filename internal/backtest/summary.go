package backtest

import (
	"math"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

// Summary holds portfolio-level statistics reduced from a trade set. All
// pnl-derived figures cover closed trades only.
type Summary struct {
	TotalTrades    int
	Closed         int
	UnmatchedEntry int
	UnmatchedExit  int

	TotalPnL float64
	AvgPnL   float64
	WinRate  float64

	MaxProfit float64
	MaxLoss   float64
	AvgWin    float64
	AvgLoss   float64

	// ProfitFactor is gross profit over gross loss; +Inf when there are
	// wins but no losses, 0 when there are no closed trades.
	ProfitFactor float64
}

// Summarize reduces the trade set into a Summary. It is a pure function of
// its input and never mutates the trades.
func Summarize(trades []domain.Trade) Summary {
	s := Summary{TotalTrades: len(trades)}

	var wins, losses int
	var grossProfit, grossLoss float64

	for _, t := range trades {
		switch t.State {
		case domain.TradeStateUnmatchedEntry:
			s.UnmatchedEntry++
			continue
		case domain.TradeStateUnmatchedExit:
			s.UnmatchedExit++
			continue
		case domain.TradeStateClosed:
		default:
			continue
		}
		if t.PnL == nil {
			continue
		}
		pnl := *t.PnL

		s.Closed++
		s.TotalPnL += pnl
		if pnl > 0 {
			wins++
			grossProfit += pnl
			if pnl > s.MaxProfit {
				s.MaxProfit = pnl
			}
		} else if pnl < 0 {
			losses++
			grossLoss += -pnl
			if pnl < s.MaxLoss {
				s.MaxLoss = pnl
			}
		}
	}

	if s.Closed > 0 {
		s.AvgPnL = s.TotalPnL / float64(s.Closed)
		s.WinRate = float64(wins) / float64(s.Closed)
	}
	if wins > 0 {
		s.AvgWin = grossProfit / float64(wins)
	}
	if losses > 0 {
		s.AvgLoss = -grossLoss / float64(losses)
	}
	switch {
	case grossLoss > 0:
		s.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		s.ProfitFactor = math.Inf(1)
	}
	return s
}
