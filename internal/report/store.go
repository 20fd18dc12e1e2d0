// Package report persists backtest output: the per-trade report table and
// the run summary. The trade table round-trips through Parquet (columnar
// exchange) and runs are archived in SQLite for later comparison.
package report

import (
	"context"
	"time"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/backtest"
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

// RunInfo is one archived backtest run.
type RunInfo struct {
	ID          string
	CreatedAt   time.Time
	TotalTrades int
	Closed      int
	TotalPnL    float64
	WinRate     float64
}

// Store archives backtest reports and retrieves them by run.
type Store interface {
	// SaveReport archives a report and returns the generated run ID.
	SaveReport(ctx context.Context, report *backtest.Report) (string, error)

	// ListRuns returns archived runs, most recent first.
	ListRuns(ctx context.Context) ([]RunInfo, error)

	// ReadTrades returns the trade table of an archived run in signal
	// order.
	ReadTrades(ctx context.Context, runID string) ([]domain.Trade, error)
}
