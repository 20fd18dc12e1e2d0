package report

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/backtest"
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore archives backtest runs in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	created_at      TEXT NOT NULL,
	total_trades    INTEGER NOT NULL,
	closed          INTEGER NOT NULL,
	unmatched_entry INTEGER NOT NULL,
	unmatched_exit  INTEGER NOT NULL,
	ambiguous       INTEGER NOT NULL,
	malformed       INTEGER NOT NULL,
	total_pnl       REAL NOT NULL,
	avg_pnl         REAL NOT NULL,
	win_rate        REAL NOT NULL,
	profit_factor   REAL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	signal_index  INTEGER NOT NULL,
	entry_date    TEXT NOT NULL,
	exit_date     TEXT NOT NULL,
	strike        REAL NOT NULL,
	action        TEXT NOT NULL,
	position_type TEXT NOT NULL,
	confidence    REAL NOT NULL,
	quantity      INTEGER NOT NULL,
	entry_price   REAL NOT NULL,
	exit_price    REAL NOT NULL,
	pnl           REAL,
	state         TEXT NOT NULL,
	PRIMARY KEY (run_id, signal_index)
);
`

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveReport archives a complete report under a freshly generated run ID.
// The run row and all trade rows commit atomically.
func (s *SQLiteStore) SaveReport(ctx context.Context, report *backtest.Report) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	sum := report.Summary

	// SQLite has no IEEE infinity; an all-win run stores NULL.
	profitFactor := sql.NullFloat64{Float64: sum.ProfitFactor, Valid: !math.IsInf(sum.ProfitFactor, 0)}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, total_trades, closed, unmatched_entry,
			unmatched_exit, ambiguous, malformed, total_pnl, avg_pnl, win_rate, profit_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		time.Now().UTC().Format(time.RFC3339),
		sum.TotalTrades, sum.Closed, sum.UnmatchedEntry, sum.UnmatchedExit,
		report.Stats.AmbiguousMatches, report.Stats.MalformedRows,
		sum.TotalPnL, sum.AvgPnL, sum.WinRate, profitFactor,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (run_id, signal_index, entry_date, exit_date, strike,
			action, position_type, confidence, quantity, entry_price, exit_price, pnl, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, t := range report.Trades {
		pnl := sql.NullFloat64{}
		if t.PnL != nil {
			pnl = sql.NullFloat64{Float64: *t.PnL, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			runID, t.SignalIndex,
			t.EntryDate.UTC().Format("2006-01-02"),
			t.ExitDate.UTC().Format("2006-01-02"),
			t.Strike, string(t.Action), string(t.PositionType),
			t.Confidence, t.Quantity, t.EntryPrice, t.ExitPrice, pnl, string(t.State),
		)
		if err != nil {
			return "", fmt.Errorf("inserting trade %d: %w", t.SignalIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// ListRuns returns archived runs, most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, total_trades, closed, total_pnl, win_rate
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		var createdAt string
		if err := rows.Scan(&info.ID, &createdAt, &info.TotalTrades,
			&info.Closed, &info.TotalPnL, &info.WinRate); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			info.CreatedAt = ts
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// ReadTrades returns the trade table of an archived run in signal order.
func (s *SQLiteStore) ReadTrades(ctx context.Context, runID string) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signal_index, entry_date, exit_date, strike, action, position_type,
			confidence, quantity, entry_price, exit_price, pnl, state
		FROM trades WHERE run_id = ? ORDER BY signal_index`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var entryDate, exitDate, action, positionType, state string
		var pnl sql.NullFloat64
		if err := rows.Scan(&t.SignalIndex, &entryDate, &exitDate, &t.Strike,
			&action, &positionType, &t.Confidence, &t.Quantity,
			&t.EntryPrice, &t.ExitPrice, &pnl, &state); err != nil {
			return nil, err
		}
		t.EntryDate, _ = time.ParseInLocation("2006-01-02", entryDate, time.UTC)
		t.ExitDate, _ = time.ParseInLocation("2006-01-02", exitDate, time.UTC)
		t.Action = domain.Action(action)
		t.PositionType = domain.PositionType(positionType)
		t.State = domain.TradeState(state)
		t.Sign = t.Action.Sign()
		if pnl.Valid {
			v := pnl.Float64
			t.PnL = &v
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
