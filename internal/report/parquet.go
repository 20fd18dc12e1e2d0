package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

// TradeRecord is the Parquet schema for the trade-report table. Every field
// of the tabular exchange contract survives a write/read cycle; pnl is
// optional so that non-closed trades stay distinguishable from zero-pnl
// trades.
type TradeRecord struct {
	SignalIndex  int64    `parquet:"signal_index"`
	EntryDate    int64    `parquet:"entry_date,timestamp(millisecond)"` // Unix ms
	ExitDate     int64    `parquet:"exit_date,timestamp(millisecond)"`  // Unix ms
	Strike       float64  `parquet:"strike"`
	Action       string   `parquet:"action"`
	PositionType string   `parquet:"position_type"`
	Confidence   float64  `parquet:"confidence"`
	Quantity     int64    `parquet:"quantity"`
	EntryPrice   float64  `parquet:"entry_price"`
	ExitPrice    float64  `parquet:"exit_price"`
	PnL          *float64 `parquet:"pnl,optional"`
	State        string   `parquet:"state"`
}

// WriteTradeReport writes the trade table to a Parquet file, creating parent
// directories as needed.
func WriteTradeReport(path string, trades []domain.Trade) error {
	records := make([]TradeRecord, 0, len(trades))
	for _, t := range trades {
		records = append(records, toRecord(t))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing trade report: %w", err)
	}
	return nil
}

// ReadTradeReport reads a trade table previously written by
// WriteTradeReport, preserving row order.
func ReadTradeReport(path string) ([]domain.Trade, error) {
	records, err := parquet.ReadFile[TradeRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading trade report: %w", err)
	}

	trades := make([]domain.Trade, 0, len(records))
	for _, r := range records {
		trades = append(trades, fromRecord(r))
	}
	return trades, nil
}

func toRecord(t domain.Trade) TradeRecord {
	return TradeRecord{
		SignalIndex:  int64(t.SignalIndex),
		EntryDate:    t.EntryDate.UnixMilli(),
		ExitDate:     t.ExitDate.UnixMilli(),
		Strike:       t.Strike,
		Action:       string(t.Action),
		PositionType: string(t.PositionType),
		Confidence:   t.Confidence,
		Quantity:     int64(t.Quantity),
		EntryPrice:   t.EntryPrice,
		ExitPrice:    t.ExitPrice,
		PnL:          t.PnL,
		State:        string(t.State),
	}
}

func fromRecord(r TradeRecord) domain.Trade {
	t := domain.Trade{
		SignalIndex:  int(r.SignalIndex),
		EntryDate:    time.UnixMilli(r.EntryDate).UTC(),
		ExitDate:     time.UnixMilli(r.ExitDate).UTC(),
		Strike:       r.Strike,
		Action:       domain.Action(r.Action),
		PositionType: domain.PositionType(r.PositionType),
		Confidence:   r.Confidence,
		Quantity:     int(r.Quantity),
		EntryPrice:   r.EntryPrice,
		ExitPrice:    r.ExitPrice,
		PnL:          r.PnL,
		State:        domain.TradeState(r.State),
	}
	t.Sign = t.Action.Sign()
	return t
}
