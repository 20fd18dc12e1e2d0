// Package loader reads the two tabular inputs of a backtest run — the
// signals table and the end-of-day options market table — from CSV files.
// It is a thin ingestion wrapper around the core: it validates the schema,
// normalises vendor quirks (bracketed headers, UTF-16 exports), and skips
// rows whose join-key fields cannot be parsed.
package loader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

// Required join-key and value columns per table. Construction of the index
// cannot proceed without these, so their absence is fatal.
var (
	marketRequired = []string{"QUOTE_DATE", "EXPIRE_DATE", "STRIKE", "UNDERLYING_LAST"}
	signalRequired = []string{"QUOTE_DATE", "STRIKE", "EXPIRE_DATE", "POSITION_TYPE", "CONFIDENCE"}
)

// dateLayouts are tried in order when parsing date cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
}

// Stats reports how many data rows a load touched and how many were skipped
// for unparsable join-key fields. Malformed rows never reach matching and
// are counted separately from unmatched signals.
type Stats struct {
	Rows      int
	Malformed int
}

// ---------------------------------------------------------------------------
// Market table
// ---------------------------------------------------------------------------

// ReadMarketFile loads the market-data table from a CSV file.
func ReadMarketFile(path string, log *slog.Logger) ([]domain.MarketQuote, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("opening market data: %w", err)
	}
	defer f.Close()
	return ReadMarket(f, log)
}

// ReadMarket parses the market-data table from r. It returns a SchemaError
// when required columns are missing; malformed rows are skipped with a
// warning and counted, never fatal.
func ReadMarket(r io.Reader, log *slog.Logger) ([]domain.MarketQuote, Stats, error) {
	if log == nil {
		log = slog.Default()
	}

	header, rows, err := readTable(r)
	if err != nil {
		return nil, Stats{}, err
	}
	if missing := missingColumns(header, marketRequired); len(missing) > 0 {
		return nil, Stats{}, &domain.SchemaError{Table: "market", Missing: missing}
	}

	var quotes []domain.MarketQuote
	stats := Stats{}
	for i, row := range rows {
		stats.Rows++
		cells := cellReader{header: header, row: row}

		qd, qdErr := cells.date("QUOTE_DATE")
		ed, edErr := cells.date("EXPIRE_DATE")
		strike, stErr := cells.float("STRIKE")
		if qdErr != nil || edErr != nil || stErr != nil || !domain.NewKey(qd, strike, ed).Valid() {
			stats.Malformed++
			log.Warn("skipping malformed market row", "row", i+2)
			continue
		}

		quotes = append(quotes, domain.MarketQuote{
			QuoteDate:      qd,
			ExpireDate:     ed,
			Strike:         strike,
			UnderlyingLast: cells.floatOr("UNDERLYING_LAST", 0),
			DTE:            cells.floatOr("DTE", 0),
			Call: domain.OptionQuote{
				Bid: cells.floatOr("C_BID", 0),
				Ask: cells.floatOr("C_ASK", 0),
				IV:  cells.floatOr("C_IV", 0),
				Greeks: domain.Greeks{
					Delta: cells.floatOr("C_DELTA", 0),
					Gamma: cells.floatOr("C_GAMMA", 0),
					Theta: cells.floatOr("C_THETA", 0),
					Vega:  cells.floatOr("C_VEGA", 0),
					Rho:   cells.floatOr("C_RHO", 0),
				},
				Volume: cells.floatOr("C_VOLUME", 0),
			},
			Put: domain.OptionQuote{
				Bid: cells.floatOr("P_BID", 0),
				Ask: cells.floatOr("P_ASK", 0),
				IV:  cells.floatOr("P_IV", 0),
				Greeks: domain.Greeks{
					Delta: cells.floatOr("P_DELTA", 0),
					Gamma: cells.floatOr("P_GAMMA", 0),
					Theta: cells.floatOr("P_THETA", 0),
					Vega:  cells.floatOr("P_VEGA", 0),
					Rho:   cells.floatOr("P_RHO", 0),
				},
				Volume: cells.floatOr("P_VOLUME", 0),
			},
			StrikeDistance:    cells.floatOr("STRIKE_DISTANCE", 0),
			StrikeDistancePct: cells.floatOr("STRIKE_DISTANCE_PCT", 0),
		})
	}
	return quotes, stats, nil
}

// ---------------------------------------------------------------------------
// Signals table
// ---------------------------------------------------------------------------

// ReadSignalsFile loads the signals table from a CSV file.
func ReadSignalsFile(path string, log *slog.Logger) ([]domain.Signal, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("opening signals: %w", err)
	}
	defer f.Close()
	return ReadSignals(f, log)
}

// ReadSignals parses the signals table from r. The trade direction may come
// from either an "action" or a "trade_type" column; an optional
// "entry_price" column, when present and non-empty, carries the explicit
// entry price that takes priority over market-derived pricing.
func ReadSignals(r io.Reader, log *slog.Logger) ([]domain.Signal, Stats, error) {
	if log == nil {
		log = slog.Default()
	}

	header, rows, err := readTable(r)
	if err != nil {
		return nil, Stats{}, err
	}
	if missing := missingColumns(header, signalRequired); len(missing) > 0 {
		return nil, Stats{}, &domain.SchemaError{Table: "signals", Missing: missing}
	}
	if _, hasAction := header["ACTION"]; !hasAction {
		if _, hasTradeType := header["TRADE_TYPE"]; !hasTradeType {
			return nil, Stats{}, &domain.SchemaError{Table: "signals", Missing: []string{"ACTION"}}
		}
	}

	var signals []domain.Signal
	stats := Stats{}
	for i, row := range rows {
		stats.Rows++
		cells := cellReader{header: header, row: row}

		qd, qdErr := cells.date("QUOTE_DATE")
		ed, edErr := cells.date("EXPIRE_DATE")
		strike, stErr := cells.float("STRIKE")
		action, acErr := parseAction(cells.stringOr("ACTION", cells.stringOr("TRADE_TYPE", "")))
		if qdErr != nil || edErr != nil || stErr != nil || acErr != nil ||
			!domain.NewKey(qd, strike, ed).Valid() {
			stats.Malformed++
			log.Warn("skipping malformed signal row", "row", i+2)
			continue
		}

		sig := domain.Signal{
			QuoteDate:    qd,
			Strike:       strike,
			ExpireDate:   ed,
			Action:       action,
			PositionType: domain.PositionType(strings.ToLower(cells.stringOr("POSITION_TYPE", ""))),
			Confidence:   cells.floatOr("CONFIDENCE", 0),
		}
		if raw := cells.stringOr("ENTRY_PRICE", ""); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				sig.EntryPrice = &v
			}
		}
		signals = append(signals, sig)
	}
	return signals, stats, nil
}

func parseAction(raw string) (domain.Action, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy", "long":
		return domain.ActionBuy, nil
	case "sell", "short":
		return domain.ActionSell, nil
	}
	return "", fmt.Errorf("unknown action %q", raw)
}

// ---------------------------------------------------------------------------
// CSV plumbing
// ---------------------------------------------------------------------------

// readTable reads a whole CSV table: decoded input, normalised header map
// (column name → index), and the data rows.
func readTable(r io.Reader) (map[string]int, [][]string, error) {
	cr := csv.NewReader(decodeBOM(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	raw, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("reading csv: empty input")
	}

	header := make(map[string]int, len(raw[0]))
	for i, name := range raw[0] {
		header[NormalizeColumn(name)] = i
	}
	return header, raw[1:], nil
}

// decodeBOM detects a UTF-16 byte-order mark and transparently decodes the
// stream to UTF-8. Some vendor EOD exports ship as UTF-16.
func decodeBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, _ := br.Peek(2); len(b) >= 2 &&
		((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		endian := unicode.LittleEndian
		if b[0] == 0xFE {
			endian = unicode.BigEndian
		}
		return transform.NewReader(br, unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder())
	}
	return br
}

// NormalizeColumn strips the vendor bracket notation ("[QUOTE_DATE]"),
// surrounding whitespace, and a UTF-8 BOM, and upper-cases the name so that
// lookups are case-insensitive.
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ReplaceAll(name, "[", "")
	name = strings.ReplaceAll(name, "]", "")
	return strings.ToUpper(strings.TrimSpace(name))
}

func missingColumns(header map[string]int, required []string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// cellReader accesses one row by normalised column name.
type cellReader struct {
	header map[string]int
	row    []string
}

func (c cellReader) stringOr(col, fallback string) string {
	i, ok := c.header[col]
	if !ok || i >= len(c.row) {
		return fallback
	}
	v := strings.TrimSpace(c.row[i])
	if v == "" {
		return fallback
	}
	return v
}

func (c cellReader) float(col string) (float64, error) {
	raw := c.stringOr(col, "")
	if raw == "" {
		return 0, fmt.Errorf("column %s: empty", col)
	}
	return strconv.ParseFloat(raw, 64)
}

func (c cellReader) floatOr(col string, fallback float64) float64 {
	v, err := c.float(col)
	if err != nil {
		return fallback
	}
	return v
}

func (c cellReader) date(col string) (time.Time, error) {
	raw := c.stringOr(col, "")
	if raw == "" {
		return time.Time{}, fmt.Errorf("column %s: empty", col)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("column %s: unparsable date %q", col, raw)
}
