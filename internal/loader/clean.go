package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// eodKeepColumns is the canonical column set of a cleaned EOD options
// file: the join keys plus pricing, greeks and volume for both sides.
var eodKeepColumns = []string{
	"QUOTE_DATE", "QUOTE_TIME_HOURS", "UNDERLYING_LAST", "EXPIRE_DATE", "DTE", "STRIKE",
	"C_BID", "C_ASK", "C_IV", "C_DELTA", "C_GAMMA", "C_THETA", "C_VEGA", "C_RHO", "C_VOLUME",
	"P_BID", "P_ASK", "P_IV", "P_DELTA", "P_GAMMA", "P_THETA", "P_VEGA", "P_RHO", "P_VOLUME",
	"STRIKE_DISTANCE", "STRIKE_DISTANCE_PCT",
}

// CleanEOD rewrites a raw vendor EOD options export as a normalised CSV:
// bracketed headers are stripped, only the canonical columns are kept (in
// canonical order), and when year is non-zero only rows whose QUOTE_DATE
// falls in that calendar year survive. Rows with unparsable quote dates are
// dropped and counted as malformed.
func CleanEOD(r io.Reader, w io.Writer, year int) (Stats, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return Stats{}, err
	}
	if _, ok := header["QUOTE_DATE"]; !ok {
		return Stats{}, fmt.Errorf("raw eod file has no QUOTE_DATE column")
	}

	// Map each kept column to its source index, skipping absent ones so
	// vendors with partial greeks still clean.
	type colRef struct {
		name string
		idx  int
	}
	var cols []colRef
	for _, name := range eodKeepColumns {
		if idx, ok := header[name]; ok {
			cols = append(cols, colRef{name: name, idx: idx})
		}
	}

	cw := csv.NewWriter(w)
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	if err := cw.Write(out); err != nil {
		return Stats{}, fmt.Errorf("writing header: %w", err)
	}

	stats := Stats{}
	for _, row := range rows {
		cells := cellReader{header: header, row: row}
		qd, err := cells.date("QUOTE_DATE")
		if err != nil {
			stats.Malformed++
			continue
		}
		if year != 0 && qd.Year() != year {
			continue
		}

		for i, c := range cols {
			if c.idx < len(row) {
				out[i] = row[c.idx]
			} else {
				out[i] = ""
			}
		}
		if err := cw.Write(out); err != nil {
			return stats, fmt.Errorf("writing row: %w", err)
		}
		stats.Rows++
	}
	cw.Flush()
	return stats, cw.Error()
}

// CleanEODFile is the file-path convenience wrapper around CleanEOD. The
// output directory is created if needed.
func CleanEODFile(inPath, outPath string, year int) (Stats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return Stats{}, fmt.Errorf("opening raw eod file: %w", err)
	}
	defer in.Close()

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Stats{}, fmt.Errorf("creating output dir: %w", err)
		}
	}
	out, err := os.Create(outPath)
	if err != nil {
		return Stats{}, fmt.Errorf("creating cleaned file: %w", err)
	}

	stats, err := CleanEOD(in, out, year)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return stats, err
}
