package backtest

import (
	"sync"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

// MatchedRecord is the ephemeral join result for one signal: the signal's
// position in the input and the market rows found at its composite key. A
// signal with zero matches still produces a record so coverage can be
// reported downstream.
type MatchedRecord struct {
	SignalIndex int
	Quotes      []domain.MarketQuote
}

// MatchStats reports matching coverage over a signal set.
type MatchStats struct {
	Total     int
	Matched   int
	Unmatched int
}

// MatchSignals resolves every signal against the index and returns exactly
// one MatchedRecord per signal, in input order. Signals are partitioned
// across up to workers goroutines; each worker writes results at the
// signal's own slot, so output order is independent of scheduling. The index
// must be fully built before the call (construction is the only write-heavy
// step; after it the index is read-only).
func MatchSignals(signals []domain.Signal, ix *MarketIndex, workers int) ([]MatchedRecord, MatchStats) {
	records := make([]MatchedRecord, len(signals))

	if workers < 1 {
		workers = 1
	}
	if workers > len(signals) {
		workers = len(signals)
	}

	if workers <= 1 {
		for i, sig := range signals {
			records[i] = matchOne(i, sig, ix)
		}
	} else {
		var wg sync.WaitGroup
		chunk := (len(signals) + workers - 1) / workers
		for start := 0; start < len(signals); start += chunk {
			end := start + chunk
			if end > len(signals) {
				end = len(signals)
			}
			wg.Add(1)
			go func(start, end int) {
				defer wg.Done()
				for i := start; i < end; i++ {
					records[i] = matchOne(i, signals[i], ix)
				}
			}(start, end)
		}
		wg.Wait()
	}

	stats := MatchStats{Total: len(signals)}
	for _, rec := range records {
		if len(rec.Quotes) > 0 {
			stats.Matched++
		} else {
			stats.Unmatched++
		}
	}
	return records, stats
}

func matchOne(i int, sig domain.Signal, ix *MarketIndex) MatchedRecord {
	return MatchedRecord{
		SignalIndex: i,
		Quotes:      ix.Lookup(sig.Key()),
	}
}
