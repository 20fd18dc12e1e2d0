// Package backtest implements the matching-and-simulation core: a composite
// key index over market data, a signal matcher, a trade builder, the backtest
// engine driving each trade's lifecycle, and the result aggregator.
package backtest

import (
	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

// MarketIndex provides O(1)-expected lookup from the composite key
// (quote date, strike, expire date) to the matching market rows. It is built
// once per run and is immutable afterwards, so it is safe to share read-only
// across matcher workers.
type MarketIndex struct {
	buckets   map[domain.Key][]domain.MarketQuote
	total     int
	malformed int
}

// BuildIndex constructs a MarketIndex over the full market dataset. Rows with
// an unusable join key (zero dates, non-positive strike) are skipped and
// counted as malformed; they never reach matching. Order within a bucket
// preserves the original input order, which makes downstream ambiguity
// resolution deterministic.
func BuildIndex(quotes []domain.MarketQuote) *MarketIndex {
	ix := &MarketIndex{
		buckets: make(map[domain.Key][]domain.MarketQuote, len(quotes)),
	}
	for _, q := range quotes {
		k := q.Key()
		if !k.Valid() {
			ix.malformed++
			continue
		}
		ix.buckets[k] = append(ix.buckets[k], q)
		ix.total++
	}
	return ix
}

// Lookup returns the market rows at the given key in original input order.
// It never fails: an absent key yields an empty slice.
func (ix *MarketIndex) Lookup(k domain.Key) []domain.MarketQuote {
	return ix.buckets[k]
}

// Len returns the number of indexed rows.
func (ix *MarketIndex) Len() int { return ix.total }

// Malformed returns the number of rows skipped for unusable join keys.
func (ix *MarketIndex) Malformed() int { return ix.malformed }
