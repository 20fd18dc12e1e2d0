package backtest

import (
	"log/slog"
	"math"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

// Sizer decides how many contracts to trade once the entry price is known.
// A nil Sizer means the configured fixed quantity is used for every trade.
type Sizer interface {
	SizePosition(entryPrice, confidence float64) int
}

// TradeBuilder turns a signal plus its resolved entry-time and exit-time
// market rows into a Trade with entry and exit pricing.
type TradeBuilder struct {
	quantity int
	sizer    Sizer
	log      *slog.Logger
}

// NewTradeBuilder creates a TradeBuilder. quantity is the number of contracts
// per trade (minimum 1); a non-nil sizer overrides it per trade from the
// resolved entry price and the signal's confidence.
func NewTradeBuilder(quantity int, sizer Sizer, log *slog.Logger) *TradeBuilder {
	if quantity < 1 {
		quantity = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &TradeBuilder{quantity: quantity, sizer: sizer, log: log}
}

// BuildResult is the outcome of building one trade. The trade leaves the
// builder in state OPEN (entry resolved) or UNMATCHED_ENTRY (no entry rows);
// the engine owns the remaining transitions. Ambiguous counts composite keys
// that matched more than one market row.
type BuildResult struct {
	Trade     domain.Trade
	HasExit   bool
	ExitPrice float64
	Ambiguous int
}

// Build resolves prices for one signal. Entry price priority: the explicit
// price on the signal when present, otherwise the option premium mid of the
// relevant side from the best entry row, otherwise the underlying last. When
// a key matches more than one row the first row in original input order wins
// and the discarded alternatives are logged — never averaged.
func (b *TradeBuilder) Build(signalIndex int, sig domain.Signal, entry, exit []domain.MarketQuote) BuildResult {
	trade := domain.Trade{
		SignalIndex:  signalIndex,
		Action:       sig.Action,
		PositionType: sig.PositionType,
		EntryDate:    sig.QuoteDate,
		ExitDate:     sig.ExpireDate,
		Strike:       sig.Strike,
		Confidence:   sig.Confidence,
		Quantity:     b.quantity,
		Sign:         sig.Action.Sign(),
		State:        domain.TradeStatePending,
	}

	res := BuildResult{}

	if len(entry) == 0 {
		// No market row at the entry key. The trade is still created so it
		// stays visible in coverage statistics.
		_ = trade.Transition(domain.TradeStateUnmatchedEntry)
		res.Trade = trade
		return res
	}

	if len(entry) > 1 {
		res.Ambiguous++
		b.log.Warn("ambiguous entry match, using first row",
			"key", sig.Key().String(),
			"discarded", len(entry)-1)
	}
	best := entry[0]

	switch {
	case sig.EntryPrice != nil:
		trade.EntryPrice = *sig.EntryPrice
	case best.Side(sig.PositionType.Side()).Mid() > 0:
		trade.EntryPrice = best.Side(sig.PositionType.Side()).Mid()
	default:
		trade.EntryPrice = best.UnderlyingLast
	}
	if b.sizer != nil {
		trade.Quantity = b.sizer.SizePosition(trade.EntryPrice, sig.Confidence)
	}
	_ = trade.Transition(domain.TradeStateOpen)

	if len(exit) == 0 {
		res.Trade = trade
		return res
	}

	if len(exit) > 1 {
		res.Ambiguous++
		b.log.Warn("ambiguous exit match, using first row",
			"key", domain.NewKey(sig.ExpireDate, sig.Strike, sig.ExpireDate).String(),
			"discarded", len(exit)-1)
	}
	res.HasExit = true
	res.ExitPrice = exitPrice(sig, exit[0])
	res.Trade = trade
	return res
}

// exitPrice values the option at exit. Puts settle at intrinsic value
// against the underlying last. Calls use the quoted premium mid when one
// exists and fall back to intrinsic value otherwise.
func exitPrice(sig domain.Signal, q domain.MarketQuote) float64 {
	if sig.PositionType.Side() == domain.SidePut {
		return math.Max(sig.Strike-q.UnderlyingLast, 0)
	}
	if mid := q.Call.Mid(); mid > 0 {
		return mid
	}
	return math.Max(q.UnderlyingLast-sig.Strike, 0)
}
