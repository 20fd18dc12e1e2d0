// Package domain defines the core records exchanged between the backtest
// components: market quotes, trading signals, and trade lifecycles.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Enumerations
// ---------------------------------------------------------------------------

// Action is the direction of a trade.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Sign returns +1 for buy/long actions and -1 for sell/short actions. The
// sign is fixed on the Trade at build time and never recomputed.
func (a Action) Sign() float64 {
	if a == ActionSell {
		return -1
	}
	return 1
}

// OptionSide selects the call or put columns of a market quote.
type OptionSide string

const (
	SideCall OptionSide = "call"
	SidePut  OptionSide = "put"
)

// PositionType names an option strategy leg, e.g. "short_put" or "long_call".
type PositionType string

// Side maps the position type onto the call or put side of a quote. Any
// position type containing "put" is treated as a put; everything else is a
// call.
func (p PositionType) Side() OptionSide {
	if strings.Contains(strings.ToLower(string(p)), "put") {
		return SidePut
	}
	return SideCall
}

// TradeState is the lifecycle state of a Trade.
type TradeState string

const (
	TradeStatePending        TradeState = "pending"
	TradeStateOpen           TradeState = "open"
	TradeStateClosed         TradeState = "closed"
	TradeStateUnmatchedEntry TradeState = "unmatched_entry"
	TradeStateUnmatchedExit  TradeState = "unmatched_exit"
)

// Terminal reports whether the state admits no further transitions.
func (s TradeState) Terminal() bool {
	switch s {
	case TradeStateClosed, TradeStateUnmatchedEntry, TradeStateUnmatchedExit:
		return true
	}
	return false
}

// legalTransitions encodes the trade state machine:
// PENDING → {OPEN, UNMATCHED_ENTRY}; OPEN → {CLOSED, UNMATCHED_EXIT}.
var legalTransitions = map[TradeState][]TradeState{
	TradeStatePending: {TradeStateOpen, TradeStateUnmatchedEntry},
	TradeStateOpen:    {TradeStateClosed, TradeStateUnmatchedExit},
}

// ---------------------------------------------------------------------------
// Composite key
// ---------------------------------------------------------------------------

// Key identifies a specific option contract snapshot by quote date, strike,
// and expiration date. Dates are normalised to UTC midnight and the strike is
// stored in cents so that float strikes hash deterministically.
type Key struct {
	QuoteDate   int64 // Unix seconds at UTC midnight
	StrikeCents int64
	ExpireDate  int64 // Unix seconds at UTC midnight
}

// NewKey builds a composite key from raw quote fields.
func NewKey(quoteDate time.Time, strike float64, expireDate time.Time) Key {
	return Key{
		QuoteDate:   dateOnly(quoteDate),
		StrikeCents: int64(math.Round(strike * 100)),
		ExpireDate:  dateOnly(expireDate),
	}
}

// Valid reports whether all three key fields are usable for matching. Rows
// failing this check are malformed and never reach the matcher.
func (k Key) Valid() bool {
	return k.QuoteDate != 0 && k.ExpireDate != 0 && k.StrikeCents > 0
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%.2f/%s",
		time.Unix(k.QuoteDate, 0).UTC().Format("2006-01-02"),
		float64(k.StrikeCents)/100,
		time.Unix(k.ExpireDate, 0).UTC().Format("2006-01-02"))
}

func dateOnly(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Greeks holds the option sensitivity measures carried through from market
// data. They are pass-through fields, unused by the matching and pnl logic.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// OptionQuote is one side (call or put) of an end-of-day option snapshot.
type OptionQuote struct {
	Bid    float64
	Ask    float64
	IV     float64
	Greeks Greeks
	Volume float64
}

// Mid returns the bid/ask midpoint, or 0 when neither side is quoted.
func (o OptionQuote) Mid() float64 {
	if o.Bid == 0 && o.Ask == 0 {
		return 0
	}
	return (o.Bid + o.Ask) / 2
}

// MarketQuote is one immutable end-of-day market data row.
type MarketQuote struct {
	QuoteDate         time.Time
	ExpireDate        time.Time
	Strike            float64
	UnderlyingLast    float64
	DTE               float64
	Call              OptionQuote
	Put               OptionQuote
	StrikeDistance    float64
	StrikeDistancePct float64
}

// Key returns the composite join key of the quote.
func (q MarketQuote) Key() Key {
	return NewKey(q.QuoteDate, q.Strike, q.ExpireDate)
}

// Side returns the requested option side of the quote.
func (q MarketQuote) Side(side OptionSide) OptionQuote {
	if side == SidePut {
		return q.Put
	}
	return q.Call
}

// ---------------------------------------------------------------------------
// Signals
// ---------------------------------------------------------------------------

// Signal is one externally produced trading signal. Signals are read-only to
// the engine.
type Signal struct {
	QuoteDate    time.Time
	Strike       float64
	ExpireDate   time.Time
	Action       Action
	PositionType PositionType
	Confidence   float64

	// EntryPrice, when non-nil, takes priority over any market-derived
	// entry price.
	EntryPrice *float64
}

// Key returns the composite join key of the signal.
func (s Signal) Key() Key {
	return NewKey(s.QuoteDate, s.Strike, s.ExpireDate)
}

// ---------------------------------------------------------------------------
// Trades
// ---------------------------------------------------------------------------

// Trade is the lifecycle record produced for every signal. It is mutable
// while owned by the engine and immutable once it reaches a terminal state.
type Trade struct {
	SignalIndex  int
	Action       Action
	PositionType PositionType
	EntryDate    time.Time
	ExitDate     time.Time
	Strike       float64
	Confidence   float64
	Quantity     int

	// Sign is +1 for long/buy and -1 for short/sell, fixed at build time.
	Sign float64

	EntryPrice float64
	ExitPrice  float64

	// PnL is defined only for closed trades; nil otherwise.
	PnL *float64

	State TradeState
}

// Transition moves the trade to the next state, enforcing the monotonic
// state machine. Terminal states admit no further transitions.
func (t *Trade) Transition(to TradeState) error {
	for _, next := range legalTransitions[t.State] {
		if next == to {
			t.State = to
			return nil
		}
	}
	return fmt.Errorf("illegal trade transition %s -> %s", t.State, to)
}
