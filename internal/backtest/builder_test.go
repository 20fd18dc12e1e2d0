package backtest

import (
	"testing"

	"github.com/kaushikd24/volatility-arbitrage-engine/internal/domain"
)

func TestBuildExplicitEntryPriceWins(t *testing.T) {
	d := day(2023, 8, 1)
	entry := 0.005
	sig := domain.Signal{
		QuoteDate:    d,
		Strike:       370,
		ExpireDate:   d,
		Action:       domain.ActionSell,
		PositionType: "short_put",
		Confidence:   0.999911,
		EntryPrice:   &entry,
	}
	row := quote(d, 370, d, 440.12)
	row.Put = domain.OptionQuote{Bid: 0.004, Ask: 0.006}

	b := NewTradeBuilder(1, nil, nil)
	res := b.Build(0, sig, []domain.MarketQuote{row}, nil)

	if res.Trade.State != domain.TradeStateOpen {
		t.Fatalf("state = %q, want open", res.Trade.State)
	}
	// Priority 1: the explicit signal price, not UNDERLYING_LAST and not
	// the quoted mid.
	if res.Trade.EntryPrice != 0.005 {
		t.Errorf("EntryPrice = %v, want 0.005", res.Trade.EntryPrice)
	}
	if res.Trade.Sign != -1 {
		t.Errorf("Sign = %v, want -1 for a sell", res.Trade.Sign)
	}
}

func TestBuildEntryPriceFromPremiumMid(t *testing.T) {
	d := day(2023, 8, 1)
	sig := domain.Signal{
		QuoteDate: d, Strike: 370, ExpireDate: d,
		Action: domain.ActionSell, PositionType: "short_put",
	}
	row := quote(d, 370, d, 440.12)
	row.Put = domain.OptionQuote{Bid: 1.0, Ask: 1.5}

	res := NewTradeBuilder(1, nil, nil).Build(0, sig, []domain.MarketQuote{row}, nil)
	if res.Trade.EntryPrice != 1.25 {
		t.Errorf("EntryPrice = %v, want P_BID/P_ASK mid 1.25", res.Trade.EntryPrice)
	}
}

func TestBuildEntryPriceFallsBackToUnderlying(t *testing.T) {
	d := day(2023, 8, 1)
	sig := domain.Signal{
		QuoteDate: d, Strike: 370, ExpireDate: d,
		Action: domain.ActionBuy, PositionType: "long_call",
	}
	row := quote(d, 370, d, 440.12) // no call quote present

	res := NewTradeBuilder(1, nil, nil).Build(0, sig, []domain.MarketQuote{row}, nil)
	if res.Trade.EntryPrice != 440.12 {
		t.Errorf("EntryPrice = %v, want underlying 440.12", res.Trade.EntryPrice)
	}
}

func TestBuildUnmatchedEntry(t *testing.T) {
	d := day(2023, 8, 1)
	sig := domain.Signal{
		QuoteDate: d, Strike: 999, ExpireDate: d,
		Action: domain.ActionSell, PositionType: "short_put",
	}

	res := NewTradeBuilder(1, nil, nil).Build(7, sig, nil, nil)

	if res.Trade.State != domain.TradeStateUnmatchedEntry {
		t.Fatalf("state = %q, want unmatched_entry", res.Trade.State)
	}
	// The trade is created, not discarded, so coverage stays visible.
	if res.Trade.SignalIndex != 7 {
		t.Errorf("SignalIndex = %d, want 7", res.Trade.SignalIndex)
	}
	if res.Trade.PnL != nil {
		t.Error("PnL must be undefined for a non-closed trade")
	}
}

func TestBuildAmbiguousMatchUsesFirstRow(t *testing.T) {
	d := day(2023, 8, 1)
	sig := domain.Signal{
		QuoteDate: d, Strike: 388, ExpireDate: d,
		Action: domain.ActionSell, PositionType: "short_put",
	}
	first := quote(d, 388, d, 100)
	first.Put = domain.OptionQuote{Bid: 2.0, Ask: 3.0}
	second := quote(d, 388, d, 200)
	second.Put = domain.OptionQuote{Bid: 9.0, Ask: 9.5}

	res := NewTradeBuilder(1, nil, nil).Build(0, sig, []domain.MarketQuote{first, second}, nil)

	// First row in original input order wins; alternatives are counted,
	// never averaged.
	if res.Trade.EntryPrice != 2.5 {
		t.Errorf("EntryPrice = %v, want first row mid 2.5", res.Trade.EntryPrice)
	}
	if res.Ambiguous != 1 {
		t.Errorf("Ambiguous = %d, want 1", res.Ambiguous)
	}
}

// stubSizer returns a fixed size and records the inputs it saw.
type stubSizer struct {
	size  int
	price float64
	conf  float64
}

func (s *stubSizer) SizePosition(entryPrice, confidence float64) int {
	s.price, s.conf = entryPrice, confidence
	return s.size
}

func TestBuildWithSizer(t *testing.T) {
	d := day(2023, 8, 1)
	sig := domain.Signal{
		QuoteDate: d, Strike: 370, ExpireDate: d,
		Action: domain.ActionSell, PositionType: "short_put",
		Confidence: 0.8,
	}
	row := quote(d, 370, d, 440.12)
	row.Put = domain.OptionQuote{Bid: 1.0, Ask: 1.5}

	sizer := &stubSizer{size: 42}
	res := NewTradeBuilder(1, sizer, nil).Build(0, sig, []domain.MarketQuote{row}, nil)

	if res.Trade.Quantity != 42 {
		t.Errorf("Quantity = %d, want sizer output 42", res.Trade.Quantity)
	}
	// The sizer sees the resolved entry price, not a raw market field.
	if sizer.price != 1.25 {
		t.Errorf("sizer saw entry price %v, want 1.25", sizer.price)
	}
	if sizer.conf != 0.8 {
		t.Errorf("sizer saw confidence %v, want 0.8", sizer.conf)
	}
}

func TestBuildSizerSkippedWithoutEntry(t *testing.T) {
	d := day(2023, 8, 1)
	sig := domain.Signal{
		QuoteDate: d, Strike: 999, ExpireDate: d,
		Action: domain.ActionSell, PositionType: "short_put",
	}

	sizer := &stubSizer{size: 42}
	res := NewTradeBuilder(3, sizer, nil).Build(0, sig, nil, nil)

	// No entry price was resolved, so the sizer never runs and the fixed
	// quantity stands.
	if res.Trade.Quantity != 3 {
		t.Errorf("Quantity = %d, want fixed 3", res.Trade.Quantity)
	}
}

func TestExitPricePutIntrinsic(t *testing.T) {
	d := day(2023, 8, 1)
	sig := domain.Signal{
		QuoteDate: d, Strike: 450, ExpireDate: d,
		Action: domain.ActionSell, PositionType: "short_put",
	}
	entryRow := quote(d, 450, d, 440)
	entryRow.Put = domain.OptionQuote{Bid: 10, Ask: 11}
	exitRow := quote(d, 450, d, 440) // strike 450, underlying 440 -> intrinsic 10

	res := NewTradeBuilder(1, nil, nil).Build(0, sig,
		[]domain.MarketQuote{entryRow}, []domain.MarketQuote{exitRow})

	if !res.HasExit {
		t.Fatal("expected exit resolution")
	}
	if res.ExitPrice != 10 {
		t.Errorf("ExitPrice = %v, want put intrinsic 10", res.ExitPrice)
	}

	// Out-of-the-money puts expire worthless, never negative.
	otm := sig
	otm.Strike = 400
	entryRow.Strike = 400
	exitRow.Strike = 400
	res = NewTradeBuilder(1, nil, nil).Build(0, otm,
		[]domain.MarketQuote{entryRow}, []domain.MarketQuote{exitRow})
	if res.ExitPrice != 0 {
		t.Errorf("ExitPrice = %v, want 0 for OTM put", res.ExitPrice)
	}
}

func TestExitPriceCallUsesPremiumMid(t *testing.T) {
	d := day(2023, 8, 1)
	sig := domain.Signal{
		QuoteDate: d, Strike: 430, ExpireDate: d,
		Action: domain.ActionBuy, PositionType: "long_call",
	}
	entryRow := quote(d, 430, d, 440)
	entryRow.Call = domain.OptionQuote{Bid: 11, Ask: 12}
	exitRow := quote(d, 430, d, 445)
	exitRow.Call = domain.OptionQuote{Bid: 14.5, Ask: 15.5}

	res := NewTradeBuilder(1, nil, nil).Build(0, sig,
		[]domain.MarketQuote{entryRow}, []domain.MarketQuote{exitRow})
	if res.ExitPrice != 15 {
		t.Errorf("ExitPrice = %v, want call mid 15", res.ExitPrice)
	}

	// Without a quoted premium the call settles at intrinsic value.
	exitRow.Call = domain.OptionQuote{}
	res = NewTradeBuilder(1, nil, nil).Build(0, sig,
		[]domain.MarketQuote{entryRow}, []domain.MarketQuote{exitRow})
	if res.ExitPrice != 15 {
		t.Errorf("ExitPrice = %v, want call intrinsic 15", res.ExitPrice)
	}
}
