// Package risk provides position sizing and portfolio risk limits for
// sizing-aware backtest runs.
package risk

import "math"

// minPricingPrice floors the price used in sizing so that near-zero option
// premiums cannot produce runaway position sizes.
const minPricingPrice = 0.1

// PositionSizer determines how many contracts to trade from available
// capital, per-trade risk, and signal confidence.
type PositionSizer struct {
	// Capital is the total capital available.
	Capital float64

	// RiskPerTrade is the fraction of capital risked per trade.
	RiskPerTrade float64

	// MaxPositionPct caps the position size as a fraction of capital.
	MaxPositionPct float64

	// AbsoluteMaxContracts caps contracts per trade regardless of price.
	AbsoluteMaxContracts int
}

// NewPositionSizer creates a sizer with the given capital and default risk
// parameters: 1% risk per trade, 5% max position, 100 contracts absolute cap.
func NewPositionSizer(capital float64) *PositionSizer {
	return &PositionSizer{
		Capital:              capital,
		RiskPerTrade:         0.01,
		MaxPositionPct:       0.05,
		AbsoluteMaxContracts: 100,
	}
}

// SizePosition returns the number of contracts to trade at entryPrice.
// Confidence in [0,1] scales the size between 50% and 100%; values outside
// that range are ignored. A non-positive entry price sizes to zero.
func (p *PositionSizer) SizePosition(entryPrice, confidence float64) int {
	if entryPrice <= 0 {
		return 0
	}
	price := math.Max(entryPrice, minPricingPrice)

	riskQty := p.Capital * p.RiskPerTrade / price
	capQty := p.Capital * p.MaxPositionPct / price
	qty := math.Min(riskQty, capQty)

	if confidence >= 0 && confidence <= 1 {
		qty *= 0.5 + confidence/2
	}

	n := int(qty)
	if n > p.AbsoluteMaxContracts {
		n = p.AbsoluteMaxContracts
	}
	if n < 1 {
		n = 1
	}
	return n
}
