package risk

// DrawdownLimiter tracks an equity curve and signals when drawdown from the
// running peak exceeds the configured limit.
type DrawdownLimiter struct {
	maxDrawdownPct float64
	peak           float64
	last           float64
}

// NewDrawdownLimiter creates a limiter starting from startingEquity that
// trips once drawdown from peak exceeds maxDrawdownPct (e.g. 0.2 for 20%).
func NewDrawdownLimiter(startingEquity, maxDrawdownPct float64) *DrawdownLimiter {
	return &DrawdownLimiter{
		maxDrawdownPct: maxDrawdownPct,
		peak:           startingEquity,
		last:           startingEquity,
	}
}

// UpdateEquity records a new equity value and reports whether trading may
// continue: false means the drawdown limit has been exceeded.
func (d *DrawdownLimiter) UpdateEquity(value float64) bool {
	d.last = value
	if value > d.peak {
		d.peak = value
	}
	return d.Drawdown() <= d.maxDrawdownPct
}

// Drawdown returns the current drawdown from peak as a fraction in [0,1].
func (d *DrawdownLimiter) Drawdown() float64 {
	if d.peak <= 0 {
		return 0
	}
	return (d.peak - d.last) / d.peak
}
