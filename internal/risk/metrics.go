package risk

import (
	"math"
	"time"
)

// CAGR computes the compound annual growth rate from initial to final
// capital over [start, end]. It returns 0 when the period or either capital
// value is non-positive.
func CAGR(initialCapital, finalCapital float64, start, end time.Time) float64 {
	years := end.Sub(start).Hours() / 24 / 365.25
	if years <= 0 || initialCapital <= 0 || finalCapital <= 0 {
		return 0
	}
	return math.Pow(finalCapital/initialCapital, 1/years) - 1
}
