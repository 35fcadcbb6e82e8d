package engine

import (
	"math"

	"github.com/montanaflynn/stats"

	"dripsim/internal/domain"
)

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// maxDrawdownPct returns the largest percentage decline from a running
// equity-curve peak, as a non-negative percentage.
func maxDrawdownPct(equity []domain.EquityPoint) float64 {
	var peak, maxDD float64
	for _, pt := range equity {
		if pt.Value > peak {
			peak = pt.Value
		}
		if peak > 0 {
			if dd := (peak - pt.Value) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeRatio annualizes the mean/stddev of daily equity returns. Returns 0
// when there are too few points or the return series has no variance.
func sharpeRatio(equity []domain.EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev <= 0 {
			continue
		}
		returns = append(returns, equity[i].Value/prev-1)
	}
	if len(returns) < 2 {
		return 0
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	sd, err := stats.StandardDeviation(returns)
	if err != nil || sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(tradingDaysPerYear)
}
