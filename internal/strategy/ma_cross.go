package strategy

import (
	"fmt"

	"dripsim/internal/domain"
)

// Compile-time interface check.
var _ Evaluator = (*MACross)(nil)

// MACross signals investment when the fast simple moving average crosses
// above the slow one between the previous bar and the current bar.
type MACross struct {
	fast int
	slow int
}

// NewMACross builds the moving-average crossover strategy. Parameters:
// "fast" (default 10) and "slow" (default 30); fast must be below slow.
func NewMACross(params map[string]float64) (Evaluator, error) {
	fast, err := intParam(params, "fast", 10)
	if err != nil {
		return nil, err
	}
	slow, err := intParam(params, "slow", 30)
	if err != nil {
		return nil, err
	}
	if fast >= slow {
		return nil, fmt.Errorf("fast period %d must be below slow period %d", fast, slow)
	}
	return &MACross{fast: fast, slow: slow}, nil
}

func (s *MACross) Name() string { return "ma-cross" }

// Warmup requires slow+1 bars so the previous bar also has a full slow
// average.
func (s *MACross) Warmup() int { return s.slow + 1 }

func (s *MACross) Evaluate(window []domain.PriceBar) (Signal, error) {
	if len(window) < s.slow+1 {
		return Signal{}, fmt.Errorf("ma-cross: window has %d bars, need %d", len(window), s.slow+1)
	}

	prev := window[:len(window)-1]

	fastNow := sma(window, s.fast)
	slowNow := sma(window, s.slow)
	fastPrev := sma(prev, s.fast)
	slowPrev := sma(prev, s.slow)

	if fastPrev <= slowPrev && fastNow > slowNow {
		return Signal{
			Invest: true,
			Value:  fastNow - slowNow,
			Reason: fmt.Sprintf("fast SMA(%d) crossed above slow SMA(%d)", s.fast, s.slow),
		}, nil
	}
	return Signal{Value: fastNow - slowNow}, nil
}

// sma averages the closes of the last n bars.
func sma(bars []domain.PriceBar, n int) float64 {
	var sum float64
	for _, b := range bars[len(bars)-n:] {
		sum += b.Close
	}
	return sum / float64(n)
}
