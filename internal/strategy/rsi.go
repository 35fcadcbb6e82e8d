package strategy

import (
	"fmt"

	"dripsim/internal/domain"
)

// Compile-time interface check.
var _ Evaluator = (*RSI)(nil)

// RSI signals investment when the relative strength index over the lookback
// period drops to or below the oversold threshold.
type RSI struct {
	period    int
	threshold float64
}

// NewRSI builds the RSI strategy. Parameters: "period" (default 14) and
// "threshold" (default 25).
func NewRSI(params map[string]float64) (Evaluator, error) {
	period, err := intParam(params, "period", 14)
	if err != nil {
		return nil, err
	}
	threshold := param(params, "threshold", 25)
	if threshold <= 0 || threshold >= 100 {
		return nil, fmt.Errorf("parameter %q must be in (0, 100), got %v", "threshold", threshold)
	}
	return &RSI{period: period, threshold: threshold}, nil
}

func (s *RSI) Name() string { return "rsi" }

// Warmup requires period+1 bars: period closes plus one to form the first
// delta.
func (s *RSI) Warmup() int { return s.period + 1 }

func (s *RSI) Evaluate(window []domain.PriceBar) (Signal, error) {
	if len(window) < s.period+1 {
		return Signal{}, fmt.Errorf("rsi: window has %d bars, need %d", len(window), s.period+1)
	}

	// Simple-average RSI over the most recent period deltas.
	recent := window[len(window)-s.period-1:]
	var gains, losses float64
	for i := 1; i < len(recent); i++ {
		delta := recent[i].Close - recent[i-1].Close
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	var rsi float64
	if losses == 0 {
		rsi = 100
	} else {
		rs := (gains / float64(s.period)) / (losses / float64(s.period))
		rsi = 100 - 100/(1+rs)
	}

	if rsi <= s.threshold {
		return Signal{
			Invest: true,
			Value:  rsi,
			Reason: fmt.Sprintf("RSI %.1f at or below %.1f", rsi, s.threshold),
		}, nil
	}
	return Signal{Value: rsi}, nil
}
