package strategy

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"dripsim/internal/domain"
)

// Compile-time interface check.
var _ Evaluator = (*Bollinger)(nil)

// Bollinger signals investment when the close falls to or below the lower
// Bollinger band (mean minus dev standard deviations over the period).
type Bollinger struct {
	period int
	dev    float64
}

// NewBollinger builds the Bollinger-band strategy. Parameters: "period"
// (default 20) and "dev" (default 2.0).
func NewBollinger(params map[string]float64) (Evaluator, error) {
	period, err := intParam(params, "period", 20)
	if err != nil {
		return nil, err
	}
	dev := param(params, "dev", 2.0)
	if dev <= 0 {
		return nil, fmt.Errorf("parameter %q must be positive, got %v", "dev", dev)
	}
	return &Bollinger{period: period, dev: dev}, nil
}

func (s *Bollinger) Name() string { return "bollinger" }

func (s *Bollinger) Warmup() int { return s.period }

func (s *Bollinger) Evaluate(window []domain.PriceBar) (Signal, error) {
	if len(window) < s.period {
		return Signal{}, fmt.Errorf("bollinger: window has %d bars, need %d", len(window), s.period)
	}

	closes := make([]float64, s.period)
	for i, b := range window[len(window)-s.period:] {
		closes[i] = b.Close
	}

	mean, err := stats.Mean(closes)
	if err != nil {
		return Signal{}, fmt.Errorf("bollinger mean: %w", err)
	}
	sd, err := stats.StandardDeviation(closes)
	if err != nil {
		return Signal{}, fmt.Errorf("bollinger stddev: %w", err)
	}

	lower := mean - s.dev*sd
	close := window[len(window)-1].Close
	if close <= lower {
		return Signal{
			Invest: true,
			Value:  close - lower,
			Reason: fmt.Sprintf("close %.2f at or below lower band %.2f", close, lower),
		}, nil
	}
	return Signal{Value: close - lower}, nil
}
