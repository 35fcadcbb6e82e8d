package strategy

import (
	"dripsim/internal/domain"
)

// Compile-time interface check.
var _ Evaluator = (*DCA)(nil)

// DCA invests every accumulated contribution unconditionally. It is the
// baseline other strategies are compared against.
type DCA struct{}

// NewDCA builds the dollar-cost-averaging strategy. It takes no parameters.
func NewDCA(_ map[string]float64) (Evaluator, error) {
	return &DCA{}, nil
}

func (s *DCA) Name() string { return "dca" }

func (s *DCA) Warmup() int { return 1 }

// Evaluate always signals an investment.
func (s *DCA) Evaluate(window []domain.PriceBar) (Signal, error) {
	return Signal{
		Invest: true,
		Value:  window[len(window)-1].Close,
		Reason: "scheduled contribution",
	}, nil
}
