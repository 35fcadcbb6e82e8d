// Package engine replays a price series bar-by-bar, driving an accumulation
// account and a pluggable signal evaluator, and produces a performance
// report.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"dripsim/internal/domain"
	"dripsim/internal/strategy"
)

// conservationEpsilon bounds float drift tolerated by the account
// invariant check.
const conservationEpsilon = 1e-6

// Params configures one replay run.
type Params struct {
	Series         *domain.PriceSeries
	Strategy       string
	StrategyParams map[string]float64
	Frequency      domain.Frequency

	// InitialCash seeds the uninvested balance and counts toward total
	// contributed.
	InitialCash float64

	// Contribution is added to uninvested cash at each period boundary.
	Contribution float64

	// CommissionRate is the fee fraction applied to each buy. Zero
	// disables commissions.
	CommissionRate float64
}

// Engine runs replays with strategies looked up in a registry.
type Engine struct {
	registry *strategy.Registry
	log      *slog.Logger
}

// New creates an Engine.
func New(registry *strategy.Registry, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		registry: registry,
		log:      log.With("component", "engine"),
	}
}

// Run replays the series in chronological order: accumulate on new
// contribution periods, evaluate the signal once the warm-up window is
// full, and deploy the full uninvested balance at the bar's close when the
// signal fires. Bars with invalid prices are skipped and counted as data
// gaps. On an evaluator error or a violated account invariant the run
// aborts with ExecutionError and no partial report is returned.
func (e *Engine) Run(ctx context.Context, p Params) (*domain.PerformanceReport, error) {
	if p.Series == nil || len(p.Series.Bars) == 0 {
		return nil, &domain.ExecutionError{Op: "setup", Cause: fmt.Errorf("empty price series")}
	}
	if p.Contribution < 0 || p.InitialCash < 0 {
		return nil, &domain.ExecutionError{Op: "setup", Cause: fmt.Errorf("negative cash amounts")}
	}
	if p.CommissionRate < 0 || p.CommissionRate >= 1 {
		return nil, &domain.ExecutionError{Op: "setup", Cause: fmt.Errorf("commission rate %v out of range", p.CommissionRate)}
	}

	eval, err := e.registry.Build(p.Strategy, p.StrategyParams)
	if err != nil {
		return nil, &domain.ExecutionError{Op: "setup", Cause: err}
	}

	var (
		cash             = p.InitialCash
		totalContributed = p.InitialCash
		totalInvested    float64
		shares           float64
		feesPaid         float64
		dataGaps         int
		haveMarker       bool
		lastMarker       periodMarker

		window []domain.PriceBar
		trades []domain.Trade
		equity []domain.EquityPoint
	)

	for _, bar := range p.Series.Bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !validBar(bar) {
			dataGaps++
			e.log.Warn("skipping invalid bar",
				"symbol", p.Series.Symbol, "date", bar.Date.Format("2006-01-02"))
			continue
		}
		window = append(window, bar)

		// Accumulation is independent of warm-up: cash accrues even
		// while the signal window is still filling.
		marker := markerFor(p.Frequency, bar.Date)
		if !haveMarker || marker != lastMarker {
			haveMarker = true
			lastMarker = marker
			if p.Contribution > 0 {
				cash += p.Contribution
				totalContributed += p.Contribution
				trades = append(trades, domain.Trade{
					Date:      bar.Date,
					Action:    domain.ActionContribute,
					Amount:    p.Contribution,
					CashAfter: cash,
				})
			}
		}

		if len(window) >= eval.Warmup() {
			sig, err := eval.Evaluate(window)
			if err != nil {
				return nil, &domain.ExecutionError{Op: "evaluate", Cause: err}
			}
			if sig.Invest && cash > 0 {
				fee := cash * p.CommissionRate
				shares += (cash - fee) / bar.Close
				totalInvested += cash
				feesPaid += fee
				trades = append(trades, domain.Trade{
					Date:      bar.Date,
					Action:    domain.ActionBuy,
					Amount:    cash,
					Shares:    (cash - fee) / bar.Close,
					Price:     bar.Close,
					CashAfter: 0,
				})
				cash = 0
				e.log.Debug("invested",
					"symbol", p.Series.Symbol,
					"date", bar.Date.Format("2006-01-02"),
					"price", bar.Close,
					"reason", sig.Reason)
			}
		}

		if diff := totalContributed - (cash + totalInvested); math.Abs(diff) > conservationEpsilon {
			return nil, &domain.ExecutionError{
				Op: "conservation",
				Cause: fmt.Errorf("contributed %.8f != cash %.8f + invested %.8f",
					totalContributed, cash, totalInvested),
			}
		}

		equity = append(equity, domain.EquityPoint{
			Date:  bar.Date,
			Value: cash + shares*bar.Close,
		})
	}

	finalValue := cash
	if n := len(equity); n > 0 {
		finalValue = equity[n-1].Value
	}

	// Contributions appear in the trade log but only executed buys count
	// as trades.
	buyCount := 0
	for _, tr := range trades {
		if tr.Action == domain.ActionBuy {
			buyCount++
		}
	}

	report := &domain.PerformanceReport{
		RunID:    uuid.NewString(),
		Symbol:   p.Series.Symbol,
		Strategy: eval.Name(),
		Start:    p.Series.Start,
		End:      p.Series.End,

		FinalValue:          finalValue,
		NetProfit:           finalValue - totalContributed,
		TotalContributed:    totalContributed,
		MaxDrawdownPct:      maxDrawdownPct(equity),
		SharpeRatio:         sharpeRatio(equity),
		TradeCount:          buyCount,
		UninvestedCashAtEnd: cash,
		FeesPaid:            feesPaid,

		DataSource: p.Series.Source,
		DataGaps:   dataGaps,
		Trades:     trades,
		Equity:     equity,
	}

	e.log.Info("run complete",
		"run_id", report.RunID,
		"symbol", report.Symbol,
		"strategy", report.Strategy,
		"final_value", report.FinalValue,
		"trades", report.TradeCount,
		"gaps", report.DataGaps)
	return report, nil
}

// periodMarker identifies a contribution period. Two bars belong to the
// same period iff their markers are equal.
type periodMarker struct {
	a, b int
}

func markerFor(freq domain.Frequency, date time.Time) periodMarker {
	switch freq {
	case domain.Weekly:
		y, w := date.ISOWeek()
		return periodMarker{y, w}
	case domain.Monthly:
		return periodMarker{date.Year(), int(date.Month())}
	case domain.Quarterly:
		return periodMarker{date.Year(), (int(date.Month()) - 1) / 3}
	default: // yearly
		return periodMarker{date.Year(), 0}
	}
}

func validBar(b domain.PriceBar) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
