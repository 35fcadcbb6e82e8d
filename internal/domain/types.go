// Package domain defines the core value types shared across the dripsim
// replay engine: price bars and series, contribution frequencies, trade
// events, and performance reports.
package domain

import (
	"fmt"
	"time"
)

// SeriesSource identifies where a PriceSeries came from.
type SeriesSource string

const (
	// SourceUpstream marks data fetched live from the upstream provider.
	SourceUpstream SeriesSource = "upstream"
	// SourceCache marks data served from the on-disk cache.
	SourceCache SeriesSource = "cache"
	// SourceSynthetic marks generated fallback data. Synthetic series are
	// never cached or archived as if they were real.
	SourceSynthetic SeriesSource = "synthetic"
)

// PriceBar is one daily OHLCV row. Date is normalized to UTC midnight with
// no time-of-day component.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is an ordered run of daily bars for one symbol over
// [Start, End]. Dates are strictly increasing and every date is a trading
// day for the symbol's market.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Start  time.Time    `json:"start"`
	End    time.Time    `json:"end"`
	Source SeriesSource `json:"source"`
	Bars   []PriceBar   `json:"bars"`
}

// Synthetic reports whether the series was generated rather than fetched.
func (s *PriceSeries) Synthetic() bool { return s.Source == SourceSynthetic }

// Frequency is a recurring contribution interval.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// ParseFrequency validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Weekly, Monthly, Quarterly, Yearly:
		return Frequency(s), nil
	}
	return "", fmt.Errorf("unknown contribution frequency %q", s)
}

// TradeAction identifies a trade log entry's kind.
type TradeAction string

const (
	ActionContribute TradeAction = "contribute"
	ActionBuy        TradeAction = "buy"
)

// Trade is one entry of the trade log: a scheduled contribution or an
// executed buy. CashAfter is the uninvested balance after the event, which
// together with the dates is enough to reconstruct an equity curve.
type Trade struct {
	Date      time.Time   `json:"date"`
	Action    TradeAction `json:"action"`
	Amount    float64     `json:"amount"`
	Shares    float64     `json:"shares,omitempty"`
	Price     float64     `json:"price,omitempty"`
	CashAfter float64     `json:"cash_after"`
}

// EquityPoint is one mark-to-market observation of total account value.
type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// PerformanceReport summarizes a completed replay. Produced once at
// finalization and read-only thereafter.
type PerformanceReport struct {
	RunID    string    `json:"run_id"`
	Symbol   string    `json:"symbol"`
	Strategy string    `json:"strategy"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`

	FinalValue          float64 `json:"final_value"`
	NetProfit           float64 `json:"net_profit"`
	TotalContributed    float64 `json:"total_contributed"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	TradeCount          int     `json:"trade_count"`
	UninvestedCashAtEnd float64 `json:"uninvested_cash_at_end"`
	FeesPaid            float64 `json:"fees_paid"`

	DataSource SeriesSource  `json:"data_source"`
	DataGaps   int           `json:"data_gaps"`
	Trades     []Trade       `json:"trades"`
	Equity     []EquityPoint `json:"equity"`
}
