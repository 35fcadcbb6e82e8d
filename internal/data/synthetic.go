package data

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"

	"dripsim/internal/calendar"
	"dripsim/internal/domain"
)

// etfBasePrices are symbols whose synthetic walks start at ETF-typical
// levels rather than single-stock levels.
var etfSymbols = map[string]bool{
	"SPY": true, "QQQ": true, "IWM": true, "VTI": true, "VOO": true, "DIA": true,
}

// SyntheticSeries generates a deterministic-shape random-walk series for
// the requested range, covering exactly the trading days per the calendar.
// Rows always satisfy low <= open,close <= high. The series is tagged
// synthetic and must never be cached or archived as real data.
func SyntheticSeries(cal *calendar.Calendar, symbol string, start, end time.Time) (*domain.PriceSeries, error) {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if cal.IsTradingDay(d, symbol) {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Reason: "no trading days in range"}
	}

	// Seed from the symbol so repeated runs draw the same shape.
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(symbol)))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	basePrice, volatility := syntheticProfile(symbol)
	minPrice := basePrice * 0.1

	bars := make([]domain.PriceBar, 0, len(days))
	price := basePrice
	for _, day := range days {
		open := price
		ret := rng.NormFloat64()*volatility + 0.0005
		close := open * (1 + ret)
		if close < minPrice {
			close = minPrice
		}

		high := math.Max(open, close) * (1 + math.Abs(rng.NormFloat64()*0.008))
		low := math.Min(open, close) * (1 - math.Abs(rng.NormFloat64()*0.008))
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		bars = append(bars, domain.PriceBar{
			Date:   day,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: 1_000_000 + rng.Int63n(9_000_000),
		})
		price = close
	}

	return &domain.PriceSeries{
		Symbol: symbol,
		Start:  start,
		End:    end,
		Source: domain.SourceSynthetic,
		Bars:   bars,
	}, nil
}

// syntheticProfile picks a starting level and daily volatility by symbol
// class: indices are larger and calmer, ETFs in between, single names
// smaller and choppier.
func syntheticProfile(symbol string) (base, volatility float64) {
	switch {
	case strings.HasPrefix(symbol, "^"):
		return 1000.0, 0.015
	case etfSymbols[strings.ToUpper(symbol)]:
		return 100.0, 0.02
	default:
		return 50.0, 0.025
	}
}
