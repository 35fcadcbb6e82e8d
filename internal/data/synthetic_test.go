package data

import (
	"errors"
	"testing"
	"time"

	"dripsim/internal/calendar"
	"dripsim/internal/domain"
)

func TestSyntheticSeriesCoversTradingDays(t *testing.T) {
	cal := calendar.New()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	series, err := SyntheticSeries(cal, "AAPL", start, end)
	if err != nil {
		t.Fatalf("SyntheticSeries: %v", err)
	}
	if series.Source != domain.SourceSynthetic {
		t.Errorf("source = %q, want %q", series.Source, domain.SourceSynthetic)
	}
	want := cal.TradingDayCount(start, end, "AAPL")
	if len(series.Bars) != want {
		t.Errorf("bars = %d, want %d trading days", len(series.Bars), want)
	}
	for _, b := range series.Bars {
		if !cal.IsTradingDay(b.Date, "AAPL") {
			t.Errorf("bar on non-trading day %s", b.Date.Format("2006-01-02"))
		}
	}
}

func TestSyntheticSeriesOHLCConsistent(t *testing.T) {
	cal := calendar.New()
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	series, err := SyntheticSeries(cal, "TSLA", start, end)
	if err != nil {
		t.Fatalf("SyntheticSeries: %v", err)
	}
	for i, b := range series.Bars {
		if b.Low <= 0 {
			t.Fatalf("bar %d: low = %v, want > 0", i, b.Low)
		}
		if b.Open < b.Low || b.Open > b.High {
			t.Errorf("bar %d: open %v outside [%v, %v]", i, b.Open, b.Low, b.High)
		}
		if b.Close < b.Low || b.Close > b.High {
			t.Errorf("bar %d: close %v outside [%v, %v]", i, b.Close, b.Low, b.High)
		}
		if b.Volume <= 0 {
			t.Errorf("bar %d: volume = %d, want > 0", i, b.Volume)
		}
	}
}

func TestSyntheticSeriesDeterministic(t *testing.T) {
	cal := calendar.New()
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC)

	a, err := SyntheticSeries(cal, "NVDA", start, end)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := SyntheticSeries(cal, "NVDA", start, end)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(a.Bars) != len(b.Bars) {
		t.Fatalf("lengths differ: %d vs %d", len(a.Bars), len(b.Bars))
	}
	for i := range a.Bars {
		if a.Bars[i] != b.Bars[i] {
			t.Fatalf("bar %d differs between runs", i)
		}
	}

	other, err := SyntheticSeries(cal, "AMD", start, end)
	if err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	if other.Bars[0].Close == a.Bars[0].Close && other.Bars[1].Close == a.Bars[1].Close {
		t.Error("distinct symbols produced identical walks")
	}
}

func TestSyntheticSeriesProfiles(t *testing.T) {
	cal := calendar.New()
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)

	index, _ := SyntheticSeries(cal, "^GSPC", start, end)
	etf, _ := SyntheticSeries(cal, "SPY", start, end)
	stock, _ := SyntheticSeries(cal, "AAPL", start, end)

	if index.Bars[0].Open != 1000.0 {
		t.Errorf("index open = %v, want 1000", index.Bars[0].Open)
	}
	if etf.Bars[0].Open != 100.0 {
		t.Errorf("etf open = %v, want 100", etf.Bars[0].Open)
	}
	if stock.Bars[0].Open != 50.0 {
		t.Errorf("stock open = %v, want 50", stock.Bars[0].Open)
	}
}

func TestSyntheticSeriesEmptyRange(t *testing.T) {
	cal := calendar.New()
	// A weekend-only window has no trading days.
	start := time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 8, 0, 0, 0, 0, time.UTC)

	_, err := SyntheticSeries(cal, "AAPL", start, end)
	var due *domain.DataUnavailableError
	if !errors.As(err, &due) {
		t.Fatalf("err = %v, want DataUnavailableError", err)
	}
}
