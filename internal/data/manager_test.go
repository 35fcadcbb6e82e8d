package data

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"dripsim/internal/calendar"
	"dripsim/internal/domain"
	"dripsim/internal/store"
)

// stubProvider serves canned bars or a fixed error and counts calls.
type stubProvider struct {
	bars  []domain.PriceBar
	err   error
	calls int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.bars, nil
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
}

func tradingBars(cal *calendar.Calendar, symbol string, start, end time.Time) []domain.PriceBar {
	var bars []domain.PriceBar
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !cal.IsTradingDay(d, symbol) {
			continue
		}
		bars = append(bars, domain.PriceBar{
			Date: d, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000,
		})
	}
	return bars
}

func testManager(t *testing.T, p Provider) (*Manager, *store.CooldownStore, *calendar.Calendar) {
	t.Helper()
	cal := calendar.NewWithClock(fixedClock())
	cache, err := store.NewCacheStore(filepath.Join(t.TempDir(), "cache.db"), 2*time.Hour)
	if err != nil {
		t.Fatalf("NewCacheStore: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	cooldowns := store.NewCooldownStore(10 * time.Minute)
	m := NewManager(p, cache, cooldowns, nil, cal, &Options{MaxAttempts: 10}, nil)
	m.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return m, cooldowns, cal
}

func TestFetchCachesSeries(t *testing.T) {
	cal := calendar.New()
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	p := &stubProvider{bars: tradingBars(cal, "AAPL", start, end)}
	m, _, _ := testManager(t, p)

	ctx := context.Background()
	first, err := m.Fetch(ctx, "AAPL", "2023-01-02", "2023-01-31")
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	if first.Source != domain.SourceUpstream {
		t.Errorf("first source = %q, want %q", first.Source, domain.SourceUpstream)
	}
	if p.calls != 1 {
		t.Fatalf("provider calls after first fetch = %d, want 1", p.calls)
	}

	second, err := m.Fetch(ctx, "AAPL", "2023-01-02", "2023-01-31")
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if p.calls != 1 {
		t.Errorf("provider calls after second fetch = %d, want 1 (cache hit)", p.calls)
	}
	if second.Source != domain.SourceCache {
		t.Errorf("second source = %q, want %q", second.Source, domain.SourceCache)
	}
	if len(second.Bars) != len(first.Bars) {
		t.Errorf("cached bars = %d, want %d", len(second.Bars), len(first.Bars))
	}
}

func TestFetchCooldownShortCircuit(t *testing.T) {
	p := &stubProvider{err: errors.New("should not be called")}
	m, cooldowns, _ := testManager(t, p)
	cooldowns.Set("MSFT")

	series, err := m.Fetch(context.Background(), "MSFT", "2023-01-02", "2023-01-31")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if p.calls != 0 {
		t.Errorf("provider calls = %d, want 0 during cooldown", p.calls)
	}
	if series.Source != domain.SourceSynthetic {
		t.Errorf("source = %q, want %q", series.Source, domain.SourceSynthetic)
	}
	if len(series.Bars) == 0 {
		t.Error("synthetic series has no bars")
	}
}

func TestFetchRateLimitExhaustionFallsBack(t *testing.T) {
	p := &stubProvider{err: errors.New("request failed: 429 Too Many Requests")}
	m, cooldowns, _ := testManager(t, p)

	series, err := m.Fetch(context.Background(), "NVDA", "2023-01-02", "2023-01-31")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if p.calls != 10 {
		t.Errorf("provider calls = %d, want 10", p.calls)
	}
	if series.Source != domain.SourceSynthetic {
		t.Errorf("source = %q, want %q", series.Source, domain.SourceSynthetic)
	}
	if !cooldowns.Active("NVDA") {
		t.Error("cooldown not active after rate limit exhaustion")
	}
}

func TestFetchHardFailure(t *testing.T) {
	p := &stubProvider{err: errors.New("no data for symbol")}
	m, _, _ := testManager(t, p)

	_, err := m.Fetch(context.Background(), "ZZZZ", "2023-01-02", "2023-01-31")
	var due *domain.DataUnavailableError
	if !errors.As(err, &due) {
		t.Fatalf("err = %v, want DataUnavailableError", err)
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (no retry on hard failure)", p.calls)
	}

	series, err := m.FetchWithFallback(context.Background(), "ZZZZ", "2023-01-02", "2023-01-31")
	if err != nil {
		t.Fatalf("FetchWithFallback: %v", err)
	}
	if series.Source != domain.SourceSynthetic {
		t.Errorf("fallback source = %q, want %q", series.Source, domain.SourceSynthetic)
	}
}

func TestFetchAmbiguousErrorRetries(t *testing.T) {
	p := &stubProvider{err: errors.New("connection reset by peer")}
	m, cooldowns, _ := testManager(t, p)

	_, err := m.Fetch(context.Background(), "AMD", "2023-01-02", "2023-01-31")
	var due *domain.DataUnavailableError
	if !errors.As(err, &due) {
		t.Fatalf("err = %v, want DataUnavailableError", err)
	}
	if p.calls != 10 {
		t.Errorf("provider calls = %d, want 10", p.calls)
	}
	if cooldowns.Active("AMD") {
		t.Error("cooldown should not be set for non-rate-limit failures")
	}
}

func TestFetchInvalidRange(t *testing.T) {
	p := &stubProvider{}
	m, _, _ := testManager(t, p)

	_, err := m.Fetch(context.Background(), "AAPL", "2023-06-01", "2023-01-01")
	var idr *domain.InvalidDateRangeError
	if !errors.As(err, &idr) {
		t.Fatalf("err = %v, want InvalidDateRangeError", err)
	}
	if p.calls != 0 {
		t.Errorf("provider calls = %d, want 0", p.calls)
	}
}

func TestBuildSeriesValidation(t *testing.T) {
	good := domain.PriceBar{
		Date: time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
		Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100,
	}
	raw := []domain.PriceBar{
		good,
		good, // duplicate date
		{Date: time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC), Open: 10, High: 11, Low: 9, Close: 10, Volume: 1}, // Saturday
		{Date: time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC), Open: -1, High: 11, Low: 9, Close: 10, Volume: 1}, // bad price
		{Date: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), Open: 10, High: 11, Low: 9, Close: 10, Volume: 1},
	}

	p := &stubProvider{bars: raw}
	m, _, _ := testManager(t, p)

	series, err := m.Fetch(context.Background(), "AAPL", "2023-01-02", "2023-01-06")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(series.Bars) != 2 {
		t.Fatalf("bars = %d, want 2 after validation", len(series.Bars))
	}
	for i := 1; i < len(series.Bars); i++ {
		if !series.Bars[i].Date.After(series.Bars[i-1].Date) {
			t.Errorf("bars not strictly ascending at %d", i)
		}
	}
}
