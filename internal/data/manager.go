package data

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"dripsim/internal/calendar"
	"dripsim/internal/domain"
	"dripsim/internal/store"
	"dripsim/internal/util"
)

// Options tunes the fetch retry behaviour.
type Options struct {
	MaxAttempts int           // attempt cap per fetch (default 10)
	BackoffBase time.Duration // first retry delay (default 1s)
	BackoffCap  time.Duration // delay ceiling (default 30s)
}

func (o *Options) withDefaults() Options {
	out := Options{MaxAttempts: 10, BackoffBase: time.Second, BackoffCap: 30 * time.Second}
	if o == nil {
		return out
	}
	if o.MaxAttempts > 0 {
		out.MaxAttempts = o.MaxAttempts
	}
	if o.BackoffBase > 0 {
		out.BackoffBase = o.BackoffBase
	}
	if o.BackoffCap > 0 {
		out.BackoffCap = o.BackoffCap
	}
	return out
}

// Manager produces price series for (symbol, start, end), masking upstream
// unreliability. Cache and cooldown state live in explicit stores passed in
// at construction so independent runs do not interfere.
type Manager struct {
	provider  Provider
	cache     *store.CacheStore
	cooldowns *store.CooldownStore
	archive   *store.ParquetArchive // optional; nil disables archiving
	cal       *calendar.Calendar
	opts      Options
	log       *slog.Logger

	// sleep waits between retry attempts; injectable so tests run without
	// real delays. Returns early on context cancellation.
	sleep func(ctx context.Context, d time.Duration) error

	// keyLocks serializes check-then-act per cache key so concurrent
	// callers do not race a duplicate upstream fetch.
	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewManager wires a Manager from its stores and provider. archive may be
// nil to disable the Parquet archive.
func NewManager(
	provider Provider,
	cache *store.CacheStore,
	cooldowns *store.CooldownStore,
	archive *store.ParquetArchive,
	cal *calendar.Calendar,
	opts *Options,
	log *slog.Logger,
) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		provider:  provider,
		cache:     cache,
		cooldowns: cooldowns,
		archive:   archive,
		cal:       cal,
		opts:      opts.withDefaults(),
		log:       log.With("component", "data"),
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// Fetch returns a series for the standardized (symbol, start, end) request.
//
// Order of resolution: fresh cache entry, cooldown short-circuit to the
// synthetic fallback, then the bounded upstream retry loop. Rate-limit
// exhaustion sets a cooldown and falls back to synthetic data; hard
// failures surface as DataUnavailableError.
func (m *Manager) Fetch(ctx context.Context, symbol, start, end string) (*domain.PriceSeries, error) {
	normStart, normEnd, err := m.cal.StandardizeRange(start, end, symbol)
	if err != nil {
		return nil, err
	}

	key := store.CacheKey(symbol, normStart, normEnd)
	lock := m.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	if series, ok, err := m.cache.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		m.log.Debug("cache hit", "key", key)
		return series, nil
	}

	if m.cooldowns.Active(symbol) {
		m.log.Warn("symbol cooling down, using synthetic data", "symbol", symbol)
		return SyntheticSeries(m.cal, symbol, normStart, normEnd)
	}

	series, err := m.fetchUpstream(ctx, symbol, normStart, normEnd)
	if err != nil {
		var rle *domain.RateLimitedError
		if errors.As(err, &rle) {
			// Retries exhausted on throttling: start the cooldown and
			// serve synthetic data instead of surfacing the error.
			m.cooldowns.Set(symbol)
			m.log.Warn("rate limit retries exhausted, cooldown set",
				"symbol", symbol, "err", err)
			return SyntheticSeries(m.cal, symbol, normStart, normEnd)
		}
		return nil, err
	}

	if err := m.cache.Put(ctx, key, series); err != nil {
		m.log.Error("caching series failed", "key", key, "err", err)
	}
	if m.archive != nil {
		if err := m.archive.WriteSeries(series, "us"); err != nil {
			m.log.Error("archiving series failed", "symbol", symbol, "err", err)
		}
	}
	return series, nil
}

// FetchWithFallback behaves like Fetch but converts hard upstream failures
// into a synthetic series, surfacing DataUnavailableError only when the
// fallback cannot cover the range either.
func (m *Manager) FetchWithFallback(ctx context.Context, symbol, start, end string) (*domain.PriceSeries, error) {
	series, err := m.Fetch(ctx, symbol, start, end)
	if err == nil {
		return series, nil
	}

	var due *domain.DataUnavailableError
	if !errors.As(err, &due) {
		return nil, err
	}
	m.log.Warn("upstream data unavailable, using synthetic data", "symbol", symbol, "err", err)

	normStart, normEnd, rerr := m.cal.StandardizeRange(start, end, symbol)
	if rerr != nil {
		return nil, rerr
	}
	synth, serr := SyntheticSeries(m.cal, symbol, normStart, normEnd)
	if serr != nil {
		return nil, err
	}
	return synth, nil
}

// fetchUpstream runs the bounded attempt loop against the provider.
func (m *Manager) fetchUpstream(ctx context.Context, symbol string, start, end time.Time) (*domain.PriceSeries, error) {
	var lastErr error
	for attempt := 0; attempt < m.opts.MaxAttempts; attempt++ {
		bars, err := m.provider.FetchDailyBars(ctx, symbol, start, end)
		if err == nil {
			return m.buildSeries(symbol, start, end, bars)
		}
		lastErr = err

		switch classifyError(err) {
		case failureHard:
			return nil, &domain.DataUnavailableError{Symbol: symbol, Reason: err.Error()}
		case failureRateLimit:
			if attempt == m.opts.MaxAttempts-1 {
				break
			}
			delay := util.Jitter(util.Backoff(attempt, m.opts.BackoffBase, m.opts.BackoffCap), 0.5)
			m.log.Info("rate limited, backing off",
				"symbol", symbol, "attempt", attempt+1, "delay", delay)
			if err := m.sleep(ctx, delay); err != nil {
				return nil, err
			}
		default: // ambiguous: retryable up to the cap
			if attempt == m.opts.MaxAttempts-1 {
				return nil, &domain.DataUnavailableError{Symbol: symbol, Reason: lastErr.Error()}
			}
			if err := m.sleep(ctx, util.Backoff(attempt, m.opts.BackoffBase, m.opts.BackoffCap)); err != nil {
				return nil, err
			}
		}
	}
	return nil, &domain.RateLimitedError{Symbol: symbol, Cause: lastErr}
}

// buildSeries validates raw provider bars into a PriceSeries: rows on
// non-trading days or with non-finite or non-positive prices are dropped,
// dates are sorted and deduplicated.
func (m *Manager) buildSeries(symbol string, start, end time.Time, raw []domain.PriceBar) (*domain.PriceSeries, error) {
	sort.Slice(raw, func(i, j int) bool { return raw[i].Date.Before(raw[j].Date) })

	bars := make([]domain.PriceBar, 0, len(raw))
	var prev time.Time
	for _, b := range raw {
		if !b.Date.After(prev) && !prev.IsZero() {
			continue // duplicate date
		}
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		if !m.cal.IsTradingDay(b.Date, symbol) {
			continue
		}
		if !validPrices(b) {
			continue
		}
		bars = append(bars, b)
		prev = b.Date
	}

	if len(bars) == 0 {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Reason: "no valid rows after validation"}
	}
	return &domain.PriceSeries{
		Symbol: symbol,
		Start:  start,
		End:    end,
		Source: domain.SourceUpstream,
		Bars:   bars,
	}, nil
}

// ClearCache discards all cache entries.
func (m *Manager) ClearCache(ctx context.Context) error {
	return m.cache.Clear(ctx)
}

// CacheInfo returns the number of cached series.
func (m *Manager) CacheInfo(ctx context.Context) (int, error) {
	return m.cache.Info(ctx)
}

// CooldownStatus returns remaining cooldown seconds per symbol.
func (m *Manager) CooldownStatus() map[string]float64 {
	return m.cooldowns.Status()
}

// DefaultDateRange returns a five-year range ending today.
func DefaultDateRange() (string, string) {
	end := time.Now()
	start := end.AddDate(-5, 0, 0)
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

func (m *Manager) lockFor(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.keyLocks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	m.keyLocks[key] = l
	return l
}

func validPrices(b domain.PriceBar) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Volume >= 0
}

// failureClass buckets upstream errors for retry policy.
type failureClass int

const (
	failureAmbiguous failureClass = iota
	failureRateLimit
	failureHard
)

// Known upstream failure signatures, matched case-insensitively.
var (
	rateLimitSignatures = []string{"429", "too many requests", "rate limit", "rate limited"}
	hardSignatures      = []string{"no data", "not found", "invalid symbol", "unknown symbol", "forbidden"}
)

func classifyError(err error) failureClass {
	msg := strings.ToLower(err.Error())
	for _, sig := range rateLimitSignatures {
		if strings.Contains(msg, sig) {
			return failureRateLimit
		}
	}
	for _, sig := range hardSignatures {
		if strings.Contains(msg, sig) {
			return failureHard
		}
	}
	return failureAmbiguous
}
