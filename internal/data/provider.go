// Package data acquires daily price series for the replay engine, masking
// upstream unreliability behind caching, bounded retries, per-symbol
// cooldowns, and a synthetic-data fallback.
package data

import (
	"context"
	"time"

	"dripsim/internal/domain"
)

// Provider fetches raw daily bars from an upstream market-data source.
type Provider interface {
	// Name returns the provider identifier (e.g. "alpaca").
	Name() string

	// FetchDailyBars returns daily bars for symbol within [start, end].
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error)
}
