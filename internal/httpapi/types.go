package httpapi

import "dripsim/internal/domain"

// BacktestRequest is the JSON body of POST /api/backtest. Absent fields
// fall back to the server's configured defaults; the numeric fields are
// pointers so an explicit zero is distinguishable from an omitted field.
type BacktestRequest struct {
	Symbol         string             `json:"symbol"`
	Start          string             `json:"start"`
	End            string             `json:"end"`
	Strategy       string             `json:"strategy"`
	StrategyParams map[string]float64 `json:"strategy_params,omitempty"`
	Frequency      string             `json:"frequency"`
	InitialCash    *float64           `json:"initial_cash,omitempty"`
	Contribution   *float64           `json:"contribution,omitempty"`
	CommissionRate *float64           `json:"commission_rate,omitempty"`
}

// BacktestResponse wraps a completed report.
type BacktestResponse struct {
	Report *domain.PerformanceReport `json:"report"`
}

// StrategiesResponse lists the registered strategy names.
type StrategiesResponse struct {
	Strategies []string `json:"strategies"`
}

// TickersResponse lists popular symbols and rate-limit proxy suggestions.
type TickersResponse struct {
	Popular      map[string]string   `json:"popular"`
	Alternatives map[string][]string `json:"alternatives"`
}

// CooldownsResponse maps symbols to remaining cooldown seconds.
type CooldownsResponse struct {
	Cooldowns map[string]float64 `json:"cooldowns"`
}

// CacheClearResponse reports how many entries were present before the
// clear.
type CacheClearResponse struct {
	Cleared int `json:"cleared"`
}
