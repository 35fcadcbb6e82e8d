// Package httpapi serves the backtest and diagnostics HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"dripsim/internal/config"
	"dripsim/internal/data"
	"dripsim/internal/domain"
	"dripsim/internal/engine"
	"dripsim/internal/strategy"
)

// Fetcher is the slice of the data manager the server needs.
type Fetcher interface {
	FetchWithFallback(ctx context.Context, symbol, start, end string) (*domain.PriceSeries, error)
	ClearCache(ctx context.Context) error
	CacheInfo(ctx context.Context) (int, error)
	CooldownStatus() map[string]float64
}

// Server serves the dripsim HTTP API.
type Server struct {
	fetcher  Fetcher
	engine   *engine.Engine
	registry *strategy.Registry
	defaults config.BacktestConfig
	log      *slog.Logger
}

// NewServer creates an API server.
func NewServer(
	fetcher Fetcher,
	eng *engine.Engine,
	registry *strategy.Registry,
	defaults config.BacktestConfig,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		fetcher:  fetcher,
		engine:   eng,
		registry: registry,
		defaults: defaults,
		log:      log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/strategies", s.handleStrategies)
	mux.HandleFunc("GET /api/tickers", s.handleTickers)
	mux.HandleFunc("GET /api/cooldowns", s.handleCooldowns)
	mux.HandleFunc("POST /api/cache/clear", s.handleCacheClear)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	s.applyDefaults(&req)

	freq, err := domain.ParseFrequency(req.Frequency)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := s.fetcher.FetchWithFallback(r.Context(), req.Symbol, req.Start, req.End)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	report, err := s.engine.Run(r.Context(), engine.Params{
		Series:         series,
		Strategy:       req.Strategy,
		StrategyParams: req.StrategyParams,
		Frequency:      freq,
		InitialCash:    orDefault(req.InitialCash, s.defaults.InitialCash),
		Contribution:   orDefault(req.Contribution, s.defaults.Contribution),
		CommissionRate: orDefault(req.CommissionRate, s.defaults.CommissionRate),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.log.Info("backtest served",
		"run_id", report.RunID,
		"symbol", report.Symbol,
		"strategy", report.Strategy,
		"source", report.DataSource)
	writeJSON(w, BacktestResponse{Report: report})
}

// applyDefaults fills unset request fields from the configured defaults.
func (s *Server) applyDefaults(req *BacktestRequest) {
	if req.Start == "" || req.End == "" {
		start, end := data.DefaultDateRange()
		if req.Start == "" {
			req.Start = start
		}
		if req.End == "" {
			req.End = end
		}
	}
	if req.Strategy == "" {
		req.Strategy = s.defaults.Strategy
	}
	if req.Frequency == "" {
		req.Frequency = s.defaults.Frequency
	}
}

// orDefault resolves an optional numeric field: an absent field takes the
// configured default, an explicit value (including zero) is kept.
func orDefault(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, StrategiesResponse{Strategies: s.registry.List()})
}

func (s *Server) handleTickers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, TickersResponse{
		Popular:      data.PopularTickers(),
		Alternatives: data.AllAlternativeTickers(),
	})
}

func (s *Server) handleCooldowns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, CooldownsResponse{Cooldowns: s.fetcher.CooldownStatus()})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	count, err := s.fetcher.CacheInfo(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.fetcher.ClearCache(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("cache cleared", "entries", count)
	writeJSON(w, CacheClearResponse{Cleared: count})
}

// writeDomainError maps domain error types onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var (
		idr *domain.InvalidDateRangeError
		due *domain.DataUnavailableError
		ee  *domain.ExecutionError
	)
	switch {
	case errors.As(err, &idr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &due):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &ee):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
