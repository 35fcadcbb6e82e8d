// One-shot tool: fetch a symbol's history and replay a contribution
// strategy over it, printing the performance report as JSON.
//
// Usage:
//
//	go run cmd/dripsim/main.go -symbol SPY -start 2019-01-01 -end 2024-01-01 -strategy rsi
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"dripsim/internal/calendar"
	"dripsim/internal/config"
	"dripsim/internal/data"
	"dripsim/internal/domain"
	"dripsim/internal/engine"
	"dripsim/internal/store"
	"dripsim/internal/strategy"
	"dripsim/internal/util"
)

func main() {
	var (
		symbol       = flag.String("symbol", "SPY", "ticker symbol")
		start        = flag.String("start", "", "start date (default: 5 years ago)")
		end          = flag.String("end", "", "end date (default: today)")
		strategyName = flag.String("strategy", "dca", "strategy name")
		params       = flag.String("params", "", "strategy parameters as k=v,k=v (e.g. period=14,threshold=25)")
		frequency    = flag.String("frequency", "monthly", "contribution frequency: weekly|monthly|quarterly|yearly")
		initialCash  = flag.Float64("initial-cash", 0, "starting cash balance")
		contribution = flag.Float64("contribution", 500, "contribution amount per period")
		commission   = flag.Float64("commission", 0, "commission rate per buy (fraction)")
		cfgPath      = flag.String("config", "", "optional config file path")
		trades       = flag.Bool("trades", false, "include the full trade log in output")
	)
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	if *start == "" || *end == "" {
		defStart, defEnd := data.DefaultDateRange()
		if *start == "" {
			*start = defStart
		}
		if *end == "" {
			*end = defEnd
		}
	}

	freq, err := domain.ParseFrequency(*frequency)
	if err != nil {
		log.Fatalf("%v", err)
	}
	strategyParams, err := parseParams(*params)
	if err != nil {
		log.Fatalf("parsing -params: %v", err)
	}

	cache, err := store.NewCacheStore(cfg.Storage.CachePath, cfg.Fetch.CacheFreshFor.Std())
	if err != nil {
		log.Fatalf("opening cache: %v", err)
	}
	defer cache.Close()

	provider := data.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	cal := calendar.New()
	manager := data.NewManager(
		provider,
		cache,
		store.NewCooldownStore(cfg.Fetch.CooldownWindow.Std()),
		store.NewParquetArchive(cfg.Storage.DataDir),
		cal,
		&data.Options{
			MaxAttempts: cfg.Fetch.MaxAttempts,
			BackoffBase: cfg.Fetch.BackoffBase.Std(),
			BackoffCap:  cfg.Fetch.BackoffCap.Std(),
		},
		logger,
	)

	ctx := context.Background()
	series, err := manager.FetchWithFallback(ctx, strings.ToUpper(*symbol), *start, *end)
	if err != nil {
		log.Fatalf("fetching %s: %v", *symbol, err)
	}

	eng := engine.New(strategy.NewDefaultRegistry(), logger)
	report, err := eng.Run(ctx, engine.Params{
		Series:         series,
		Strategy:       *strategyName,
		StrategyParams: strategyParams,
		Frequency:      freq,
		InitialCash:    *initialCash,
		Contribution:   *contribution,
		CommissionRate: *commission,
	})
	if err != nil {
		log.Fatalf("running backtest: %v", err)
	}

	if !*trades {
		report.Trades = nil
		report.Equity = nil
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("encoding report: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
}

// parseParams turns "period=14,threshold=25" into a parameter map.
func parseParams(s string) (map[string]float64, error) {
	if s == "" {
		return nil, nil
	}
	out := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("malformed parameter %q", pair)
		}
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
			return nil, fmt.Errorf("parameter %q: %v", k, err)
		}
		out[k] = f
	}
	return out, nil
}
