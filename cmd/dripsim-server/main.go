package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dripsim/internal/calendar"
	"dripsim/internal/config"
	"dripsim/internal/data"
	"dripsim/internal/engine"
	"dripsim/internal/httpapi"
	"dripsim/internal/store"
	"dripsim/internal/strategy"
	"dripsim/internal/util"
)

func main() {
	cfgPath := "config/dripsim.yaml"
	if p := os.Getenv("DRIPSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg := config.Default()
	if loaded, err := config.Load(cfgPath); err == nil {
		cfg = loaded
	} else if !os.IsNotExist(err) {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	cache, err := store.NewCacheStore(cfg.Storage.CachePath, cfg.Fetch.CacheFreshFor.Std())
	if err != nil {
		log.Fatalf("opening cache: %v", err)
	}
	defer cache.Close()

	provider := data.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	manager := data.NewManager(
		provider,
		cache,
		store.NewCooldownStore(cfg.Fetch.CooldownWindow.Std()),
		store.NewParquetArchive(cfg.Storage.DataDir),
		calendar.New(),
		&data.Options{
			MaxAttempts: cfg.Fetch.MaxAttempts,
			BackoffBase: cfg.Fetch.BackoffBase.Std(),
			BackoffCap:  cfg.Fetch.BackoffCap.Std(),
		},
		logger,
	)

	registry := strategy.NewDefaultRegistry()
	eng := engine.New(registry, logger)
	srv := httpapi.NewServer(manager, eng, registry, cfg.Backtest, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("dripsim server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down dripsim server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
