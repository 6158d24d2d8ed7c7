package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/melon/backtest_engine/internal/collector"
	"github.com/melon/backtest_engine/internal/config"
	"github.com/melon/backtest_engine/internal/infrastructure/logger"
	"github.com/melon/backtest_engine/internal/infrastructure/marketdata"
	"github.com/melon/backtest_engine/internal/infrastructure/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	keyEnv := cfg.MarketData.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "POLYGON_API_KEY"
	}
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		log.Fatal("Market data API key is not configured", zap.String("env", keyEnv))
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	interval := time.Duration(cfg.Collector.IntervalSec) * time.Second
	agg := collector.New(store, interval, log)

	adapter := marketdata.NewPolygonAdapter(apiKey, cfg.MarketData.RESTEndpoint, cfg.MarketData.WSEndpoint, log)
	adapter.OnTick(agg.HandleTick)

	symbols := cfg.Collector.Symbols
	if len(symbols) == 0 {
		log.Fatal("No collector symbols configured")
	}
	if err := adapter.ConnectWS(symbols); err != nil {
		log.Fatal("Failed to connect stream", zap.Error(err))
	}
	log.Info("Collecting ticks", zap.Strings("symbols", symbols), zap.Duration("interval", interval))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	adapter.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	agg.Flush(ctx)
}

// newLogger prefers file output when configured: the collector is a
// long-running daemon whose stderr is usually not captured.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Logging.File != "" {
		return logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	}
	return logger.NewLogger(cfg.Logging.Level)
}
