package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/melon/backtest_engine/internal/config"
	"github.com/melon/backtest_engine/internal/infrastructure/logger"
	"github.com/melon/backtest_engine/internal/infrastructure/marketdata"
	"github.com/melon/backtest_engine/internal/infrastructure/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	symbol := flag.String("symbol", "AAPL", "ticker to fetch")
	days := flag.Int("days", 365, "how far back to fetch")
	timespan := flag.String("timespan", "day", "bar timespan: day or minute")
	flag.Parse()

	// API key comes from .env, same as the collector.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
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

	adapter := marketdata.NewPolygonAdapter(apiKey, cfg.MarketData.RESTEndpoint, cfg.MarketData.WSEndpoint, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	to := time.Now()
	from := to.AddDate(0, 0, -*days)

	log.Info("Fetching history",
		zap.String("symbol", *symbol),
		zap.String("timespan", *timespan),
		zap.Time("from", from),
		zap.Time("to", to))

	bars, err := adapter.FetchAggregates(ctx, *symbol, 1, *timespan, from, to)
	if err != nil {
		log.Fatal("Fetch failed", zap.Error(err))
	}
	if len(bars) == 0 {
		log.Fatal("No bars returned for period")
	}

	if err := store.EnsureAsset(ctx, *symbol); err != nil {
		log.Fatal("Failed to ensure asset", zap.Error(err))
	}
	// Replace, don't merge: partial old data would corrupt indicator warm-up.
	if err := store.ReplaceBars(ctx, *symbol, bars); err != nil {
		log.Fatal("Failed to save bars", zap.Error(err))
	}

	log.Info("History saved", zap.String("symbol", *symbol), zap.Int("bars", len(bars)))
}
