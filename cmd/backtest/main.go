package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/melon/backtest_engine/internal/backtest"
	"github.com/melon/backtest_engine/internal/config"
	"github.com/melon/backtest_engine/internal/domain"
	"github.com/melon/backtest_engine/internal/infrastructure/logger"
	"github.com/melon/backtest_engine/internal/infrastructure/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols (overrides config)")
	strategyFlag := flag.String("strategy", "", "strategy name (overrides config)")
	record := flag.Bool("record", false, "persist trades to the store")
	reset := flag.Bool("reset", false, "clear recorded trades before running")
	flag.Parse()

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

	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()

	if *reset {
		if err := store.DeleteTrades(ctx); err != nil {
			log.Error("Failed to clear trades", zap.Error(err))
		}
	}

	var recorder domain.TradeRecorder
	if *record {
		recorder = store
	}

	symbols := cfg.Backtest.Symbols
	if *symbolsFlag != "" {
		symbols = strings.Split(*symbolsFlag, ",")
	}
	if len(symbols) == 0 {
		log.Fatal("No symbols configured")
	}

	params := cfg.StrategyParams()
	if *strategyFlag != "" {
		params.Name = *strategyFlag
	}

	runner := backtest.NewRunner(store, recorder, log)
	results := runner.RunAll(ctx, symbols, cfg.EngineConfig(), params)

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("BACKTEST RESULTS")
	fmt.Println(strings.Repeat("=", 60))
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("%-10s ERROR: %v\n", res.Symbol, res.Err)
			continue
		}
		r := res.Report
		fmt.Printf("%-10s strategy=%s\n", r.Symbol, r.Strategy)
		fmt.Printf("  Initial Capital : %.2f\n", r.InitialCapital)
		fmt.Printf("  Final Capital   : %.2f\n", r.FinalCapital)
		fmt.Printf("  Total Return    : %.2f %%\n", r.TotalReturnPct)
		fmt.Printf("  Max Drawdown    : %.2f %%\n", r.MaxDrawdownPct)
		fmt.Printf("  Sharpe Ratio    : %.2f\n", r.SharpeRatio)
		fmt.Printf("  Trades          : %d\n", r.TotalTrades)
		fmt.Printf("  Win Rate        : %.2f %%\n", r.WinRatePct)
	}
	fmt.Println(strings.Repeat("=", 60))

	if failed == len(results) {
		os.Exit(1)
	}
}
