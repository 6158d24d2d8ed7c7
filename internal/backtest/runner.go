package backtest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/melon/backtest_engine/internal/domain"
	"github.com/melon/backtest_engine/internal/predict"
	"github.com/melon/backtest_engine/internal/strategy"
)

// StrategyParams selects and parameterizes the signal provider for a run.
type StrategyParams struct {
	Name string // "ma-cross", "rsi" or "oracle"

	// ma-cross
	FastPeriod int
	SlowPeriod int

	// rsi
	RSIPeriod int

	// oracle
	Window    int
	Threshold float64
	Predictor domain.PredictionProvider // nil selects the momentum heuristic
}

// Result is the outcome of one symbol's backtest within a batch.
type Result struct {
	Symbol string
	Report *Report
	Err    error
}

// Runner executes independent backtests across symbols. Each symbol's run
// is isolated: a failure (including a panic from a malformed series) is
// reported for that symbol and the batch continues.
type Runner struct {
	history  domain.HistoryProvider
	recorder domain.TradeRecorder
	logger   *zap.Logger
}

func NewRunner(history domain.HistoryProvider, recorder domain.TradeRecorder, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{history: history, recorder: recorder, logger: logger}
}

// RunAll backtests every symbol with the same configuration and returns one
// Result per symbol, in input order.
func (r *Runner) RunAll(ctx context.Context, symbols []string, cfg Config, params StrategyParams) []Result {
	results := make([]Result, 0, len(symbols))
	for _, symbol := range symbols {
		report, err := r.RunSymbol(ctx, symbol, cfg, params)
		if err != nil {
			r.logger.Error("backtest failed",
				zap.String("symbol", symbol), zap.Error(err))
		}
		results = append(results, Result{Symbol: symbol, Report: report, Err: err})
	}
	return results
}

// RunSymbol loads the symbol's history, builds the provider and runs one
// engine to completion.
func (r *Runner) RunSymbol(ctx context.Context, symbol string, cfg Config, params StrategyParams) (report *Report, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			report = nil
			err = fmt.Errorf("backtest %s panicked: %v", symbol, rec)
		}
	}()

	series, err := r.history.LoadSeries(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", symbol, err)
	}

	provider, err := buildProvider(series, params, r.logger)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithLogger(r.logger)}
	if r.recorder != nil {
		opts = append(opts, WithRecorder(r.recorder))
	}
	engine, err := NewEngine(series, provider, cfg, opts...)
	if err != nil {
		return nil, err
	}

	r.logger.Info("running backtest",
		zap.String("symbol", symbol),
		zap.String("strategy", provider.Name()),
		zap.Int("bars", series.Len()))
	return engine.Run(ctx)
}

func buildProvider(series *domain.PriceSeries, params StrategyParams, logger *zap.Logger) (strategy.Provider, error) {
	switch params.Name {
	case "ma-cross", "":
		fast, slow := params.FastPeriod, params.SlowPeriod
		if fast <= 0 {
			fast = 50
		}
		if slow <= 0 {
			slow = 200
		}
		return strategy.NewMACrossover(series, fast, slow), nil
	case "rsi":
		return strategy.NewRSIHeuristic(series, params.RSIPeriod), nil
	case "oracle":
		predictor := params.Predictor
		if predictor == nil {
			predictor = predict.NewMomentum(5)
		}
		fallback := predict.NewHeuristic(14)
		return strategy.NewPredictionOracle(series, predictor, fallback,
			params.Window, params.Threshold, logger), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", params.Name)
	}
}
