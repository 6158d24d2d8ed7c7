// Package backtest contains the bar-by-bar position simulation engine, the
// fractional-risk position sizer and the performance metrics computed from
// a finished run.
package backtest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/melon/backtest_engine/internal/domain"
	"github.com/melon/backtest_engine/internal/strategy"
)

// Config is the immutable engine configuration for one run.
type Config struct {
	InitialCapital float64
	Policy         RiskPolicy

	// ExitOnReversal closes an open position when the signal flips to the
	// opposite direction, independent of stop-loss/take-profit. Used by the
	// crossover strategy.
	ExitOnReversal bool

	// LongOnly ignores Sell entry signals. Sell signals still drive
	// reversal exits.
	LongOnly bool
}

// Engine replays one price series through a signal provider, maintaining a
// single-position state machine with stop-loss/take-profit exits and a
// fractional-risk sizing policy. An engine instance owns its capital,
// position, equity curve and trade log exclusively; it is not safe for
// concurrent use, but independent engines may run in parallel.
type Engine struct {
	series   *domain.PriceSeries
	provider strategy.Provider
	sizer    *PositionSizer
	recorder domain.TradeRecorder
	logger   *zap.Logger
	cfg      Config

	capital  float64
	position *domain.Position
	equity   []float64
	trades   []domain.TradeLogEntry
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithRecorder persists opened/closed trades through the given recorder.
// Recorder failures are logged and swallowed; they never corrupt the
// in-memory simulation.
func WithRecorder(r domain.TradeRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine validates the inputs and prepares a run. Insufficient history
// for the provider's warm-up window is a fatal construction error: the
// caller must not attempt to run the engine.
func NewEngine(series *domain.PriceSeries, provider strategy.Provider, cfg Config, opts ...Option) (*Engine, error) {
	if series == nil || series.Len() == 0 {
		return nil, domain.ErrNoHistory
	}
	if series.Len() <= provider.WarmupBars() {
		return nil, fmt.Errorf("%s: %d bars, need more than %d for %s: %w",
			series.Symbol, series.Len(), provider.WarmupBars(), provider.Name(),
			domain.ErrInsufficientData)
	}
	if cfg.InitialCapital <= 0 {
		cfg.InitialCapital = 10000
	}

	e := &Engine{
		series:   series,
		provider: provider,
		sizer:    NewPositionSizer(cfg.Policy),
		logger:   zap.NewNop(),
		cfg:      cfg,
		capital:  cfg.InitialCapital,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes the simulation loop to completion and returns the report.
// The loop is inherently sequential: each bar's decision depends on the
// state left by the previous bar.
//
// A position still open at the end of the series is left unresolved: its
// unrealized PnL is included in the final equity point but no trade-log
// entry is created, so trade statistics cover closed trades only.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := e.provider.WarmupBars()
	e.equity = append(e.equity, e.capital)

	for i := start; i < e.series.Len(); i++ {
		bar := e.series.Bars[i]
		sig := e.provider.Evaluate(i)

		if e.position != nil {
			e.checkExit(ctx, bar, sig)
		}
		if e.position == nil {
			e.tryEnter(ctx, bar, sig)
		}

		if e.position != nil {
			e.equity = append(e.equity, e.capital+e.position.UnrealizedPnL(bar.Close))
		} else {
			e.equity = append(e.equity, e.capital)
		}
	}

	report := NewMetrics(e.equity, e.cfg.InitialCapital, e.trades).Report()
	report.Symbol = e.series.Symbol
	report.Strategy = e.provider.Name()
	return &report, nil
}

// EquityCurve returns the capital-plus-unrealized-PnL snapshots of the
// finished run, seeded with the initial capital.
func (e *Engine) EquityCurve() []float64 {
	return e.equity
}

// Trades returns the realized trade log of the finished run.
func (e *Engine) Trades() []domain.TradeLogEntry {
	return e.trades
}

// Position returns the currently open position, or nil when flat.
func (e *Engine) Position() *domain.Position {
	return e.position
}

// checkExit closes the open position when the bar's range touches the stop
// or target. Exits are checked against high/low, not close, and stop-loss
// is checked first: when both levels sit inside the same bar the adverse
// outcome is assumed to hit first.
func (e *Engine) checkExit(ctx context.Context, bar domain.Bar, sig strategy.Signal) {
	pos := e.position

	if pos.Side == domain.SideLong {
		switch {
		case bar.Low <= pos.StopLoss:
			e.closePosition(ctx, pos.StopLoss, domain.ExitStopLoss)
			return
		case bar.High >= pos.TakeProfit:
			e.closePosition(ctx, pos.TakeProfit, domain.ExitTakeProfit)
			return
		}
	} else {
		switch {
		case bar.High >= pos.StopLoss:
			e.closePosition(ctx, pos.StopLoss, domain.ExitStopLoss)
			return
		case bar.Low <= pos.TakeProfit:
			e.closePosition(ctx, pos.TakeProfit, domain.ExitTakeProfit)
			return
		}
	}

	if e.cfg.ExitOnReversal && opposes(sig.Direction, pos.Side) {
		e.closePosition(ctx, bar.Close, domain.ExitSignalReversal)
	}
}

func opposes(d strategy.Direction, side domain.Side) bool {
	return (side == domain.SideLong && d == strategy.DirectionSell) ||
		(side == domain.SideShort && d == strategy.DirectionBuy)
}

// tryEnter opens a position when the signal is actionable: non-neutral,
// confidence at or above the policy minimum, and non-zero sizing. Sizing
// failures degrade to skipping the entry, never to aborting the run.
func (e *Engine) tryEnter(ctx context.Context, bar domain.Bar, sig strategy.Signal) {
	if sig.Direction == strategy.DirectionNeutral {
		return
	}
	if sig.Confidence < e.cfg.Policy.MinConfidence {
		return
	}

	side := domain.SideLong
	if sig.Direction == strategy.DirectionSell {
		if e.cfg.LongOnly {
			return
		}
		side = domain.SideShort
	}

	sizing := e.sizer.Size(e.capital, bar.Close, side)
	if sizing.Quantity <= 0 {
		e.logger.Debug("entry skipped, zero quantity",
			zap.String("symbol", e.series.Symbol), zap.Float64("entry", bar.Close))
		return
	}

	pos := &domain.Position{
		Side:       side,
		EntryPrice: bar.Close,
		Quantity:   sizing.Quantity,
		StopLoss:   sizing.StopLoss,
		TakeProfit: sizing.TakeProfit,
		EntryTime:  bar.Time,
		Confidence: sig.Confidence,
	}

	if e.recorder != nil {
		id, err := e.recorder.OpenTrade(ctx, e.series.Symbol, side,
			pos.EntryPrice, pos.Quantity, pos.StopLoss, pos.TakeProfit, pos.Confidence)
		if err != nil {
			e.logger.Warn("failed to record trade open",
				zap.String("symbol", e.series.Symbol), zap.Error(err))
		} else {
			pos.TradeID = id
		}
	}

	e.position = pos
}

func (e *Engine) closePosition(ctx context.Context, exitPrice float64, reason domain.ExitReason) {
	pos := e.position
	pnl := pos.UnrealizedPnL(exitPrice)

	e.capital += pnl
	e.trades = append(e.trades, domain.TradeLogEntry{PnL: pnl, Reason: reason, Side: pos.Side})

	if e.recorder != nil && pos.TradeID != 0 {
		if err := e.recorder.CloseTrade(ctx, pos.TradeID, exitPrice, pnl); err != nil {
			e.logger.Warn("failed to record trade close",
				zap.String("symbol", e.series.Symbol),
				zap.Int64("trade_id", pos.TradeID), zap.Error(err))
		}
	}

	e.position = nil
}
