package domain

import (
	"context"
	"time"
)

// HistoryProvider loads the full bar history for a symbol.
type HistoryProvider interface {
	LoadSeries(ctx context.Context, symbol string) (*PriceSeries, error)
}

// PredictionProvider forecasts the next closing price for a window of bars
// and scores its own confidence in [0,1]. Implementations must not fail on
// normal inputs; callers fall back to a heuristic when they do.
type PredictionProvider interface {
	Predict(bars []Bar) (price float64, confidence float64, err error)
}

// TradeRecorder persists opened and closed trades. Recorder failures must
// never abort a simulation; callers log and continue.
type TradeRecorder interface {
	OpenTrade(ctx context.Context, symbol string, side Side, entry, size, stopLoss, takeProfit, confidence float64) (int64, error)
	CloseTrade(ctx context.Context, id int64, exitPrice, pnl float64) error
}

// TradeRepository reads back persisted trades.
type TradeRepository interface {
	ListTrades(ctx context.Context, limit int) ([]*TradeRecord, error)
}

// BarWriter appends collected bars to the price store.
type BarWriter interface {
	EnsureAsset(ctx context.Context, symbol string) error
	SaveBars(ctx context.Context, symbol string, bars []Bar) error
}

// TickHandler consumes live ticks from a market-data stream.
type TickHandler func(symbol string, price, size float64, ts time.Time)
