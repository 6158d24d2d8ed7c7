package domain

import "time"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// ExitReason explains why a position was closed.
type ExitReason string

const (
	ExitStopLoss       ExitReason = "STOP_LOSS"
	ExitTakeProfit     ExitReason = "TAKE_PROFIT"
	ExitSignalReversal ExitReason = "SIGNAL_REVERSAL"
)

// Position is the single open position of a backtest run. At most one exists
// at any point in a simulation.
type Position struct {
	Side       Side
	EntryPrice float64
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
	EntryTime  time.Time
	Confidence float64
	TradeID    int64 // recorder identifier, 0 when not persisted
}

// UnrealizedPnL values the position against the given price using the same
// sign convention as realized PnL.
func (p *Position) UnrealizedPnL(price float64) float64 {
	if p.Side == SideShort {
		return (p.EntryPrice - price) * p.Quantity
	}
	return (price - p.EntryPrice) * p.Quantity
}

// TradeLogEntry is one realized trade. Entries are append-only.
type TradeLogEntry struct {
	PnL    float64
	Reason ExitReason
	Side   Side
}

// TradeRecord is a persisted trade as stored by a TradeRecorder.
type TradeRecord struct {
	ID         int64
	Symbol     string
	Side       Side
	EntryPrice float64
	Size       float64
	StopLoss   float64
	TakeProfit float64
	Confidence float64
	Status     string
	ExitPrice  float64
	PnL        float64
	OpenedAt   time.Time
	ClosedAt   time.Time
}
