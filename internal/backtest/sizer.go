package backtest

import "github.com/melon/backtest_engine/internal/domain"

// RiskPolicy is the immutable per-run risk configuration. It replaces the
// process-wide constants of earlier revisions so that parallel backtests
// can run with different parameter sets.
type RiskPolicy struct {
	// RiskPerTrade is the fraction of current capital risked on the
	// stop-loss distance of each trade.
	RiskPerTrade float64

	// StopLossPct and TakeProfitPct shift the entry price to the exit
	// levels, direction-dependent.
	StopLossPct   float64
	TakeProfitPct float64

	// MinConfidence is the minimum signal confidence the engine acts on.
	MinConfidence float64
}

// DefaultRiskPolicy risks 2% per trade with a 1.5% stop and a 3% target
// (1:2 risk/reward), acting on signals of at least 60% confidence.
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		RiskPerTrade:  0.02,
		StopLossPct:   0.015,
		TakeProfitPct: 0.03,
		MinConfidence: 0.60,
	}
}

// Sizing is the position size and exit levels for a prospective entry. A
// zero Quantity means "do not open".
type Sizing struct {
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
}

// PositionSizer converts a risk budget and stop distance into a quantity.
type PositionSizer struct {
	policy RiskPolicy
}

func NewPositionSizer(policy RiskPolicy) *PositionSizer {
	return &PositionSizer{policy: policy}
}

// Size computes quantity and stop/take levels for an entry at entryPrice
// with the given capital. Quantity is capped so that the position notional
// never exceeds capital (no leverage), and degenerate stop distances yield
// a zero quantity instead of dividing by zero.
func (s *PositionSizer) Size(capital, entryPrice float64, side domain.Side) Sizing {
	var stopLoss, takeProfit float64
	if side == domain.SideShort {
		stopLoss = entryPrice * (1 + s.policy.StopLossPct)
		takeProfit = entryPrice * (1 - s.policy.TakeProfitPct)
	} else {
		stopLoss = entryPrice * (1 - s.policy.StopLossPct)
		takeProfit = entryPrice * (1 + s.policy.TakeProfitPct)
	}

	riskPerUnit := entryPrice - stopLoss
	if riskPerUnit < 0 {
		riskPerUnit = -riskPerUnit
	}
	if riskPerUnit <= 0 || entryPrice <= 0 || capital <= 0 {
		return Sizing{}
	}

	riskAmount := capital * s.policy.RiskPerTrade
	quantity := riskAmount / riskPerUnit
	if quantity*entryPrice > capital {
		quantity = capital / entryPrice
	}

	return Sizing{Quantity: quantity, StopLoss: stopLoss, TakeProfit: takeProfit}
}
