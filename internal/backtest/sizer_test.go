package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/melon/backtest_engine/internal/domain"
)

func TestPositionSizer_FractionalRisk(t *testing.T) {
	sizer := NewPositionSizer(RiskPolicy{
		RiskPerTrade:  0.01,
		StopLossPct:   0.02,
		TakeProfitPct: 0.04,
	})

	// 1% of 10000 risked over a 2-point stop distance buys 50 units.
	sizing := sizer.Size(10000, 100, domain.SideLong)
	assert.InDelta(t, 50, sizing.Quantity, 1e-9)
	assert.InDelta(t, 98, sizing.StopLoss, 1e-9)
	assert.InDelta(t, 104, sizing.TakeProfit, 1e-9)
}

func TestPositionSizer_ShortLevelsInverted(t *testing.T) {
	sizer := NewPositionSizer(RiskPolicy{
		RiskPerTrade:  0.02,
		StopLossPct:   0.015,
		TakeProfitPct: 0.03,
	})

	sizing := sizer.Size(10000, 100, domain.SideShort)
	assert.InDelta(t, 101.5, sizing.StopLoss, 1e-9)
	assert.InDelta(t, 97, sizing.TakeProfit, 1e-9)
	assert.Greater(t, sizing.Quantity, 0.0)
}

func TestPositionSizer_NotionalCap(t *testing.T) {
	// A huge risk fraction over a tight stop would demand leverage; the cap
	// clamps the notional to the available capital.
	sizer := NewPositionSizer(RiskPolicy{
		RiskPerTrade:  0.5,
		StopLossPct:   0.02,
		TakeProfitPct: 0.04,
	})

	sizing := sizer.Size(10000, 100, domain.SideLong)
	assert.InDelta(t, 100, sizing.Quantity, 1e-9)
	assert.LessOrEqual(t, sizing.Quantity*100, 10000.0)
}

func TestPositionSizer_DegenerateInputs(t *testing.T) {
	sizer := NewPositionSizer(RiskPolicy{RiskPerTrade: 0.01, StopLossPct: 0})
	assert.Zero(t, sizer.Size(10000, 100, domain.SideLong).Quantity,
		"zero stop distance must not divide by zero")

	sizer = NewPositionSizer(RiskPolicy{RiskPerTrade: 0.01, StopLossPct: 0.02})
	assert.Zero(t, sizer.Size(0, 100, domain.SideLong).Quantity, "no capital")
	assert.Zero(t, sizer.Size(10000, 0, domain.SideLong).Quantity, "no price")
}
