package strategy

import (
	"math"

	"github.com/melon/backtest_engine/internal/domain"
	"github.com/melon/backtest_engine/internal/indicator"
)

var _ Provider = (*MACrossover)(nil)

// MACrossover signals Buy while the fast SMA is above the slow SMA and Sell
// while it is below. There is no confidence concept for this strategy, so
// every signal carries confidence 1.0. The engine additionally uses the
// opposing signal as an exit trigger for an open position.
type MACrossover struct {
	fastPeriod int
	slowPeriod int
	fast       []float64
	slow       []float64
}

func NewMACrossover(series *domain.PriceSeries, fastPeriod, slowPeriod int) *MACrossover {
	closes := series.Closes()
	return &MACrossover{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		fast:       indicator.SMA(closes, fastPeriod),
		slow:       indicator.SMA(closes, slowPeriod),
	}
}

func (s *MACrossover) Name() string {
	return "ma-cross"
}

func (s *MACrossover) WarmupBars() int {
	if s.fastPeriod > s.slowPeriod {
		return s.fastPeriod - 1
	}
	return s.slowPeriod - 1
}

func (s *MACrossover) Evaluate(i int) Signal {
	fast, slow := s.fast[i], s.slow[i]
	if math.IsNaN(fast) || math.IsNaN(slow) {
		return Signal{Direction: DirectionNeutral, Confidence: 1.0}
	}
	switch {
	case fast > slow:
		return Signal{Direction: DirectionBuy, Confidence: 1.0}
	case fast < slow:
		return Signal{Direction: DirectionSell, Confidence: 1.0}
	default:
		return Signal{Direction: DirectionNeutral, Confidence: 1.0}
	}
}
