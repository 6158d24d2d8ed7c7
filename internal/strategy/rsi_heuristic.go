package strategy

import (
	"github.com/melon/backtest_engine/internal/domain"
	"github.com/melon/backtest_engine/internal/indicator"
)

var _ Provider = (*RSIHeuristic)(nil)

// RSIHeuristic buys oversold bars (RSI < 30) and sells overbought ones
// (RSI > 70), both at confidence 0.75. Everything in between is Neutral at
// confidence 0.5, which never clears an entry filter.
type RSIHeuristic struct {
	period int
	rsi    []float64
}

func NewRSIHeuristic(series *domain.PriceSeries, period int) *RSIHeuristic {
	if period <= 0 {
		period = 14
	}
	return &RSIHeuristic{
		period: period,
		rsi:    indicator.RSI(series.Closes(), period),
	}
}

func (s *RSIHeuristic) Name() string {
	return "rsi"
}

func (s *RSIHeuristic) WarmupBars() int {
	return s.period
}

func (s *RSIHeuristic) Evaluate(i int) Signal {
	switch v := s.rsi[i]; {
	case v < 30:
		return Signal{Direction: DirectionBuy, Confidence: 0.75}
	case v > 70:
		return Signal{Direction: DirectionSell, Confidence: 0.75}
	default:
		return Signal{Direction: DirectionNeutral, Confidence: 0.5}
	}
}
