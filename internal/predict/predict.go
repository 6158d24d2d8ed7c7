// Package predict provides deterministic price predictors used by the
// oracle strategy. The real model (an LSTM service) sits behind the
// domain.PredictionProvider boundary; these implementations are the
// heuristics the system degrades to when no model is available.
package predict

import (
	"github.com/melon/backtest_engine/internal/domain"
	"github.com/melon/backtest_engine/internal/indicator"
)

// Compile-time interface checks.
var (
	_ domain.PredictionProvider = (*Heuristic)(nil)
	_ domain.PredictionProvider = (*Momentum)(nil)
)

// Heuristic predicts a small mean-reversion move at RSI extremes: +0.5% when
// oversold, -0.5% when overbought, otherwise flat. Confidence is 0.75 at the
// extremes and 0.5 in the neutral zone. It never fails.
type Heuristic struct {
	period int
}

func NewHeuristic(period int) *Heuristic {
	if period <= 0 {
		period = 14
	}
	return &Heuristic{period: period}
}

func (h *Heuristic) Predict(bars []domain.Bar) (float64, float64, error) {
	if len(bars) == 0 {
		return 0, 0, nil
	}
	last := bars[len(bars)-1].Close

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	rsi := indicator.RSI(closes, h.period)
	current := rsi[len(rsi)-1]

	switch {
	case current < 30: // oversold, price likely to recover
		return last * 1.005, 0.75, nil
	case current > 70: // overbought
		return last * 0.995, 0.75, nil
	default:
		return last, 0.5, nil
	}
}

// Momentum projects half of the recent move forward: if the close moved m%
// over the last lookback bars, it predicts a further m/2% in the same
// direction. Confidence grows with the size of the move, capped at 0.99.
type Momentum struct {
	lookback int
}

func NewMomentum(lookback int) *Momentum {
	if lookback <= 0 {
		lookback = 5
	}
	return &Momentum{lookback: lookback}
}

func (m *Momentum) Predict(bars []domain.Bar) (float64, float64, error) {
	if len(bars) < 2 {
		if len(bars) == 1 {
			return bars[0].Close, 0.5, nil
		}
		return 0, 0, nil
	}

	last := bars[len(bars)-1].Close
	ref := m.lookback
	if ref >= len(bars) {
		ref = len(bars) - 1
	}
	prev := bars[len(bars)-1-ref].Close
	if prev == 0 {
		return last, 0.5, nil
	}

	move := last/prev - 1
	pred := last * (1 + move*0.5)

	confidence := 0.65 + abs(move)*2
	if confidence > 0.99 {
		confidence = 0.99
	}
	return pred, confidence, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
