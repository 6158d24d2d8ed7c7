package domain

import (
	"fmt"
	"time"
)

// Bar is a single OHLCV observation at a fixed timestamp.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries is the ordered bar history for one symbol. Bars are sorted
// ascending by timestamp with no duplicates, and are never mutated once the
// series is built.
type PriceSeries struct {
	Symbol string
	Bars   []Bar
}

// NewPriceSeries validates the bar ordering invariant and wraps the bars.
func NewPriceSeries(symbol string, bars []Bar) (*PriceSeries, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoHistory)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("series %s: bar %d timestamp %s not after %s",
				symbol, i, bars[i].Time, bars[i-1].Time)
		}
	}
	return &PriceSeries{Symbol: symbol, Bars: bars}, nil
}

func (s *PriceSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the close column as a slice, aligned with Bars.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}
