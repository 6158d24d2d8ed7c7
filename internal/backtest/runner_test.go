package backtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/melon/backtest_engine/internal/domain"
)

type MockHistory struct {
	series map[string]*domain.PriceSeries
}

func (m *MockHistory) LoadSeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	series, ok := m.series[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrAssetNotFound)
	}
	return series, nil
}

func mockHistoryWith(t *testing.T, symbols map[string]int) *MockHistory {
	t.Helper()
	h := &MockHistory{series: make(map[string]*domain.PriceSeries)}
	for symbol, n := range symbols {
		bars := make([]domain.Bar, n)
		for i := range bars {
			c := 100 + float64(i%7)
			bars[i] = bar(c, c+1, c-1, c)
		}
		series := seriesFromBars(t, bars)
		series.Symbol = symbol
		h.series[symbol] = series
	}
	return h
}

func TestRunner_BatchIsolation(t *testing.T) {
	history := mockHistoryWith(t, map[string]int{
		"GOOD":  40,
		"SHORT": 5,
	})
	runner := NewRunner(history, nil, nil)

	results := runner.RunAll(context.Background(),
		[]string{"GOOD", "MISSING", "SHORT"},
		testConfig(), StrategyParams{Name: "rsi", RSIPeriod: 14})

	if len(results) != 3 {
		t.Fatalf("Expected a result per symbol, got %d", len(results))
	}

	if results[0].Err != nil || results[0].Report == nil {
		t.Errorf("GOOD: expected a report, got err=%v", results[0].Err)
	}
	if results[0].Report != nil && results[0].Report.Symbol != "GOOD" {
		t.Errorf("GOOD: report carries wrong symbol %q", results[0].Report.Symbol)
	}

	if !errors.Is(results[1].Err, domain.ErrAssetNotFound) {
		t.Errorf("MISSING: expected ErrAssetNotFound, got %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, domain.ErrInsufficientData) {
		t.Errorf("SHORT: expected ErrInsufficientData, got %v", results[2].Err)
	}
}

func TestRunner_UnknownStrategy(t *testing.T) {
	history := mockHistoryWith(t, map[string]int{"GOOD": 40})
	runner := NewRunner(history, nil, nil)

	_, err := runner.RunSymbol(context.Background(), "GOOD",
		testConfig(), StrategyParams{Name: "martingale"})
	if err == nil || !strings.Contains(err.Error(), "unknown strategy") {
		t.Errorf("Expected unknown strategy error, got %v", err)
	}
}

type panicPredictor struct{}

func (panicPredictor) Predict(bars []domain.Bar) (float64, float64, error) {
	panic("predictor blew up")
}

func TestRunner_RecoversFromPanic(t *testing.T) {
	history := mockHistoryWith(t, map[string]int{
		"BOOM": 40,
		"GOOD": 40,
	})
	runner := NewRunner(history, nil, nil)

	params := StrategyParams{Name: "oracle", Window: 5, Predictor: panicPredictor{}}
	results := runner.RunAll(context.Background(),
		[]string{"BOOM", "GOOD"}, testConfig(), params)

	if results[0].Err == nil || !strings.Contains(results[0].Err.Error(), "panicked") {
		t.Errorf("BOOM: expected a recovered panic error, got %v", results[0].Err)
	}
	// The panic in the first symbol must not take down the batch.
	if len(results) != 2 {
		t.Fatalf("Expected the batch to continue, got %d results", len(results))
	}
}
