package indicator

import (
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	sma := SMA(values, 3)

	if !math.IsNaN(sma[0]) || !math.IsNaN(sma[1]) {
		t.Errorf("Expected NaN for warm-up values, got %v, %v", sma[0], sma[1])
	}

	expected := []float64{2, 3, 4}
	for i, want := range expected {
		if got := sma[i+2]; math.Abs(got-want) > 1e-9 {
			t.Errorf("SMA[%d]: expected %f, got %f", i+2, want, got)
		}
	}
}

func TestSMA_WindowLargerThanSeries(t *testing.T) {
	sma := SMA([]float64{1, 2}, 5)
	for i, v := range sma {
		if !math.IsNaN(v) {
			t.Errorf("SMA[%d]: expected NaN, got %f", i, v)
		}
	}
}

func TestEMA(t *testing.T) {
	values := []float64{10, 10, 10, 10}
	ema := EMA(values, 3)
	for i, v := range ema {
		if math.Abs(v-10) > 1e-9 {
			t.Errorf("EMA[%d]: expected 10 for constant series, got %f", i, v)
		}
	}

	// EMA reacts to a jump but stays below the new level.
	values = []float64{10, 10, 10, 20}
	ema = EMA(values, 3)
	last := ema[len(ema)-1]
	if last <= 10 || last >= 20 {
		t.Errorf("Expected EMA between 10 and 20 after jump, got %f", last)
	}
}

func TestRSI_FlatSeriesIsNeutral(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 100
	}
	rsi := RSI(values, 14)
	for i, v := range rsi {
		if v != 50 {
			t.Errorf("RSI[%d]: expected neutral 50 for flat series, got %f", i, v)
		}
	}
}

func TestRSI_Extremes(t *testing.T) {
	up := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	rsi := RSI(up, 14)
	if got := rsi[len(rsi)-1]; got != 100 {
		t.Errorf("Expected RSI 100 for monotonically rising series, got %f", got)
	}

	down := make([]float64, 30)
	for i := range down {
		down[i] = 100 - float64(i)
	}
	rsi = RSI(down, 14)
	if got := rsi[len(rsi)-1]; got != 0 {
		t.Errorf("Expected RSI 0 for monotonically falling series, got %f", got)
	}
}

func TestRSI_BackfillsWarmup(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 100 + float64(i%3)
	}
	rsi := RSI(values, 14)

	// The warm-up region is back-filled with the first computed value, so
	// nothing is NaN or infinite.
	for i, v := range rsi {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("RSI[%d] is %f; warm-up must be back-filled", i, v)
		}
	}
	if rsi[0] != rsi[14] {
		t.Errorf("Expected warm-up back-filled with first value %f, got %f", rsi[14], rsi[0])
	}
}

func TestMACD(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	res := MACD(values, 12, 26, 9)

	if len(res.MACD) != len(values) || len(res.Signal) != len(values) || len(res.Histogram) != len(values) {
		t.Fatalf("Expected aligned output lengths, got %d/%d/%d",
			len(res.MACD), len(res.Signal), len(res.Histogram))
	}

	for i := range values {
		want := res.MACD[i] - res.Signal[i]
		if math.Abs(res.Histogram[i]-want) > 1e-9 {
			t.Errorf("Histogram[%d]: expected %f, got %f", i, want, res.Histogram[i])
		}
	}

	// Rising series: fast EMA above slow EMA once trend establishes.
	if res.MACD[len(values)-1] <= 0 {
		t.Errorf("Expected positive MACD in uptrend, got %f", res.MACD[len(values)-1])
	}
}
