package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/melon/backtest_engine/internal/domain"
)

type MockWriter struct {
	EnsureErr error
	SaveErr   error

	Assets []string
	Saved  map[string][]domain.Bar
}

func (m *MockWriter) EnsureAsset(ctx context.Context, symbol string) error {
	if m.EnsureErr != nil {
		return m.EnsureErr
	}
	m.Assets = append(m.Assets, symbol)
	return nil
}

func (m *MockWriter) SaveBars(ctx context.Context, symbol string, bars []domain.Bar) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.Saved == nil {
		m.Saved = make(map[string][]domain.Bar)
	}
	m.Saved[symbol] = append(m.Saved[symbol], bars...)
	return nil
}

func TestCollector_AggregatesTicksIntoBar(t *testing.T) {
	writer := &MockWriter{}
	c := New(writer, time.Minute, nil)

	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	c.HandleTick("AAPL", 100, 10, base.Add(10*time.Second))
	c.HandleTick("AAPL", 105, 5, base.Add(30*time.Second))
	c.HandleTick("AAPL", 95, 2, base.Add(40*time.Second))
	c.HandleTick("AAPL", 98, 1, base.Add(50*time.Second))

	// Nothing flushed yet: the bucket is still open.
	if len(writer.Saved["AAPL"]) != 0 {
		t.Fatalf("Expected no flush inside an open bucket, got %d bars", len(writer.Saved["AAPL"]))
	}

	// First tick of the next minute closes the bar.
	c.HandleTick("AAPL", 99, 3, base.Add(65*time.Second))

	bars := writer.Saved["AAPL"]
	if len(bars) != 1 {
		t.Fatalf("Expected 1 flushed bar, got %d", len(bars))
	}
	b := bars[0]
	if !b.Time.Equal(base) {
		t.Errorf("Expected bucket time %v, got %v", base, b.Time)
	}
	if b.Open != 100 || b.High != 105 || b.Low != 95 || b.Close != 98 {
		t.Errorf("Wrong OHLC: %+v", b)
	}
	if b.Volume != 18 {
		t.Errorf("Expected volume 18, got %f", b.Volume)
	}
}

func TestCollector_FlushDrainsOpenBars(t *testing.T) {
	writer := &MockWriter{}
	c := New(writer, time.Minute, nil)

	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	c.HandleTick("AAPL", 100, 1, base)
	c.HandleTick("SPY", 450, 2, base)

	c.Flush(context.Background())

	if len(writer.Saved["AAPL"]) != 1 || len(writer.Saved["SPY"]) != 1 {
		t.Fatalf("Expected one bar per symbol, got %v", writer.Saved)
	}

	// Flushed state is gone: a second flush writes nothing.
	c.Flush(context.Background())
	if len(writer.Saved["AAPL"]) != 1 {
		t.Error("Expected flush to clear open bars")
	}
}

func TestCollector_SymbolsAreIndependent(t *testing.T) {
	writer := &MockWriter{}
	c := New(writer, time.Minute, nil)

	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	c.HandleTick("AAPL", 100, 1, base.Add(10*time.Second))
	c.HandleTick("SPY", 450, 1, base.Add(20*time.Second))
	c.HandleTick("AAPL", 101, 1, base.Add(70*time.Second)) // rolls AAPL only

	if len(writer.Saved["AAPL"]) != 1 {
		t.Errorf("Expected AAPL bar flushed, got %d", len(writer.Saved["AAPL"]))
	}
	if len(writer.Saved["SPY"]) != 0 {
		t.Errorf("Expected SPY bucket still open, got %d bars", len(writer.Saved["SPY"]))
	}
}

func TestCollector_WriteFailureDropsBar(t *testing.T) {
	writer := &MockWriter{SaveErr: errors.New("disk full")}
	c := New(writer, time.Minute, nil)

	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	c.HandleTick("AAPL", 100, 1, base)
	c.HandleTick("AAPL", 101, 1, base.Add(time.Minute)) // triggers the failing flush

	// The stream keeps going: the new bucket is still being built.
	writer.SaveErr = nil
	c.Flush(context.Background())

	bars := writer.Saved["AAPL"]
	if len(bars) != 1 || bars[0].Close != 101 {
		t.Fatalf("Expected only the new bucket to survive, got %v", bars)
	}
}
