// Package collector aggregates live trade ticks into fixed-interval OHLCV
// bars and appends them to the price store.
package collector

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/melon/backtest_engine/internal/domain"
)

type building struct {
	bar    domain.Bar
	bucket time.Time
}

type Collector struct {
	writer   domain.BarWriter
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	open    map[string]*building
	timeNow func() time.Time // For testing
}

func New(writer domain.BarWriter, interval time.Duration, logger *zap.Logger) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		writer:   writer,
		interval: interval,
		logger:   logger,
		open:     make(map[string]*building),
		timeNow:  time.Now,
	}
}

// HandleTick folds one trade tick into the bar for its time bucket. When a
// tick opens a new bucket, the previous bar is flushed to the store; a
// write failure is logged and the bar dropped, never propagated to the
// stream.
func (c *Collector) HandleTick(symbol string, price, size float64, ts time.Time) {
	bucket := ts.Truncate(c.interval)

	c.mu.Lock()
	cur, ok := c.open[symbol]
	if !ok || !cur.bucket.Equal(bucket) {
		var done *building
		if ok {
			done = cur
		}
		c.open[symbol] = &building{
			bucket: bucket,
			bar: domain.Bar{
				Time:   bucket,
				Open:   price,
				High:   price,
				Low:    price,
				Close:  price,
				Volume: size,
			},
		}
		c.mu.Unlock()

		if done != nil {
			c.flush(context.Background(), symbol, done.bar)
		}
		return
	}

	if price > cur.bar.High {
		cur.bar.High = price
	}
	if price < cur.bar.Low {
		cur.bar.Low = price
	}
	cur.bar.Close = price
	cur.bar.Volume += size
	c.mu.Unlock()
}

// Flush writes out every partially built bar, typically on shutdown.
func (c *Collector) Flush(ctx context.Context) {
	c.mu.Lock()
	pending := make(map[string]domain.Bar, len(c.open))
	for sym, b := range c.open {
		pending[sym] = b.bar
	}
	c.open = make(map[string]*building)
	c.mu.Unlock()

	for sym, bar := range pending {
		c.flush(ctx, sym, bar)
	}
}

func (c *Collector) flush(parent context.Context, symbol string, bar domain.Bar) {
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	if err := c.writer.EnsureAsset(ctx, symbol); err != nil {
		c.logger.Error("failed to ensure asset", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	if err := c.writer.SaveBars(ctx, symbol, []domain.Bar{bar}); err != nil {
		c.logger.Error("failed to save bar", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	c.logger.Debug("bar saved",
		zap.String("symbol", symbol),
		zap.Time("bucket", bar.Time),
		zap.Float64("close", bar.Close))
}
