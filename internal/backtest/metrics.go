package backtest

import (
	"fmt"
	"math"

	"github.com/melon/backtest_engine/internal/domain"
)

// tradingDaysPerYear annualizes per-bar returns assuming daily bars.
const tradingDaysPerYear = 252

// Report is the stable reporting contract consumed by the CLI and the web
// layer. Percentages are expressed as percent, not fractions; MaxDrawdownPct
// is always <= 0.
type Report struct {
	Symbol         string  `json:"symbol"`
	Strategy       string  `json:"strategy"`
	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TotalTrades    int     `json:"total_trades"`
	WinRatePct     float64 `json:"win_rate_pct"`
}

func (r Report) String() string {
	return fmt.Sprintf(
		"%s [%s] capital %.2f -> %.2f (%.2f%%), maxDD %.2f%%, sharpe %.2f, trades %d, win rate %.2f%%",
		r.Symbol, r.Strategy, r.InitialCapital, r.FinalCapital, r.TotalReturnPct,
		r.MaxDrawdownPct, r.SharpeRatio, r.TotalTrades, r.WinRatePct)
}

// Metrics computes summary statistics over a finished equity curve and
// trade log. It is pure: safe to call repeatedly on the same inputs.
type Metrics struct {
	equity  []float64
	initial float64
	trades  []domain.TradeLogEntry
}

func NewMetrics(equity []float64, initialCapital float64, trades []domain.TradeLogEntry) *Metrics {
	return &Metrics{equity: equity, initial: initialCapital, trades: trades}
}

// MaxDrawdown returns the largest peak-to-trough decline of the equity
// curve as a negative percentage. A monotonically non-decreasing curve
// yields exactly 0.
func (m *Metrics) MaxDrawdown() float64 {
	if len(m.equity) == 0 {
		return 0
	}

	peak := m.equity[0]
	worst := 0.0
	for _, v := range m.equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst * 100
}

// SharpeRatio annualizes the mean and standard deviation of the period
// returns of the equity curve. Degenerate inputs (fewer than 2 return
// observations, zero variance) return 0 rather than an error or NaN.
func (m *Metrics) SharpeRatio() float64 {
	var returns []float64
	for i := 1; i < len(m.equity); i++ {
		if m.equity[i-1] == 0 {
			continue
		}
		returns = append(returns, m.equity[i]/m.equity[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	// Sample variance, matching the reference statistics.
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	annualReturn := mean * tradingDaysPerYear
	annualStd := std * math.Sqrt(tradingDaysPerYear)
	return annualReturn / annualStd
}

// WinRate returns the percentage of closed trades with positive PnL, 0 for
// an empty trade log.
func (m *Metrics) WinRate() float64 {
	if len(m.trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range m.trades {
		if t.PnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(m.trades)) * 100
}

// Report compiles all statistics.
func (m *Metrics) Report() Report {
	final := m.initial
	if len(m.equity) > 0 {
		final = m.equity[len(m.equity)-1]
	}

	totalReturn := 0.0
	if m.initial != 0 {
		totalReturn = (final - m.initial) / m.initial * 100
	}

	return Report{
		InitialCapital: m.initial,
		FinalCapital:   final,
		TotalReturnPct: totalReturn,
		MaxDrawdownPct: m.MaxDrawdown(),
		SharpeRatio:    m.SharpeRatio(),
		TotalTrades:    len(m.trades),
		WinRatePct:     m.WinRate(),
	}
}
