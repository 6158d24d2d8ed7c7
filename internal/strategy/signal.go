// Package strategy defines the signal providers a backtest engine can be
// driven by. A provider is bound to one price series at construction,
// precomputes whatever indicator columns it needs, and is then evaluated
// bar-by-bar. Providers never mutate engine state.
package strategy

type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// Signal is one per-bar trade signal. Confidence is in [0,1] and is used by
// the engine as an entry-eligibility filter; the provider itself never
// decides whether to act.
type Signal struct {
	Direction  Direction
	Confidence float64
}

// Provider produces a signal for bar i of the series it was built on.
type Provider interface {
	Name() string

	// WarmupBars is the number of leading bars with undefined indicator
	// values. The engine starts simulating at this index.
	WarmupBars() int

	Evaluate(i int) Signal
}
