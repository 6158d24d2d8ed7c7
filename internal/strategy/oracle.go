package strategy

import (
	"go.uber.org/zap"

	"github.com/melon/backtest_engine/internal/domain"
)

var _ Provider = (*PredictionOracle)(nil)

// PredictionOracle derives signals from an external prediction provider: it
// feeds the provider a trailing window of bars and compares the forecast
// price to the current close. Forecast moves inside the threshold band
// (typically 0.1-0.2%) are treated as noise and yield Neutral.
//
// A provider failure is recovered locally by consulting the fallback
// provider; the engine has no retry logic for this call.
type PredictionOracle struct {
	series    *domain.PriceSeries
	provider  domain.PredictionProvider
	fallback  domain.PredictionProvider
	window    int
	threshold float64
	logger    *zap.Logger
}

func NewPredictionOracle(
	series *domain.PriceSeries,
	provider domain.PredictionProvider,
	fallback domain.PredictionProvider,
	window int,
	threshold float64,
	logger *zap.Logger,
) *PredictionOracle {
	if window <= 0 {
		window = 30
	}
	if threshold <= 0 {
		threshold = 0.002
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionOracle{
		series:    series,
		provider:  provider,
		fallback:  fallback,
		window:    window,
		threshold: threshold,
		logger:    logger,
	}
}

func (s *PredictionOracle) Name() string {
	return "oracle"
}

func (s *PredictionOracle) WarmupBars() int {
	return s.window
}

func (s *PredictionOracle) Evaluate(i int) Signal {
	window := s.series.Bars[i-s.window : i]

	pred, confidence, err := s.provider.Predict(window)
	if err != nil {
		s.logger.Warn("prediction failed, using fallback",
			zap.String("symbol", s.series.Symbol), zap.Error(err))
		if s.fallback == nil {
			return Signal{Direction: DirectionNeutral, Confidence: 0}
		}
		pred, confidence, err = s.fallback.Predict(window)
		if err != nil {
			s.logger.Error("fallback prediction failed",
				zap.String("symbol", s.series.Symbol), zap.Error(err))
			return Signal{Direction: DirectionNeutral, Confidence: 0}
		}
	}

	current := s.series.Bars[i].Close
	switch {
	case pred > current*(1+s.threshold):
		return Signal{Direction: DirectionBuy, Confidence: confidence}
	case pred < current*(1-s.threshold):
		return Signal{Direction: DirectionSell, Confidence: confidence}
	default:
		return Signal{Direction: DirectionNeutral, Confidence: confidence}
	}
}
