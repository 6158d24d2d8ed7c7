// Package config loads the YAML configuration shared by all binaries.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/melon/backtest_engine/internal/backtest"
)

type Config struct {
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"` // empty logs to stderr
	} `yaml:"logging"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	MarketData struct {
		RESTEndpoint string `yaml:"rest_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
		APIKeyEnv    string `yaml:"api_key_env"`
	} `yaml:"marketdata"`

	Backtest struct {
		InitialCapital float64  `yaml:"initial_capital"`
		Symbols        []string `yaml:"symbols"`
		Strategy       string   `yaml:"strategy"`
		LongOnly       bool     `yaml:"long_only"`
		Risk           struct {
			RiskPerTrade  float64 `yaml:"risk_per_trade"`
			StopLossPct   float64 `yaml:"stop_loss_pct"`
			TakeProfitPct float64 `yaml:"take_profit_pct"`
			MinConfidence float64 `yaml:"min_confidence"`
		} `yaml:"risk"`
		MA struct {
			Fast int `yaml:"fast"`
			Slow int `yaml:"slow"`
		} `yaml:"ma"`
		RSI struct {
			Period int `yaml:"period"`
		} `yaml:"rsi"`
		Oracle struct {
			Window    int     `yaml:"window"`
			Threshold float64 `yaml:"threshold"`
		} `yaml:"oracle"`
	} `yaml:"backtest"`

	Collector struct {
		Symbols     []string `yaml:"symbols"`
		IntervalSec int      `yaml:"interval_sec"`
	} `yaml:"collector"`
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// EngineConfig translates the backtest section into an engine Config. The
// crossover strategy gets reversal exits and stays long-only, matching its
// exit semantics; the others trade both directions.
func (c *Config) EngineConfig() backtest.Config {
	policy := backtest.RiskPolicy{
		RiskPerTrade:  c.Backtest.Risk.RiskPerTrade,
		StopLossPct:   c.Backtest.Risk.StopLossPct,
		TakeProfitPct: c.Backtest.Risk.TakeProfitPct,
		MinConfidence: c.Backtest.Risk.MinConfidence,
	}
	if policy.RiskPerTrade == 0 && policy.StopLossPct == 0 && policy.TakeProfitPct == 0 {
		policy = backtest.DefaultRiskPolicy()
	}

	crossover := c.Backtest.Strategy == "ma-cross" || c.Backtest.Strategy == ""
	return backtest.Config{
		InitialCapital: c.Backtest.InitialCapital,
		Policy:         policy,
		ExitOnReversal: crossover,
		LongOnly:       c.Backtest.LongOnly || crossover,
	}
}

// StrategyParams translates the backtest section into provider parameters.
func (c *Config) StrategyParams() backtest.StrategyParams {
	return backtest.StrategyParams{
		Name:       c.Backtest.Strategy,
		FastPeriod: c.Backtest.MA.Fast,
		SlowPeriod: c.Backtest.MA.Slow,
		RSIPeriod:  c.Backtest.RSI.Period,
		Window:     c.Backtest.Oracle.Window,
		Threshold:  c.Backtest.Oracle.Threshold,
	}
}
