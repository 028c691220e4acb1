// Package strategy provides the strategy registry and executors.
//
// A strategy is a pure function over an ordered bar series: it computes its
// indicator series, extracts BUY/SELL signals through a position state
// machine, and scores the signal list. Every strategy is registered in an
// explicit, immutable table built once by NewRegistry and injected into
// whatever serves requests; there is no global mutable state.
package strategy

import (
	"errors"
	"fmt"
	"iter"

	"quant-terminal/internal/model"
)

// ErrUnknownStrategy is returned for a strategy key that is not registered.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Params holds strategy parameters. Values arrive as JSON numbers; executors
// read them through the typed getters.
type Params map[string]float64

// Num returns the parameter value or def when absent.
func (p Params) Num(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Int returns the parameter value truncated to int, or def when absent.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

// ExecFunc runs a strategy to completion over a bar series.
type ExecFunc func(bars []model.Bar, p Params) model.StrategyResult

// StepFunc re-expresses a strategy as an ordered, finite sequence of step
// events. The final event carries the complete result; stopping iteration
// early is the cooperative cancellation path.
type StepFunc func(bars []model.Bar, p Params) iter.Seq[model.StepEvent]

// Info is the introspection metadata for one registered strategy.
type Info struct {
	Key           string `json:"key"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	DefaultParams Params `json:"default_params"`
}

type entry struct {
	info  Info
	exec  ExecFunc
	steps StepFunc // nil: serve the generic wrapper
}

// Registry is the immutable strategy table. Safe for concurrent use; nothing
// is mutated after construction.
type Registry struct {
	entries map[string]entry
	order   []string
}

// NewRegistry builds the full strategy catalogue.
//
// Strategies with a custom step sequence derive their batch executor from it
// (the sequence is drained and the final event's payload returned), so the
// two execution paths cannot diverge.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]entry)}

	// Trend Following
	r.add(Info{
		Key: "ma_crossover", Name: "Moving Average Crossover", Category: "Trend Following",
		Description:   "Generates signals when fast SMA crosses above/below slow SMA.",
		DefaultParams: Params{"fast_period": 10, "slow_period": 30},
	}, nil, stepsMACrossover)
	r.add(Info{
		Key: "ema_strategy", Name: "EMA Strategy", Category: "Trend Following",
		Description:   "Exponential MA crossover with faster response to price changes.",
		DefaultParams: Params{"fast_period": 9, "slow_period": 21},
	}, nil, stepsEMAStrategy)
	r.add(Info{
		Key: "macd_signal", Name: "MACD Signal", Category: "Trend Following",
		Description:   "MACD line vs signal line crossover strategy.",
		DefaultParams: Params{"fast": 12, "slow": 26, "signal": 9},
	}, nil, stepsMACDSignal)
	r.add(Info{
		Key: "supertrend", Name: "Supertrend", Category: "Trend Following",
		Description:   "ATR-based trend following indicator.",
		DefaultParams: Params{"period": 10, "multiplier": 3.0},
	}, execSupertrend, nil)
	r.add(Info{
		Key: "donchian_breakout", Name: "Donchian Channel Breakout", Category: "Trend Following",
		Description:   "Breakout signals when price breaches Donchian channel highs/lows.",
		DefaultParams: Params{"period": 20},
	}, execDonchianBreakout, nil)

	// Momentum
	r.add(Info{
		Key: "rsi_strategy", Name: "RSI Strategy", Category: "Momentum",
		Description:   "Buys on RSI oversold, sells on RSI overbought.",
		DefaultParams: Params{"period": 14, "oversold": 30, "overbought": 70},
	}, nil, stepsRSIStrategy)
	r.add(Info{
		Key: "stochastic", Name: "Stochastic Oscillator", Category: "Momentum",
		Description:   "K/D crossover on stochastic oscillator.",
		DefaultParams: Params{"k_period": 14, "d_period": 3, "oversold": 20, "overbought": 80},
	}, nil, stepsStochastic)
	r.add(Info{
		Key: "roc", Name: "Rate of Change", Category: "Momentum",
		Description:   "Momentum signal based on N-period rate of change.",
		DefaultParams: Params{"period": 12, "threshold": 0},
	}, execROC, nil)
	r.add(Info{
		Key: "cci", Name: "Commodity Channel Index", Category: "Momentum",
		Description:   "CCI-based overbought/oversold signals.",
		DefaultParams: Params{"period": 20, "overbought": 100, "oversold": -100},
	}, execCCI, nil)

	// Mean Reversion
	r.add(Info{
		Key: "bollinger_reversion", Name: "Bollinger Bands Reversion", Category: "Mean Reversion",
		Description:   "Mean reversion using Bollinger Band touches.",
		DefaultParams: Params{"period": 20, "std_dev": 2.0},
	}, nil, stepsBollingerReversion)
	r.add(Info{
		Key: "zscore_reversion", Name: "Z-Score Reversion", Category: "Mean Reversion",
		Description:   "Z-score of price relative to rolling mean for mean reversion.",
		DefaultParams: Params{"period": 20, "entry_z": -2.0, "exit_z": 0.0},
	}, execZScoreReversion, nil)
	r.add(Info{
		Key: "vwap_reversion", Name: "VWAP Reversion", Category: "Mean Reversion",
		Description:   "Reversion towards Volume-Weighted Average Price.",
		DefaultParams: Params{"deviation_pct": 2.0},
	}, execVWAPReversion, nil)

	// Volatility
	r.add(Info{
		Key: "atr_breakout", Name: "ATR Breakout", Category: "Volatility",
		Description:   "Breakout signals based on ATR expansion from recent closes.",
		DefaultParams: Params{"period": 14, "multiplier": 1.5},
	}, nil, stepsATRBreakout)
	r.add(Info{
		Key: "keltner_channel", Name: "Keltner Channel", Category: "Volatility",
		Description:   "EMA-based channel with ATR bands; signals on breakout and reversion.",
		DefaultParams: Params{"ema_period": 20, "atr_period": 14, "multiplier": 2.0},
	}, execKeltnerChannel, nil)

	// Market Microstructure
	r.add(Info{
		Key: "volume_spike", Name: "Volume Spike Detection", Category: "Market Microstructure",
		Description:   "Detects abnormal volume spikes that often precede price moves.",
		DefaultParams: Params{"lookback": 20, "threshold": 2.0},
	}, execVolumeSpike, nil)
	r.add(Info{
		Key: "order_imbalance", Name: "Order Imbalance Detection", Category: "Market Microstructure",
		Description:   "Detects buy/sell pressure imbalance from OHLC price action.",
		DefaultParams: Params{"lookback": 10, "threshold": 0.6},
	}, execOrderImbalance, nil)

	// Statistical
	r.add(Info{
		Key: "kalman_filter", Name: "Kalman Filter Trend", Category: "Statistical",
		Description:   "Kalman filter for adaptive trend estimation and signal generation.",
		DefaultParams: Params{"process_noise": 0.01, "measurement_noise": 1.0},
	}, nil, stepsKalmanFilter)
	r.add(Info{
		Key: "hmm_regime", Name: "Hidden Markov Regime Detection", Category: "Statistical",
		Description:   "Regime detection using return distribution clustering (simplified HMM).",
		DefaultParams: Params{"lookback": 30, "n_regimes": 3},
	}, execHMMRegime, nil)

	// Machine Learning (deterministic composite-indicator proxies)
	r.add(Info{
		Key: "lstm_proxy", Name: "LSTM Forecast (Proxy)", Category: "Machine Learning",
		Description:   "Multi-indicator ensemble simulating LSTM-style sequential pattern recognition.",
		DefaultParams: Params{"lookback": 30},
	}, nil, stepsLSTMProxy)
	r.add(Info{
		Key: "gbm_proxy", Name: "Gradient Boosting (Proxy)", Category: "Machine Learning",
		Description:   "Feature-engineered ensemble simulating gradient boosting classification.",
		DefaultParams: Params{"lookback": 20},
	}, nil, stepsGBMProxy)

	return r
}

// add registers a strategy. When steps is set and exec is nil, the batch
// executor is derived by draining the step sequence.
func (r *Registry) add(info Info, exec ExecFunc, steps StepFunc) {
	if exec == nil {
		exec = runFromSteps(steps)
	}
	r.entries[info.Key] = entry{info: info, exec: exec, steps: steps}
	r.order = append(r.order, info.Key)
}

// List returns strategy metadata in registration order. No executor is exposed.
func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key].info)
	}
	return out
}

// Merged returns the strategy's default parameters overlaid with the provided
// overrides. Unknown keys are carried through and simply never read.
func (r *Registry) Merged(key string, overrides map[string]float64) (Params, error) {
	e, ok := r.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, key)
	}
	merged := make(Params, len(e.info.DefaultParams)+len(overrides))
	for k, v := range e.info.DefaultParams {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged, nil
}

// Run executes a strategy to completion over the bar series. Signals and
// indicator data are never nil so they encode as [] and {} on the wire.
func (r *Registry) Run(key string, bars []model.Bar, overrides map[string]float64) (model.StrategyResult, error) {
	merged, err := r.Merged(key, overrides)
	if err != nil {
		return model.StrategyResult{}, err
	}
	res := r.entries[key].exec(bars, merged)
	if res.Signals == nil {
		res.Signals = []model.Signal{}
	}
	if res.IndicatorData == nil {
		res.IndicatorData = model.IndicatorData{}
	}
	return res, nil
}

// Steps returns the step-event sequence for a strategy. Strategies without a
// custom sequence fall back to the generic wrapper around the batch executor.
func (r *Registry) Steps(key string, bars []model.Bar, overrides map[string]float64) (iter.Seq[model.StepEvent], error) {
	merged, err := r.Merged(key, overrides)
	if err != nil {
		return nil, err
	}
	e := r.entries[key]
	if e.steps != nil {
		return e.steps(bars, merged), nil
	}
	return stepsGeneric(e.exec)(bars, merged), nil
}

// HasCustomSteps reports whether the strategy ships its own step sequence.
func (r *Registry) HasCustomSteps(key string) bool {
	e, ok := r.entries[key]
	return ok && e.steps != nil
}

// runFromSteps drains a step sequence and returns the final event's payload.
func runFromSteps(steps StepFunc) ExecFunc {
	return func(bars []model.Bar, p Params) model.StrategyResult {
		var last model.StepEvent
		for ev := range steps(bars, p) {
			last = ev
		}
		return last.Result()
	}
}
