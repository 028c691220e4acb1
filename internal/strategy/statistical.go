package strategy

import (
	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// kalmanEstimate runs a scalar Kalman filter over the close series and
// returns the filtered price track plus its per-step velocity.
func kalmanEstimate(closes []float64, processNoise, measurementNoise float64) (filtered, velocity []float64) {
	n := len(closes)
	filtered = make([]float64, n)
	velocity = make([]float64, n)
	if n == 0 {
		return filtered, velocity
	}

	x := closes[0]
	p := 1.0
	for i := 0; i < n; i++ {
		pPred := p + processNoise
		k := pPred / (pPred + measurementNoise)
		prevX := x
		x += k * (closes[i] - x)
		p = (1 - k) * pPred
		filtered[i] = x
		velocity[i] = x - prevX
	}
	return filtered, velocity
}

// execHMMRegime is a simplified regime detector: rolling return volatility is
// bucketed by its own 33rd/66th percentiles into three regimes. Signals fire
// only on regime transitions, BUY into a low-vol regime with positive drift,
// SELL into a high-vol regime.
func execHMMRegime(bars []model.Bar, p Params) model.StrategyResult {
	lookback := p.Int("lookback", 30)

	returns := indicator.PctChange(model.Closes(bars), 1)
	vol := indicator.RollingStd(returns, lookback)
	meanRet := indicator.SMA(returns, lookback)

	threshLow := indicator.Quantile(vol, 0.33)
	threshHigh := indicator.Quantile(vol, 0.66)

	regime := make([]float64, len(bars))
	for i := range vol {
		switch {
		case vol[i] < threshLow:
			regime[i] = 0
		case vol[i] > threshHigh:
			regime[i] = 2
		default:
			regime[i] = 1
		}
	}

	var signals []model.Signal
	for i := 1; i < len(bars); i++ {
		if regime[i] == regime[i-1] {
			continue
		}
		if regime[i] == 0 && meanRet[i] > 0 {
			signals = append(signals, model.Signal{
				Date: bars[i].Date, Type: model.SignalBuy, Price: bars[i].Close,
				Label: "Low-vol bullish regime",
			})
		} else if regime[i] == 2 {
			signals = append(signals, model.Signal{
				Date: bars[i].Date, Type: model.SignalSell, Price: bars[i].Close,
				Label: "High-vol regime shift",
			})
		}
	}

	return model.StrategyResult{
		Signals: signals,
		Metrics: ComputeMetrics(bars, signals),
		IndicatorData: model.IndicatorData{
			"regime":      regime,
			"rolling_vol": indicator.RoundSeries(vol, 6),
		},
	}
}
