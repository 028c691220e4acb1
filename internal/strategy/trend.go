package strategy

import (
	"math"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// execSupertrend tracks trend direction with ATR bands around the bar
// midpoint. Direction flips when the close breaks the previous bar's band;
// signals fire on the flip. The first bar has no band value.
func execSupertrend(bars []model.Bar, p Params) model.StrategyResult {
	period := p.Int("period", 10)
	mult := p.Num("multiplier", 3.0)

	atr := indicator.ATR(bars, period)
	n := len(bars)
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i, b := range bars {
		hl2 := (b.High + b.Low) / 2
		upper[i] = hl2 + mult*atr[i]
		lower[i] = hl2 - mult*atr[i]
	}

	st := make([]float64, n)
	dir := make([]float64, n)
	if n > 0 {
		st[0] = math.NaN()
		dir[0] = 1
	}
	for i := 1; i < n; i++ {
		switch {
		case bars[i].Close > upper[i-1]:
			dir[i] = 1
		case bars[i].Close < lower[i-1]:
			dir[i] = -1
		default:
			dir[i] = dir[i-1]
		}
		if dir[i] == 1 {
			st[i] = lower[i]
		} else {
			st[i] = upper[i]
		}
	}

	var signals []model.Signal
	for i := 1; i < n; i++ {
		if dir[i] == 1 && dir[i-1] == -1 {
			signals = append(signals, buySignal(bars[i]))
		} else if dir[i] == -1 && dir[i-1] == 1 {
			signals = append(signals, sellSignal(bars[i]))
		}
	}

	return model.StrategyResult{
		Signals: signals,
		Metrics: ComputeMetrics(bars, signals),
		IndicatorData: model.IndicatorData{
			"supertrend": indicator.RoundSeries(st, 2),
			"direction":  dir,
		},
	}
}

// execDonchianBreakout trades closes beyond the previous bar's channel
// extremes. Long on a break above the rolling high, flat-or-short on a break
// below the rolling low.
func execDonchianBreakout(bars []model.Bar, p Params) model.StrategyResult {
	period := p.Int("period", 20)

	upper := indicator.RollingMax(model.Highs(bars), period)
	lower := indicator.RollingMin(model.Lows(bars), period)
	middle := make([]float64, len(bars))
	for i := range bars {
		middle[i] = (upper[i] + lower[i]) / 2
	}

	var signals []model.Signal
	position := 0
	for i := period; i < len(bars); i++ {
		if bars[i].Close > upper[i-1] && position <= 0 {
			signals = append(signals, buySignal(bars[i]))
			position = 1
		} else if bars[i].Close < lower[i-1] && position >= 0 {
			signals = append(signals, sellSignal(bars[i]))
			position = -1
		}
	}

	return model.StrategyResult{
		Signals: signals,
		Metrics: ComputeMetrics(bars, signals),
		IndicatorData: model.IndicatorData{
			"upper":  indicator.RoundSeries(upper, 2),
			"lower":  indicator.RoundSeries(lower, 2),
			"middle": indicator.RoundSeries(middle, 2),
		},
	}
}
