package strategy

import (
	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// execROC trades threshold crossings of the N-period rate of change,
// expressed in percent.
func execROC(bars []model.Bar, p Params) model.StrategyResult {
	period := p.Int("period", 12)
	threshold := p.Num("threshold", 0)

	roc := indicator.PctChange(model.Closes(bars), period)
	for i := range roc {
		roc[i] *= 100
	}

	signals := levelCrossSignals(bars, roc, threshold, threshold)

	return model.StrategyResult{
		Signals: signals,
		Metrics: ComputeMetrics(bars, signals),
		IndicatorData: model.IndicatorData{
			"roc": indicator.RoundSeries(roc, 4),
		},
	}
}

// execCCI buys CCI oversold and sells overbought through a long/short
// position state machine. A zero mean absolute deviation pins the index at 0.
func execCCI(bars []model.Bar, p Params) model.StrategyResult {
	period := p.Int("period", 20)
	overbought := p.Num("overbought", 100)
	oversold := p.Num("oversold", -100)

	tp := make([]float64, len(bars))
	for i, b := range bars {
		tp[i] = (b.High + b.Low + b.Close) / 3
	}
	smaTP := indicator.SMA(tp, period)
	mad := indicator.RollingMeanAbsDev(tp, period)

	cci := make([]float64, len(bars))
	for i := range tp {
		if mad[i] != 0 {
			cci[i] = (tp[i] - smaTP[i]) / (0.015 * mad[i])
		}
	}

	var signals []model.Signal
	position := 0
	for i := period; i < len(bars); i++ {
		if cci[i] < oversold && position <= 0 {
			signals = append(signals, buySignal(bars[i]))
			position = 1
		} else if cci[i] > overbought && position >= 0 {
			signals = append(signals, sellSignal(bars[i]))
			position = -1
		}
	}

	return model.StrategyResult{
		Signals: signals,
		Metrics: ComputeMetrics(bars, signals),
		IndicatorData: model.IndicatorData{
			"cci": indicator.RoundSeries(cci, 2),
		},
	}
}
