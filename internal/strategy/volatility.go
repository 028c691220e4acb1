package strategy

import (
	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// execKeltnerChannel trades closes outside an EMA channel with ATR bands.
// Scanning starts once the wider of the two lookbacks has elapsed.
func execKeltnerChannel(bars []model.Bar, p Params) model.StrategyResult {
	emaPeriod := p.Int("ema_period", 20)
	atrPeriod := p.Int("atr_period", 14)
	mult := p.Num("multiplier", 2.0)

	ema := indicator.EMA(model.Closes(bars), emaPeriod)
	atr := indicator.ATR(bars, atrPeriod)
	upper := make([]float64, len(bars))
	lower := make([]float64, len(bars))
	for i := range bars {
		upper[i] = ema[i] + mult*atr[i]
		lower[i] = ema[i] - mult*atr[i]
	}

	start := emaPeriod
	if atrPeriod > start {
		start = atrPeriod
	}

	var signals []model.Signal
	position := 0
	for i := start; i < len(bars); i++ {
		if bars[i].Close > upper[i] && position <= 0 {
			signals = append(signals, buySignal(bars[i]))
			position = 1
		} else if bars[i].Close < lower[i] && position >= 0 {
			signals = append(signals, sellSignal(bars[i]))
			position = -1
		}
	}

	return model.StrategyResult{
		Signals: signals,
		Metrics: ComputeMetrics(bars, signals),
		IndicatorData: model.IndicatorData{
			"keltner_ema":   indicator.RoundSeries(ema, 2),
			"keltner_upper": indicator.RoundSeries(upper, 2),
			"keltner_lower": indicator.RoundSeries(lower, 2),
		},
	}
}
