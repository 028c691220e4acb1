package strategy

import (
	"fmt"
	"iter"
	"math"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

func stepsATRBreakout(bars []model.Bar, p Params) iter.Seq[model.StepEvent] {
	return func(yield func(model.StepEvent) bool) {
		period := p.Int("period", 14)
		mult := p.Num("multiplier", 1.5)

		if !yield(progress(1, 5, "Loading Market Data", fmt.Sprintf("%d bars loaded", len(bars)), 10)) {
			return
		}

		atr := indicator.ATR(bars, period)
		sma := indicator.SMA(model.Closes(bars), period)
		upper := make([]float64, len(bars))
		lower := make([]float64, len(bars))
		for i := range bars {
			upper[i] = sma[i] + mult*atr[i]
			lower[i] = sma[i] - mult*atr[i]
		}

		last := len(bars) - 1
		ev := progress(2, 5, fmt.Sprintf("Computing ATR(%d) Channels", period),
			fmt.Sprintf("ATR: %.2f | Channel width: %.2f", atr[last], upper[last]-lower[last]), 40)
		ev.Indicator = model.IndicatorData{
			"atr_upper": indicator.RoundSeries(upper, 2),
			"atr_lower": indicator.RoundSeries(lower, 2),
		}
		if !yield(ev) {
			return
		}

		var signals []model.Signal
		position := 0
		for i := period; i < len(bars); i++ {
			if bars[i].Close > upper[i] && position <= 0 {
				signals = append(signals, buySignal(bars[i]))
				position = 1
			} else if bars[i].Close < lower[i] && position >= 0 {
				signals = append(signals, sellSignal(bars[i]))
				position = -1
			}
		}

		metrics := ComputeMetrics(bars, signals)
		ev = progress(3, 5, "Detecting Breakouts", fmt.Sprintf("%d breakout signals", len(signals)), 65)
		ev.Signals = signals
		if !yield(ev) {
			return
		}
		if !yield(progress(4, 5, "Computing Metrics",
			fmt.Sprintf("Win Rate %.0f%%", metrics.WinRate*100), 85)) {
			return
		}

		medianATR := indicator.Median(atr)
		volRegime := "NORMAL"
		if atr[last] > medianATR*1.5 {
			volRegime = "HIGH"
		} else if atr[last] < medianATR*0.7 {
			volRegime = "LOW"
		}
		breakoutProb := 0.0
		if medianATR != 0 {
			breakoutProb = indicator.Round(math.Min(1.0, atr[last]/medianATR), 2)
		}
		yield(finalStep(5, 5, "Analysis Complete", fmt.Sprintf("Volatility regime: %s", volRegime),
			signals, metrics,
			model.IndicatorData{
				"atr":       indicator.RoundSeries(atr, 2),
				"atr_upper": indicator.RoundSeries(upper, 2),
				"atr_lower": indicator.RoundSeries(lower, 2),
			},
			"volatility", map[string]any{
				"regime":        volRegime,
				"current_atr":   indicator.Round(atr[last], 2),
				"median_atr":    indicator.Round(medianATR, 2),
				"breakout_prob": breakoutProb,
			}))
	}
}
