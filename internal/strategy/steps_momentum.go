package strategy

import (
	"fmt"
	"iter"
	"slices"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

func stepsRSIStrategy(bars []model.Bar, p Params) iter.Seq[model.StepEvent] {
	return func(yield func(model.StepEvent) bool) {
		period := p.Int("period", 14)
		overbought := p.Num("overbought", 70)
		oversold := p.Num("oversold", 30)

		if !yield(progress(1, 5, "Loading Market Data", fmt.Sprintf("%d bars loaded", len(bars)), 10)) {
			return
		}

		rsi := indicator.RSI(model.Closes(bars), period)
		currentRSI := rsi[len(rsi)-1]
		if !yield(progress(2, 5, fmt.Sprintf("Computing RSI(%d)", period),
			fmt.Sprintf("Current RSI: %.1f | Range: [%.1f, %.1f]",
				currentRSI, slices.Min(rsi), slices.Max(rsi)), 40)) {
			return
		}

		var signals []model.Signal
		position := 0
		for i := period; i < len(bars); i++ {
			if rsi[i] < oversold && position <= 0 {
				signals = append(signals, buySignal(bars[i]))
				position = 1
			} else if rsi[i] > overbought && position >= 0 {
				signals = append(signals, sellSignal(bars[i]))
				position = -1
			}
		}

		metrics := ComputeMetrics(bars, signals)
		ev := progress(3, 5, "Scanning Oversold/Overbought Zones",
			fmt.Sprintf("%d signals at RSI extremes", len(signals)), 70)
		ev.Signals = signals
		if !yield(ev) {
			return
		}

		if !yield(progress(4, 5, "Computing Risk Metrics",
			fmt.Sprintf("Sharpe %.3f | Win Rate %.0f%%", metrics.SharpeRatio, metrics.WinRate*100), 90)) {
			return
		}

		zone := "NEUTRAL"
		if currentRSI > overbought {
			zone = "OVERBOUGHT"
		} else if currentRSI < oversold {
			zone = "OVERSOLD"
		}
		yield(finalStep(5, 5, "Analysis Complete",
			fmt.Sprintf("Current zone: %s (RSI=%.1f)", zone, currentRSI),
			signals, metrics,
			model.IndicatorData{"rsi": indicator.RoundSeries(rsi, 2)},
			"momentum", map[string]any{
				"zone":       zone,
				"rsi_value":  indicator.Round(currentRSI, 1),
				"overbought": overbought,
				"oversold":   oversold,
			}))
	}
}

func stepsStochastic(bars []model.Bar, p Params) iter.Seq[model.StepEvent] {
	return func(yield func(model.StepEvent) bool) {
		kp := p.Int("k_period", 14)
		dp := p.Int("d_period", 3)
		overbought := p.Num("overbought", 80)
		oversold := p.Num("oversold", 20)

		if !yield(progress(1, 5, "Loading Market Data", fmt.Sprintf("%d bars loaded", len(bars)), 10)) {
			return
		}

		lowMin := indicator.RollingMin(model.Lows(bars), kp)
		highMax := indicator.RollingMax(model.Highs(bars), kp)
		k := make([]float64, len(bars))
		for i, b := range bars {
			if denom := highMax[i] - lowMin[i]; denom != 0 {
				k[i] = 100 * (b.Close - lowMin[i]) / denom
			} else {
				k[i] = 50
			}
		}
		d := indicator.SMA(k, dp)

		last := len(bars) - 1
		if !yield(progress(2, 5, fmt.Sprintf("Computing %%K(%d) and %%D(%d)", kp, dp),
			fmt.Sprintf("Current %%K=%.1f, %%D=%.1f", k[last], d[last]), 40)) {
			return
		}

		var signals []model.Signal
		for i := 1; i < len(bars); i++ {
			if k[i] > d[i] && k[i-1] <= d[i-1] && k[i] < oversold+10 {
				signals = append(signals, buySignal(bars[i]))
			} else if k[i] < d[i] && k[i-1] >= d[i-1] && k[i] > overbought-10 {
				signals = append(signals, sellSignal(bars[i]))
			}
		}

		metrics := ComputeMetrics(bars, signals)
		ev := progress(3, 5, "Detecting K/D Crossovers", fmt.Sprintf("%d signals found", len(signals)), 70)
		ev.Signals = signals
		if !yield(ev) {
			return
		}
		if !yield(progress(4, 5, "Computing Metrics",
			fmt.Sprintf("Win Rate %.0f%%", metrics.WinRate*100), 90)) {
			return
		}

		zone := "NEUTRAL"
		if k[last] > overbought {
			zone = "OVERBOUGHT"
		} else if k[last] < oversold {
			zone = "OVERSOLD"
		}
		yield(finalStep(5, 5, "Analysis Complete", fmt.Sprintf("Zone: %s", zone),
			signals, metrics,
			model.IndicatorData{
				"stoch_k": indicator.RoundSeries(k, 2),
				"stoch_d": indicator.RoundSeries(d, 2),
			},
			"momentum", map[string]any{
				"zone":    zone,
				"k_value": indicator.Round(k[last], 1),
				"d_value": indicator.Round(d[last], 1),
			}))
	}
}
