package strategy

import (
	"fmt"
	"iter"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

func stepsBollingerReversion(bars []model.Bar, p Params) iter.Seq[model.StepEvent] {
	return func(yield func(model.StepEvent) bool) {
		period := p.Int("period", 20)
		stdDev := p.Num("std_dev", 2.0)

		if !yield(progress(1, 5, "Loading Market Data", fmt.Sprintf("%d bars loaded", len(bars)), 10)) {
			return
		}

		mid, upper, lower := indicator.Bollinger(model.Closes(bars), period, stdDev)
		// 0 on a zero middle band so the output scalar stays finite.
		last := len(bars) - 1
		bandwidth := 0.0
		if mid[last] != 0 {
			bandwidth = (upper[last] - lower[last]) / mid[last] * 100
		}
		ev := progress(2, 5, fmt.Sprintf("Computing Bollinger Bands(%d, %gσ)", period, stdDev),
			fmt.Sprintf("Bandwidth: %.1f%% | Upper: %.2f | Lower: %.2f", bandwidth, upper[last], lower[last]), 40)
		ev.Indicator = model.IndicatorData{
			"bb_upper":  indicator.RoundSeries(upper, 2),
			"bb_middle": indicator.RoundSeries(mid, 2),
			"bb_lower":  indicator.RoundSeries(lower, 2),
		}
		if !yield(ev) {
			return
		}

		var signals []model.Signal
		position := 0
		for i := period; i < len(bars); i++ {
			if bars[i].Close <= lower[i] && position <= 0 {
				signals = append(signals, buySignal(bars[i]))
				position = 1
			} else if bars[i].Close >= upper[i] && position >= 0 {
				signals = append(signals, sellSignal(bars[i]))
				position = -1
			}
		}

		metrics := ComputeMetrics(bars, signals)
		ev = progress(3, 5, "Scanning Band Touches",
			fmt.Sprintf("%d mean-reversion signals", len(signals)), 65)
		ev.Signals = signals
		if !yield(ev) {
			return
		}
		if !yield(progress(4, 5, "Computing Metrics",
			fmt.Sprintf("Sharpe %.3f", metrics.SharpeRatio), 85)) {
			return
		}

		// Signed distance from the mean, in units of the upper half-band.
		dist := 0.0
		if upper[last] != mid[last] {
			dist = (bars[last].Close - mid[last]) / (upper[last] - mid[last])
		}
		bandPosition := "MIDDLE"
		if dist > 0.5 {
			bandPosition = "UPPER"
		} else if dist < -0.5 {
			bandPosition = "LOWER"
		}
		yield(finalStep(5, 5, "Analysis Complete",
			fmt.Sprintf("Price at %.1f%% from mean to upper band", dist*100),
			signals, metrics,
			model.IndicatorData{
				"bb_upper":  indicator.RoundSeries(upper, 2),
				"bb_middle": indicator.RoundSeries(mid, 2),
				"bb_lower":  indicator.RoundSeries(lower, 2),
			},
			"mean_reversion", map[string]any{
				"distance_from_mean": indicator.Round(dist, 3),
				"bandwidth_pct":      indicator.Round(bandwidth, 2),
				"position":           bandPosition,
			}))
	}
}
