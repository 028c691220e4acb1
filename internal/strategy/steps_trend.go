package strategy

import (
	"fmt"
	"iter"
	"slices"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

func stepsMACrossover(bars []model.Bar, p Params) iter.Seq[model.StepEvent] {
	return func(yield func(model.StepEvent) bool) {
		fp := p.Int("fast_period", 10)
		sp := p.Int("slow_period", 30)
		closes := model.Closes(bars)

		if !yield(progress(1, 6, "Loading Market Data",
			fmt.Sprintf("%d bars loaded for analysis", len(bars)), 10)) {
			return
		}

		fast := indicator.SMA(closes, fp)
		ev := progress(2, 6, fmt.Sprintf("Computing Fast SMA(%d)", fp),
			fmt.Sprintf("Smoothing price with %d-period simple moving average", fp), 30)
		ev.Indicator = model.IndicatorData{"fast_sma": indicator.RoundSeries(fast, 2)}
		if !yield(ev) {
			return
		}

		slow := indicator.SMA(closes, sp)
		ev = progress(3, 6, fmt.Sprintf("Computing Slow SMA(%d)", sp),
			fmt.Sprintf("Establishing trend baseline with %d-period SMA", sp), 50)
		ev.Indicator = model.IndicatorData{"slow_sma": indicator.RoundSeries(slow, 2)}
		if !yield(ev) {
			return
		}

		signals := crossoverSignals(bars, fast, slow)
		buys, sells := countByType(signals)
		ev = progress(4, 6, "Scanning Crossover Points",
			fmt.Sprintf("Detected %d bullish and %d bearish crossovers", buys, sells), 70)
		ev.Signals = signals
		if !yield(ev) {
			return
		}

		metrics := ComputeMetrics(bars, signals)
		if !yield(progress(5, 6, "Computing Risk Metrics",
			fmt.Sprintf("Sharpe %.3f | Win Rate %.0f%% | Max DD %.1f%%",
				metrics.SharpeRatio, metrics.WinRate*100, metrics.MaxDrawdown), 90)) {
			return
		}

		last := len(bars) - 1
		trend := "BEARISH"
		if fast[last] > slow[last] {
			trend = "BULLISH"
		}
		yield(finalStep(6, 6, "Analysis Complete",
			fmt.Sprintf("Current regime: %s. %d signals generated.", trend, len(signals)),
			signals, metrics,
			model.IndicatorData{
				"fast_sma": indicator.RoundSeries(fast, 2),
				"slow_sma": indicator.RoundSeries(slow, 2),
			},
			"trend", map[string]any{
				"direction": trend,
				"strength":  trendStrength(fast[last], slow[last], closes[last]),
				"fast_val":  indicator.Round(fast[last], 2),
				"slow_val":  indicator.Round(slow[last], 2),
			}))
	}
}

func stepsEMAStrategy(bars []model.Bar, p Params) iter.Seq[model.StepEvent] {
	return func(yield func(model.StepEvent) bool) {
		fp := p.Int("fast_period", 9)
		sp := p.Int("slow_period", 21)
		closes := model.Closes(bars)

		if !yield(progress(1, 5, "Loading Market Data", fmt.Sprintf("%d bars loaded", len(bars)), 10)) {
			return
		}

		fast := indicator.EMA(closes, fp)
		ev := progress(2, 5, fmt.Sprintf("Computing Fast EMA(%d)", fp),
			fmt.Sprintf("Exponential weighting with span=%d", fp), 30)
		ev.Indicator = model.IndicatorData{"fast_ema": indicator.RoundSeries(fast, 2)}
		if !yield(ev) {
			return
		}

		slow := indicator.EMA(closes, sp)
		ev = progress(3, 5, fmt.Sprintf("Computing Slow EMA(%d)", sp),
			fmt.Sprintf("Trend baseline with span=%d", sp), 50)
		ev.Indicator = model.IndicatorData{"slow_ema": indicator.RoundSeries(slow, 2)}
		if !yield(ev) {
			return
		}

		signals := crossoverSignals(bars, fast, slow)
		metrics := ComputeMetrics(bars, signals)
		ev = progress(4, 5, "Signal Detection Complete",
			fmt.Sprintf("%d crossovers found", len(signals)), 80)
		ev.Signals = signals
		if !yield(ev) {
			return
		}

		last := len(bars) - 1
		trend := "BEARISH"
		if fast[last] > slow[last] {
			trend = "BULLISH"
		}
		yield(finalStep(5, 5, "Analysis Complete", fmt.Sprintf("Regime: %s", trend),
			signals, metrics,
			model.IndicatorData{
				"fast_ema": indicator.RoundSeries(fast, 2),
				"slow_ema": indicator.RoundSeries(slow, 2),
			},
			"trend", map[string]any{
				"direction": trend,
				"strength":  trendStrength(fast[last], slow[last], closes[last]),
			}))
	}
}

func stepsMACDSignal(bars []model.Bar, p Params) iter.Seq[model.StepEvent] {
	return func(yield func(model.StepEvent) bool) {
		f := p.Int("fast", 12)
		s := p.Int("slow", 26)
		sig := p.Int("signal", 9)
		closes := model.Closes(bars)

		if !yield(progress(1, 6, "Loading Market Data", fmt.Sprintf("%d bars loaded", len(bars)), 10)) {
			return
		}

		fastEMA := indicator.EMA(closes, f)
		if !yield(progress(2, 6, fmt.Sprintf("Computing Fast EMA(%d)", f),
			"Short-term momentum line", 25)) {
			return
		}

		slowEMA := indicator.EMA(closes, s)
		macdLine := indicator.Sub(fastEMA, slowEMA)
		if !yield(progress(3, 6, fmt.Sprintf("Computing MACD Line (EMA%d-EMA%d)", f, s),
			fmt.Sprintf("MACD range: [%.2f, %.2f]", slices.Min(macdLine), slices.Max(macdLine)), 45)) {
			return
		}

		signalLine := indicator.EMA(macdLine, sig)
		histogram := indicator.Sub(macdLine, signalLine)
		if !yield(progress(4, 6, fmt.Sprintf("Computing Signal Line (EMA%d of MACD)", sig),
			"Trigger line for crossover detection", 60)) {
			return
		}

		signals := crossoverSignals(bars, macdLine, signalLine)
		metrics := ComputeMetrics(bars, signals)
		ev := progress(5, 6, "Crossover Detection",
			fmt.Sprintf("%d MACD/Signal crossovers detected", len(signals)), 85)
		ev.Signals = signals
		if !yield(ev) {
			return
		}

		last := len(bars) - 1
		momentum := "BEARISH"
		if macdLine[last] > signalLine[last] {
			momentum = "BULLISH"
		}
		yield(finalStep(6, 6, "Analysis Complete", fmt.Sprintf("MACD momentum: %s", momentum),
			signals, metrics,
			model.IndicatorData{
				"macd":   indicator.RoundSeries(macdLine, 4),
				"signal": indicator.RoundSeries(signalLine, 4),
			},
			"momentum", map[string]any{
				"direction":  momentum,
				"macd_val":   indicator.Round(macdLine[last], 4),
				"signal_val": indicator.Round(signalLine[last], 4),
				"histogram":  indicator.Round(histogram[last], 4),
			}))
	}
}
