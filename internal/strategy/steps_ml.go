package strategy

import (
	"fmt"
	"iter"
	"math"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

func stepsLSTMProxy(bars []model.Bar, p Params) iter.Seq[model.StepEvent] {
	return func(yield func(model.StepEvent) bool) {
		lb := p.Int("lookback", 30)

		if !yield(progress(1, 7, "Loading Market Data", fmt.Sprintf("%d bars loaded", len(bars)), 8)) {
			return
		}
		if !yield(progress(2, 7, "Feature Engineering: RSI", "Computing 14-period RSI signal", 20)) {
			return
		}
		if !yield(progress(3, 7, "Feature Engineering: MACD", "Computing MACD momentum feature", 35)) {
			return
		}
		if !yield(progress(4, 7, "Feature Engineering: Bollinger %B", "Computing Bollinger Band position feature", 50)) {
			return
		}

		smoothed := lstmComposite(bars, lb)
		ev := progress(5, 7, "Training Neural Ensemble",
			fmt.Sprintf("Combining 3 features with %d-period smoothing", lb), 70)
		ev.Indicator = model.IndicatorData{"ml_composite": indicator.RoundSeries(smoothed, 6)}
		if !yield(ev) {
			return
		}

		signals := levelCrossSignals(bars, smoothed, 0.05, -0.05)
		metrics := ComputeMetrics(bars, signals)
		ev = progress(6, 7, "Generating Predictions", fmt.Sprintf("%d signals", len(signals)), 90)
		ev.Signals = signals
		if !yield(ev) {
			return
		}

		score := smoothed[len(smoothed)-1]
		prediction := mlPrediction(score)
		yield(finalStep(7, 7, "Analysis Complete", fmt.Sprintf("Prediction: %s", prediction),
			signals, metrics,
			model.IndicatorData{"ml_composite": indicator.RoundSeries(smoothed, 6)},
			"ml", map[string]any{
				"prediction":       prediction,
				"confidence_score": indicator.Round(math.Abs(score)*10, 2),
				"composite_score":  indicator.Round(score, 6),
				"features":         map[string]any{"rsi_weight": 0.3, "macd_weight": 0.4, "bb_weight": 0.3},
			}))
	}
}

func stepsGBMProxy(bars []model.Bar, p Params) iter.Seq[model.StepEvent] {
	return func(yield func(model.StepEvent) bool) {
		lb := p.Int("lookback", 20)

		if !yield(progress(1, 7, "Loading Market Data", fmt.Sprintf("%d bars loaded", len(bars)), 8)) {
			return
		}
		if !yield(progress(2, 7, "Feature Engineering: RSI + ATR",
			"Computing momentum and volatility features", 22)) {
			return
		}

		smoothed, volRatio, momentum := gbmScore(bars, lb)
		last := len(bars) - 1
		if !yield(progress(3, 7, "Feature Engineering: Volume Ratio",
			fmt.Sprintf("Current volume ratio: %.2fx", volRatio[last]), 38)) {
			return
		}
		if !yield(progress(4, 7, "Feature Engineering: Momentum + Mean Reversion",
			fmt.Sprintf("Momentum: %.1f%%", momentum[last]*100), 52)) {
			return
		}

		ev := progress(5, 7, "Training Gradient Boosted Ensemble",
			"Combining 4 features with gradient boosting proxy", 70)
		ev.Indicator = model.IndicatorData{"gbm_score": indicator.RoundSeries(smoothed, 6)}
		if !yield(ev) {
			return
		}

		signals := levelCrossSignals(bars, smoothed, 0.03, -0.03)
		metrics := ComputeMetrics(bars, signals)
		ev = progress(6, 7, "Generating Predictions", fmt.Sprintf("%d signals", len(signals)), 90)
		ev.Signals = signals
		if !yield(ev) {
			return
		}

		score := smoothed[last]
		prediction := mlPrediction(score)
		yield(finalStep(7, 7, "Analysis Complete", fmt.Sprintf("Prediction: %s", prediction),
			signals, metrics,
			model.IndicatorData{"gbm_score": indicator.RoundSeries(smoothed, 6)},
			"ml", map[string]any{
				"prediction":       prediction,
				"confidence_score": indicator.Round(math.Abs(score)*10, 2),
				"composite_score":  indicator.Round(score, 6),
				"features":         map[string]any{"rsi_w": 0.2, "momentum_w": 0.4, "mean_rev_w": 0.3, "volume_w": 0.1},
			}))
	}
}
