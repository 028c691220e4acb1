package strategy

import (
	"fmt"
	"iter"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

func stepsKalmanFilter(bars []model.Bar, p Params) iter.Seq[model.StepEvent] {
	return func(yield func(model.StepEvent) bool) {
		q := p.Num("process_noise", 0.01)
		r := p.Num("measurement_noise", 1.0)
		closes := model.Closes(bars)
		n := len(closes)

		if !yield(progress(1, 6, "Loading Market Data", fmt.Sprintf("%d bars loaded", n), 10)) {
			return
		}
		if !yield(progress(2, 6, "Initializing Kalman Filter",
			fmt.Sprintf("Process noise Q=%g, Measurement noise R=%g", q, r), 25)) {
			return
		}

		filtered, velocity := kalmanEstimate(closes, q, r)
		ev := progress(3, 6, "Running Filter Forward Pass",
			fmt.Sprintf("Final state estimate: %.2f", filtered[n-1]), 50)
		ev.Indicator = model.IndicatorData{"kalman": indicator.RoundSeries(filtered, 2)}
		if !yield(ev) {
			return
		}

		signals := levelCrossSignals(bars, velocity, 0, 0)
		ev = progress(4, 6, "Extracting Velocity Signals",
			fmt.Sprintf("%d zero-crossings detected", len(signals)), 70)
		ev.Signals = signals
		if !yield(ev) {
			return
		}

		metrics := ComputeMetrics(bars, signals)
		if !yield(progress(5, 6, "Computing Metrics",
			fmt.Sprintf("Sharpe %.3f", metrics.SharpeRatio), 90)) {
			return
		}

		state := "DECELERATING"
		if n >= 2 && velocity[n-1] > velocity[n-2] {
			state = "ACCELERATING"
		}
		yield(finalStep(6, 6, "Analysis Complete", fmt.Sprintf("Filter state: %s", state),
			signals, metrics,
			model.IndicatorData{"kalman": indicator.RoundSeries(filtered, 2)},
			"statistical", map[string]any{
				"filter_state":    state,
				"estimated_price": indicator.Round(filtered[n-1], 2),
				"velocity":        indicator.Round(velocity[n-1], 6),
				"gain":            indicator.Round(filtered[n-1]-closes[n-1], 2),
			}))
	}
}
