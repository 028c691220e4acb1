package strategy

import (
	"fmt"
	"iter"
	"math"
	"strings"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// progress builds a non-final step event.
func progress(step, total int, title, detail string, pct int) model.StepEvent {
	return model.StepEvent{Step: step, Total: total, Title: title, Detail: detail, Progress: pct}
}

// finalStep builds the terminal event carrying the complete result and a
// category-specific output summary.
func finalStep(step, total int, title, detail string, signals []model.Signal, metrics model.Metrics, ind model.IndicatorData, outputType string, output map[string]any) model.StepEvent {
	return model.StepEvent{
		Step: step, Total: total, Title: title, Detail: detail, Progress: 100,
		Final:         true,
		Signals:       signals,
		Metrics:       &metrics,
		IndicatorData: ind,
		OutputType:    outputType,
		Output:        output,
	}
}

// stepsGeneric wraps a batch executor in a fixed four-step sequence for
// strategies without a custom progression.
func stepsGeneric(exec ExecFunc) StepFunc {
	return func(bars []model.Bar, p Params) iter.Seq[model.StepEvent] {
		return func(yield func(model.StepEvent) bool) {
			if !yield(progress(1, 4, "Loading Market Data", fmt.Sprintf("%d bars loaded", len(bars)), 15)) {
				return
			}
			if !yield(progress(2, 4, "Computing Indicators", "Calculating technical indicators...", 40)) {
				return
			}

			res := exec(bars, p)
			ev := progress(3, 4, "Generating Signals", fmt.Sprintf("%d signals detected", len(res.Signals)), 75)
			ev.Signals = res.Signals
			if !yield(ev) {
				return
			}

			direction := "BEARISH"
			if strings.HasPrefix(res.Metrics.Verdict, "Bullish") {
				direction = "BULLISH"
			}
			yield(finalStep(4, 4, "Analysis Complete",
				fmt.Sprintf("Sharpe %.3f | Win Rate %.0f%%", res.Metrics.SharpeRatio, res.Metrics.WinRate*100),
				res.Signals, res.Metrics, res.IndicatorData,
				"generic", map[string]any{
					"total_signals": len(res.Signals),
					"net_direction": direction,
				}))
		}
	}
}

// trendStrength is the fast/slow gap as a percent of price, 0 on a zero
// close so the output scalar stays finite.
func trendStrength(fast, slow, close float64) float64 {
	if close == 0 {
		return 0
	}
	return indicator.Round(math.Abs(fast-slow)/close*100, 2)
}

// countByType tallies buy and sell signals for progress details.
func countByType(signals []model.Signal) (buys, sells int) {
	for _, s := range signals {
		if s.Type == model.SignalBuy {
			buys++
		} else {
			sells++
		}
	}
	return buys, sells
}
