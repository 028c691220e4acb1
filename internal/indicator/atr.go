package indicator

import (
	"math"

	"quant-terminal/internal/model"
)

// TrueRange computes the per-bar true range:
// max(high−low, |high−prev_close|, |low−prev_close|).
// The first bar has no previous close and uses high−low alone.
func TrueRange(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		hl := b.High - b.Low
		if i == 0 {
			out[i] = hl
			continue
		}
		pc := bars[i-1].Close
		tr := hl
		if hc := math.Abs(b.High - pc); hc > tr {
			tr = hc
		}
		if lc := math.Abs(b.Low - pc); lc > tr {
			tr = lc
		}
		out[i] = tr
	}
	return out
}

// ATR is the average true range: true range smoothed with a growing-window SMA.
func ATR(bars []model.Bar, period int) []float64 {
	return SMA(TrueRange(bars), period)
}
