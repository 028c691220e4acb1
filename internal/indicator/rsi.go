package indicator

// RSI is the relative strength index over a growing window of per-step deltas.
// Gains and losses are averaged separately; when the average loss is zero the
// value is defined as 100 rather than dividing by zero, so the output is
// always within [0, 100].
func RSI(x []float64, period int) []float64 {
	n := len(x)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		d := x[i] - x[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if avgLoss[i] == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
