package indicator

// EMA is the exponential moving average with smoothing factor α = 2/(period+1),
// seeded with the first sample. With period=1 the smoothing factor degenerates
// to 1 and the output equals the input series.
func EMA(x []float64, period int) []float64 {
	if period < 1 {
		period = 1
	}
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = x[0]
	for i := 1; i < len(x); i++ {
		out[i] = out[i-1] + alpha*(x[i]-out[i-1])
	}
	return out
}

// Sub returns a-b elementwise. Inputs must have the same length.
func Sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}
