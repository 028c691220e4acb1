package indicator

import "math"

// RollingStd is the trailing-window sample standard deviation (n−1
// denominator) with the growing-window rule. A single-sample window has
// standard deviation 0 by definition here, not NaN.
func RollingStd(x []float64, period int) []float64 {
	if period < 1 {
		period = 1
	}
	out := make([]float64, len(x))
	for i := range x {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		n := i - start + 1
		if n < 2 {
			out[i] = 0
			continue
		}
		mean := 0.0
		for j := start; j <= i; j++ {
			mean += x[j]
		}
		mean /= float64(n)
		ss := 0.0
		for j := start; j <= i; j++ {
			d := x[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(n-1))
	}
	return out
}

// Bollinger returns the middle, upper, and lower bands: SMA(period) ± k·stddev.
// Where only one sample is in the window the stddev is 0 and the bands
// collapse to the middle.
func Bollinger(x []float64, period int, k float64) (mid, upper, lower []float64) {
	mid = SMA(x, period)
	std := RollingStd(x, period)
	upper = make([]float64, len(x))
	lower = make([]float64, len(x))
	for i := range x {
		upper[i] = mid[i] + k*std[i]
		lower[i] = mid[i] - k*std[i]
	}
	return mid, upper, lower
}
