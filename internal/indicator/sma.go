package indicator

// SMA is the simple moving average over a trailing window. Positions before
// the window fills use the mean of all samples seen so far, so the output has
// no leading gap.
func SMA(x []float64, period int) []float64 {
	if period < 1 {
		period = 1
	}
	out := make([]float64, len(x))
	sum := 0.0
	for i, v := range x {
		sum += v
		if i >= period {
			sum -= x[i-period]
		}
		n := i + 1
		if n > period {
			n = period
		}
		out[i] = sum / float64(n)
	}
	return out
}

// RollingMax is the trailing-window maximum with the same growing-window rule
// as SMA.
func RollingMax(x []float64, period int) []float64 {
	if period < 1 {
		period = 1
	}
	out := make([]float64, len(x))
	for i := range x {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		m := x[start]
		for j := start + 1; j <= i; j++ {
			if x[j] > m {
				m = x[j]
			}
		}
		out[i] = m
	}
	return out
}

// RollingMin is the trailing-window minimum with the growing-window rule.
func RollingMin(x []float64, period int) []float64 {
	if period < 1 {
		period = 1
	}
	out := make([]float64, len(x))
	for i := range x {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		m := x[start]
		for j := start + 1; j <= i; j++ {
			if x[j] < m {
				m = x[j]
			}
		}
		out[i] = m
	}
	return out
}

// RollingMeanAbsDev is the trailing-window mean absolute deviation from the
// window mean. Used by CCI.
func RollingMeanAbsDev(x []float64, period int) []float64 {
	if period < 1 {
		period = 1
	}
	out := make([]float64, len(x))
	for i := range x {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		n := float64(i - start + 1)
		mean := 0.0
		for j := start; j <= i; j++ {
			mean += x[j]
		}
		mean /= n
		dev := 0.0
		for j := start; j <= i; j++ {
			d := x[j] - mean
			if d < 0 {
				d = -d
			}
			dev += d
		}
		out[i] = dev / n
	}
	return out
}
