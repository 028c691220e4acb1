// Package indicator provides technical indicator calculations over bar series.
//
// All functions are pure: they take a numeric series (or bar slice) and return
// a new series of the same length, aligned one-to-one with the input. Leading
// positions are computed from a partial window that grows from 1 up to the
// requested period, so there are no undefined leading values.
package indicator

import (
	"math"
	"sort"
)

// Round rounds v to the given number of decimal places.
// NaN and Inf pass through untouched (they sanitize to null on the wire).
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// RoundSeries rounds every element of a series to the given decimal places.
func RoundSeries(x []float64, places int) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = Round(v, places)
	}
	return out
}

// Clip bounds every element of x to [lo, hi].
func Clip(x []float64, lo, hi float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		switch {
		case v < lo:
			out[i] = lo
		case v > hi:
			out[i] = hi
		default:
			out[i] = v
		}
	}
	return out
}

// PctChange returns the fractional change over lag positions.
// The first lag values are 0; a zero base value yields 0 rather than Inf.
func PctChange(x []float64, lag int) []float64 {
	out := make([]float64, len(x))
	for i := lag; i < len(x); i++ {
		base := x[i-lag]
		if base != 0 {
			out[i] = (x[i] - base) / base
		}
	}
	return out
}

// Quantile returns the q-quantile of the finite values of x using linear
// interpolation between order statistics. Returns 0 for an empty input.
func Quantile(x []float64, q float64) float64 {
	vals := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	if q <= 0 {
		return vals[0]
	}
	if q >= 1 {
		return vals[len(vals)-1]
	}
	pos := q * float64(len(vals)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return vals[lo]
	}
	frac := pos - float64(lo)
	return vals[lo] + frac*(vals[hi]-vals[lo])
}

// Median is the 0.5 quantile.
func Median(x []float64) float64 {
	return Quantile(x, 0.5)
}

