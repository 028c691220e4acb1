package model

import (
	"math"
	"strconv"
)

// Series is a numeric series aligned one-to-one with an input bar sequence.
// NaN and ±Inf entries encode as JSON null so a degenerate value never
// produces an invalid payload on the wire.
type Series []float64

// MarshalJSON encodes the series with NaN/Inf sanitized to null.
func (s Series) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(s)*8+2)
	buf = append(buf, '[')
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'f', -1, 64)
	}
	buf = append(buf, ']')
	return buf, nil
}

// IndicatorData holds named indicator series for chart overlays.
// Every series has the same length as the bar sequence it was computed from.
type IndicatorData map[string]Series
