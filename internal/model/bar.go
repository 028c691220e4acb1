// Package model defines the shared data types of the strategy evaluation
// engine: OHLCV bars, trade signals, performance metrics, backtest records,
// and streaming step events.
package model

// Bar is one OHLCV (open/high/low/close/volume) observation.
// Bars arrive as an ordered sequence, ascending by date.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Closes extracts the close series from a bar slice.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high series from a bar slice.
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low series from a bar slice.
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volume series from a bar slice.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// Dates extracts the date column from a bar slice.
func Dates(bars []Bar) []string {
	out := make([]string, len(bars))
	for i, b := range bars {
		out[i] = b.Date
	}
	return out
}

// Quote is a point-in-time price snapshot pushed over the live stream.
type Quote struct {
	Ticker        string  `json:"ticker"`
	Price         float64 `json:"price"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Volume        int64   `json:"volume"`
	PreviousClose float64 `json:"previous_close"`
	Change        float64 `json:"change"`
	ChangePct     float64 `json:"change_pct"`
}
