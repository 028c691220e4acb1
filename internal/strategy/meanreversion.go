package strategy

import (
	"math"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// execZScoreReversion trades the z-score of price against its rolling mean.
// Enter long at entry_z or below, flip short at the mirrored level, and flatten
// whenever |z| falls inside the exit band while a position is open.
func execZScoreReversion(bars []model.Bar, p Params) model.StrategyResult {
	period := p.Int("period", 20)
	entryZ := p.Num("entry_z", -2.0)
	exitZ := p.Num("exit_z", 0.0)

	closes := model.Closes(bars)
	mean := indicator.SMA(closes, period)
	std := indicator.RollingStd(closes, period)

	zscore := make([]float64, len(bars))
	for i := range closes {
		if std[i] != 0 {
			zscore[i] = (closes[i] - mean[i]) / std[i]
		}
	}

	var signals []model.Signal
	position := 0
	for i := period; i < len(bars); i++ {
		switch {
		case zscore[i] <= entryZ && position <= 0:
			signals = append(signals, buySignal(bars[i]))
			position = 1
		case zscore[i] >= -entryZ && position >= 0:
			signals = append(signals, sellSignal(bars[i]))
			position = -1
		case position != 0 && math.Abs(zscore[i]) <= math.Abs(exitZ):
			if position == 1 {
				signals = append(signals, sellSignal(bars[i]))
			} else {
				signals = append(signals, buySignal(bars[i]))
			}
			position = 0
		}
	}

	return model.StrategyResult{
		Signals: signals,
		Metrics: ComputeMetrics(bars, signals),
		IndicatorData: model.IndicatorData{
			"zscore": indicator.RoundSeries(zscore, 4),
		},
	}
}

// execVWAPReversion trades deviations from the cumulative volume-weighted
// average price. Bars with no cumulative volume fall back to the close. The
// scan skips a 20-bar warmup regardless of parameters.
func execVWAPReversion(bars []model.Bar, p Params) model.StrategyResult {
	dev := p.Num("deviation_pct", 2.0) / 100

	vwap := make([]float64, len(bars))
	var cumVol, cumTPVol float64
	for i, b := range bars {
		cumVol += b.Volume
		cumTPVol += (b.High + b.Low + b.Close) / 3 * b.Volume
		if cumVol != 0 {
			vwap[i] = cumTPVol / cumVol
		} else {
			vwap[i] = b.Close
		}
	}

	var signals []model.Signal
	position := 0
	for i := 20; i < len(bars); i++ {
		if bars[i].Close < vwap[i]*(1-dev) && position <= 0 {
			signals = append(signals, buySignal(bars[i]))
			position = 1
		} else if bars[i].Close > vwap[i]*(1+dev) && position >= 0 {
			signals = append(signals, sellSignal(bars[i]))
			position = -1
		}
	}

	return model.StrategyResult{
		Signals: signals,
		Metrics: ComputeMetrics(bars, signals),
		IndicatorData: model.IndicatorData{
			"vwap": indicator.RoundSeries(vwap, 2),
		},
	}
}
