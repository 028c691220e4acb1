package strategy

import (
	"fmt"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// execVolumeSpike flags bars whose volume exceeds a multiple of its rolling
// average. The signal direction follows the bar-over-bar price change, and
// each signal is labeled with the spike magnitude.
func execVolumeSpike(bars []model.Bar, p Params) model.StrategyResult {
	lookback := p.Int("lookback", 20)
	threshold := p.Num("threshold", 2.0)

	volumes := model.Volumes(bars)
	volSMA := indicator.SMA(volumes, lookback)
	ratio := make([]float64, len(bars))
	for i := range bars {
		if volSMA[i] != 0 {
			ratio[i] = volumes[i] / volSMA[i]
		} else {
			ratio[i] = 1
		}
	}

	var signals []model.Signal
	for i := lookback; i < len(bars); i++ {
		if ratio[i] <= threshold {
			continue
		}
		sigType := model.SignalSell
		if bars[i].Close-bars[i-1].Close > 0 {
			sigType = model.SignalBuy
		}
		signals = append(signals, model.Signal{
			Date:  bars[i].Date,
			Type:  sigType,
			Price: bars[i].Close,
			Label: fmt.Sprintf("Volume %.1fx avg", ratio[i]),
		})
	}

	return model.StrategyResult{
		Signals: signals,
		Metrics: ComputeMetrics(bars, signals),
		IndicatorData: model.IndicatorData{
			"volume_ratio": indicator.RoundSeries(ratio, 2),
		},
	}
}

// execOrderImbalance derives buy/sell pressure from where the close sits in
// the bar's range, smooths it, and trades threshold crossings in either
// direction. Zero-range bars contribute no pressure.
func execOrderImbalance(bars []model.Bar, p Params) model.StrategyResult {
	lookback := p.Int("lookback", 10)
	threshold := p.Num("threshold", 0.6)

	imbalance := make([]float64, len(bars))
	for i, b := range bars {
		if r := b.High - b.Low; r != 0 {
			imbalance[i] = ((b.Close - b.Low) - (b.High - b.Close)) / r
		}
	}
	smoothed := indicator.SMA(imbalance, lookback)

	signals := levelCrossSignals(bars, smoothed, threshold, -threshold)

	return model.StrategyResult{
		Signals: signals,
		Metrics: ComputeMetrics(bars, signals),
		IndicatorData: model.IndicatorData{
			"imbalance": indicator.RoundSeries(smoothed, 4),
		},
	}
}
