package strategy

import (
	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// The "machine learning" strategies are deterministic composite-indicator
// proxies: weighted blends of normalized features, smoothed with an EMA and
// traded on threshold crossings. No model is fitted.

// lstmComposite blends RSI, MACD-to-price ratio, and Bollinger %B into one
// score in roughly [-0.5, 0.5], smoothed over the lookback.
func lstmComposite(bars []model.Bar, lookback int) []float64 {
	closes := model.Closes(bars)
	rsi := indicator.RSI(closes, 14)
	macd := indicator.Sub(indicator.EMA(closes, 12), indicator.EMA(closes, 26))
	_, bbUpper, bbLower := indicator.Bollinger(closes, 20, 2)

	composite := make([]float64, len(bars))
	for i := range closes {
		bbPct := 0.5
		if band := bbUpper[i] - bbLower[i]; band != 0 {
			bbPct = (closes[i] - bbLower[i]) / band
		}
		macdRatio := 0.0
		if closes[i] != 0 {
			macdRatio = macd[i] / closes[i]
		}
		composite[i] = (rsi[i]/100-0.5)*0.3 + macdRatio*0.4 + (bbPct-0.5)*0.3
	}
	return indicator.EMA(composite, lookback)
}

// gbmScore blends RSI, clipped momentum, clipped mean-reversion stretch, and
// clipped volume-ratio excess, smoothed with a short EMA. The momentum and
// volume-ratio series are also returned for progress reporting.
func gbmScore(bars []model.Bar, lookback int) (smoothed, volRatio, momentum []float64) {
	closes := model.Closes(bars)
	volumes := model.Volumes(bars)

	rsi := indicator.RSI(closes, 14)
	volSMA := indicator.SMA(volumes, lookback)
	volRatio = make([]float64, len(bars))
	for i := range bars {
		if volSMA[i] != 0 {
			volRatio[i] = volumes[i] / volSMA[i]
		} else {
			volRatio[i] = 1
		}
	}

	momentum = indicator.PctChange(closes, lookback)
	smaClose := indicator.SMA(closes, lookback)
	meanRev := make([]float64, len(bars))
	for i := range bars {
		if smaClose[i] != 0 {
			meanRev[i] = closes[i]/smaClose[i] - 1
		}
	}

	clippedMom := indicator.Clip(momentum, -0.1, 0.1)
	clippedRev := indicator.Clip(meanRev, -0.05, 0.05)

	score := make([]float64, len(bars))
	for i := range bars {
		volExcess := volRatio[i] - 1
		if volExcess > 1 {
			volExcess = 1
		} else if volExcess < -1 {
			volExcess = -1
		}
		score[i] = (rsi[i]/100-0.5)*0.2 + clippedMom[i]*2 - clippedRev[i]*3 + volExcess*0.1
	}
	return indicator.EMA(score, 5), volRatio, momentum
}

// mlPrediction maps the final smoothed score to a directional call.
func mlPrediction(score float64) string {
	switch {
	case score > 0.02:
		return "LONG"
	case score < -0.02:
		return "SHORT"
	default:
		return "FLAT"
	}
}
