package strategy

import (
	"fmt"
	"math"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// profitFactorCap is reported when every paired trade is a win and the
// profit factor would otherwise be infinite.
const profitFactorCap = 999.0

// ComputeMetrics scores a signal list by pairing the i-th BUY with the i-th
// SELL in order of appearance. Unpaired signals are ignored. Per-trade PnL is
// normalized by the first close so the Sharpe ratio is comparable across
// price scales; the annualization factor assumes daily bars.
func ComputeMetrics(bars []model.Bar, signals []model.Signal) model.Metrics {
	var buys, sells []model.Signal
	for _, s := range signals {
		switch s.Type {
		case model.SignalBuy:
			buys = append(buys, s)
		case model.SignalSell:
			sells = append(sells, s)
		}
	}

	n := len(buys)
	if len(sells) < n {
		n = len(sells)
	}
	trades := make([]float64, n)
	for i := 0; i < n; i++ {
		trades[i] = sells[i].Price - buys[i].Price
	}

	if len(trades) == 0 {
		return model.Metrics{
			RiskLevel: model.RiskLow,
			Verdict:   "Insufficient signals for analysis",
		}
	}

	var wins, losses []float64
	for _, t := range trades {
		if t > 0 {
			wins = append(wins, t)
		} else {
			losses = append(losses, t)
		}
	}

	winRate := float64(len(wins)) / float64(len(trades))
	avgWin := mean(wins)
	avgLoss := math.Abs(mean(losses))

	var profitFactor float64
	switch {
	case len(losses) > 0 && sum(losses) != 0:
		profitFactor = sum(wins) / math.Abs(sum(losses))
	case len(wins) > 0:
		profitFactor = profitFactorCap
	}

	var firstClose float64
	if len(bars) > 0 {
		firstClose = bars[0].Close
	}

	returns := make([]float64, len(trades))
	for i, t := range trades {
		if firstClose != 0 {
			returns[i] = t / firstClose
		} else {
			returns[i] = t
		}
	}

	var sharpe float64
	if sd := popStd(returns); sd > 0 {
		sharpe = mean(returns) / sd * math.Sqrt(252)
	}

	// Max drawdown over the cumulative trade PnL curve, as % of first close.
	var cum, peak, maxDD float64
	for i, t := range trades {
		cum += t
		if i == 0 || cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}
	}
	var maxDDPct float64
	if firstClose != 0 {
		maxDDPct = maxDD / firstClose * 100
	}

	var riskLevel string
	var confidence float64
	switch {
	case sharpe > 1.5 && winRate > 0.6:
		riskLevel, confidence = model.RiskLow, math.Min(0.85, winRate)
	case sharpe > 0.5:
		riskLevel, confidence = model.RiskModerate, math.Min(0.7, winRate)
	default:
		riskLevel, confidence = model.RiskHigh, math.Min(0.5, winRate)
	}

	bias := "Bearish"
	if sum(trades) > 0 {
		bias = "Bullish"
	}
	quality := "unfavorable"
	if sharpe > 1 {
		quality = "favorable"
	} else if sharpe > 0 {
		quality = "marginal"
	}
	verdict := fmt.Sprintf("%s bias detected. %d round-trip trades with %.0f%% win rate. Risk-adjusted return %s.",
		bias, len(trades), winRate*100, quality)

	positionPct := int(winRate * 30)
	if positionPct < 2 {
		positionPct = 2
	}
	if positionPct > 25 {
		positionPct = 25
	}

	return model.Metrics{
		SharpeRatio:          indicator.Round(sharpe, 3),
		MaxDrawdown:          indicator.Round(maxDDPct, 2),
		WinRate:              indicator.Round(winRate, 3),
		TotalTrades:          len(trades),
		ProfitFactor:         indicator.Round(profitFactor, 3),
		AvgWin:               indicator.Round(avgWin, 2),
		AvgLoss:              indicator.Round(avgLoss, 2),
		RiskLevel:            riskLevel,
		Confidence:           indicator.Round(confidence, 3),
		Verdict:              verdict,
		SuggestedPositionPct: float64(positionPct),
	}
}

func sum(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return sum(x) / float64(len(x))
}

// popStd is the population standard deviation (N denominator).
func popStd(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := mean(x)
	ss := 0.0
	for _, v := range x {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(x)))
}
