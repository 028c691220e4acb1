package backtest

import (
	"fmt"
	"math"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// computeMetrics scores the equity curve and trade log. Unlike the signal
// scorer, this works from realized portfolio values: bar-over-bar equity
// returns for the Sharpe ratio and peak-relative drawdown on the curve
// itself. Only closing entries with nonzero PnL count as trades.
func computeMetrics(equity []float64, tradeLog []model.TradeRecord, initialCapital float64) model.Metrics {
	if len(equity) < 2 {
		return emptyMetrics()
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] != 0 {
			r := (equity[i] - equity[i-1]) / equity[i-1]
			if !math.IsNaN(r) && !math.IsInf(r, 0) {
				returns = append(returns, r)
			}
		}
	}

	var sharpe float64
	if sd := popStd(returns); sd > 0 {
		sharpe = mean(returns) / sd * math.Sqrt(252)
	}

	var peak, maxDD float64
	for i, v := range equity {
		if i == 0 || v > peak {
			peak = v
		}
		if peak != 0 {
			if dd := (peak - v) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}

	var pnls, wins, losses []float64
	for _, t := range tradeLog {
		switch t.Type {
		case model.TradeSell, model.TradeCover, model.TradeClose:
			if t.PnL != 0 {
				pnls = append(pnls, t.PnL)
				if t.PnL > 0 {
					wins = append(wins, t.PnL)
				} else {
					losses = append(losses, t.PnL)
				}
			}
		}
	}

	totalTrades := len(pnls)
	var winRate float64
	if totalTrades > 0 {
		winRate = float64(len(wins)) / float64(totalTrades)
	}
	avgWin := mean(wins)
	avgLoss := math.Abs(mean(losses))

	var profitFactor float64
	switch {
	case len(losses) > 0 && sum(losses) != 0:
		profitFactor = sum(wins) / math.Abs(sum(losses))
	case len(wins) > 0:
		profitFactor = 999.0
	}

	riskLevel := model.RiskHigh
	if maxDD < 10 {
		riskLevel = model.RiskLow
	} else if maxDD < 25 {
		riskLevel = model.RiskModerate
	}

	confidence := winRate * 0.8
	if sharpe > 1 {
		confidence += 0.2
	}
	confidence = math.Min(0.9, confidence)

	outcome := "Unprofitable"
	if equity[len(equity)-1]-initialCapital > 0 {
		outcome = "Profitable"
	}
	verdict := fmt.Sprintf("%s strategy. %d trades, %.0f%% win rate, Sharpe %.2f, max drawdown %.1f%%.",
		outcome, totalTrades, winRate*100, sharpe, maxDD)

	positionPct := int(winRate * 30)
	if positionPct < 2 {
		positionPct = 2
	}
	if positionPct > 25 {
		positionPct = 25
	}

	return model.Metrics{
		SharpeRatio:          indicator.Round(sharpe, 3),
		MaxDrawdown:          indicator.Round(maxDD, 2),
		WinRate:              indicator.Round(winRate, 3),
		TotalTrades:          totalTrades,
		ProfitFactor:         indicator.Round(profitFactor, 3),
		AvgWin:               indicator.Round(avgWin, 2),
		AvgLoss:              indicator.Round(avgLoss, 2),
		RiskLevel:            riskLevel,
		Confidence:           indicator.Round(confidence, 3),
		Verdict:              verdict,
		SuggestedPositionPct: float64(positionPct),
	}
}

func emptyMetrics() model.Metrics {
	return model.Metrics{
		RiskLevel: model.RiskLow,
		Verdict:   "No trades executed",
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
