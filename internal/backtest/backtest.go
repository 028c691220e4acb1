// Package backtest simulates a single-instrument portfolio driven by
// strategy signals. Fills happen at the signaled bar's close, sized to 95%
// of available cash, long-only with a forced close on the last bar.
package backtest

import (
	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// DefaultInitialCapital is used when a request does not set its own.
const DefaultInitialCapital = 100000.0

// Run replays signals over the bar series and produces the equity curve,
// trade log, and performance metrics. At most one signal per date applies;
// the last one for a date wins.
func Run(bars []model.Bar, signals []model.Signal, initialCapital float64) model.BacktestResult {
	if len(signals) == 0 || len(bars) == 0 {
		return model.BacktestResult{
			EquityCurve:    []model.EquityPoint{},
			TradeLog:       []model.TradeRecord{},
			Metrics:        emptyMetrics(),
			InitialCapital: initialCapital,
			FinalValue:     initialCapital,
			TotalReturnPct: 0,
		}
	}

	signalByDate := make(map[string]model.Signal, len(signals))
	for _, s := range signals {
		signalByDate[s.Date] = s
	}

	cash := initialCapital
	position := 0
	var shares int64
	entryPrice := 0.0
	cumulativePnL := 0.0
	tradeLog := []model.TradeRecord{}
	equity := make([]model.EquityPoint, 0, len(bars))

	for _, bar := range bars {
		price := bar.Close

		if sig, ok := signalByDate[bar.Date]; ok {
			switch {
			case sig.Type == model.SignalBuy && position <= 0:
				if position < 0 {
					pnl := (entryPrice - price) * float64(shares)
					cumulativePnL += pnl
					cash += pnl + entryPrice*float64(shares)
					tradeLog = append(tradeLog, model.TradeRecord{
						Date:          bar.Date,
						Type:          model.TradeCover,
						Price:         indicator.Round(price, 2),
						Quantity:      shares,
						PnL:           indicator.Round(pnl, 2),
						CumulativePnL: indicator.Round(cumulativePnL, 2),
					})
				}

				shares = 0
				if price > 0 {
					shares = int64(cash * 0.95 / price)
				}
				if shares > 0 {
					cash -= float64(shares) * price
					entryPrice = price
					position = 1
					tradeLog = append(tradeLog, model.TradeRecord{
						Date:          bar.Date,
						Type:          model.TradeBuy,
						Price:         indicator.Round(price, 2),
						Quantity:      shares,
						PnL:           0,
						CumulativePnL: indicator.Round(cumulativePnL, 2),
					})
				}

			case sig.Type == model.SignalSell && position >= 0:
				if position > 0 {
					pnl := (price - entryPrice) * float64(shares)
					cumulativePnL += pnl
					cash += float64(shares) * price
					tradeLog = append(tradeLog, model.TradeRecord{
						Date:          bar.Date,
						Type:          model.TradeSell,
						Price:         indicator.Round(price, 2),
						Quantity:      shares,
						PnL:           indicator.Round(pnl, 2),
						CumulativePnL: indicator.Round(cumulativePnL, 2),
					})
					shares = 0
					position = 0
					entryPrice = 0
				}
			}
		}

		positionValue := 0.0
		if position == 1 {
			positionValue = float64(shares) * price
		}
		equity = append(equity, model.EquityPoint{
			Date:          bar.Date,
			Value:         indicator.Round(cash+positionValue, 2),
			Cash:          indicator.Round(cash, 2),
			PositionValue: indicator.Round(positionValue, 2),
		})
	}

	// Force-close whatever is still open at the final bar.
	if position == 1 && shares > 0 {
		finalPrice := bars[len(bars)-1].Close
		pnl := (finalPrice - entryPrice) * float64(shares)
		cumulativePnL += pnl
		cash += float64(shares) * finalPrice
		tradeLog = append(tradeLog, model.TradeRecord{
			Date:          bars[len(bars)-1].Date,
			Type:          model.TradeClose,
			Price:         indicator.Round(finalPrice, 2),
			Quantity:      shares,
			PnL:           indicator.Round(pnl, 2),
			CumulativePnL: indicator.Round(cumulativePnL, 2),
		})
	}

	eqValues := make([]float64, len(equity))
	for i, e := range equity {
		eqValues[i] = e.Value
	}

	return model.BacktestResult{
		EquityCurve:    equity,
		TradeLog:       tradeLog,
		Metrics:        computeMetrics(eqValues, tradeLog, initialCapital),
		InitialCapital: initialCapital,
		FinalValue:     indicator.Round(cash, 2),
		TotalReturnPct: indicator.Round((cash-initialCapital)/initialCapital*100, 2),
	}
}
