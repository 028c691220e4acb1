package backtest

import (
	"math"
	"testing"

	"quant-terminal/internal/model"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func fixtureBars() []model.Bar {
	closes := []float64{100, 110, 105, 120}
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Date:  "2024-01-0" + string(rune('1'+i)),
			Open:  c, High: c + 1, Low: c - 1, Close: c, Volume: 1000,
		}
	}
	return bars
}

func TestRun_NoSignals(t *testing.T) {
	res := Run(fixtureBars(), nil, DefaultInitialCapital)
	if res.FinalValue != DefaultInitialCapital {
		t.Errorf("final value = %.2f, want initial capital", res.FinalValue)
	}
	if res.TotalReturnPct != 0 {
		t.Errorf("return = %.2f, want 0", res.TotalReturnPct)
	}
	if len(res.EquityCurve) != 0 || len(res.TradeLog) != 0 {
		t.Errorf("expected empty curve and log, got %d/%d points", len(res.EquityCurve), len(res.TradeLog))
	}
	if res.Metrics.Verdict != "No trades executed" {
		t.Errorf("verdict = %q", res.Metrics.Verdict)
	}
}

func TestRun_RoundTrip(t *testing.T) {
	// BUY at 100: 95% of 100k buys 950 shares, cash 5000.
	// SELL at 105: pnl (105-100)*950 = 4750, cash 104750.
	bars := fixtureBars()
	signals := []model.Signal{
		{Date: bars[0].Date, Type: model.SignalBuy, Price: 100},
		{Date: bars[2].Date, Type: model.SignalSell, Price: 105},
	}
	res := Run(bars, signals, DefaultInitialCapital)

	if len(res.TradeLog) != 2 {
		t.Fatalf("trade log = %d entries, want 2: %+v", len(res.TradeLog), res.TradeLog)
	}
	buy, sell := res.TradeLog[0], res.TradeLog[1]
	if buy.Type != model.TradeBuy || buy.Quantity != 950 || buy.Price != 100 {
		t.Errorf("buy entry = %+v", buy)
	}
	if sell.Type != model.TradeSell || sell.Quantity != 950 {
		t.Errorf("sell entry = %+v", sell)
	}
	assertClose(t, "sell pnl", sell.PnL, 4750, 1e-9)
	assertClose(t, "cumulative pnl", sell.CumulativePnL, 4750, 1e-9)

	if len(res.EquityCurve) != len(bars) {
		t.Fatalf("equity curve = %d points, want %d", len(res.EquityCurve), len(bars))
	}
	assertClose(t, "equity day1", res.EquityCurve[0].Value, 100000, 1e-9)
	assertClose(t, "equity day2", res.EquityCurve[1].Value, 109500, 1e-9)
	assertClose(t, "equity day3", res.EquityCurve[2].Value, 104750, 1e-9)

	assertClose(t, "final value", res.FinalValue, 104750, 1e-9)
	assertClose(t, "total return", res.TotalReturnPct, 4.75, 1e-9)

	// Final value always matches the last mark-to-market point once flat.
	assertClose(t, "conservation", res.FinalValue, res.EquityCurve[len(res.EquityCurve)-1].Value, 1e-9)

	m := res.Metrics
	if m.TotalTrades != 1 {
		t.Errorf("total trades = %d, want 1", m.TotalTrades)
	}
	assertClose(t, "win rate", m.WinRate, 1, 1e-9)
	assertClose(t, "avg win", m.AvgWin, 4750, 1e-9)
	assertClose(t, "profit factor", m.ProfitFactor, 999, 1e-9)
	if m.RiskLevel != model.RiskLow {
		t.Errorf("risk level = %q, want LOW (max dd %.2f)", m.RiskLevel, m.MaxDrawdown)
	}
	if m.SharpeRatio <= 1 {
		t.Errorf("sharpe = %.3f, expected > 1 on this curve", m.SharpeRatio)
	}
	assertClose(t, "confidence cap", m.Confidence, 0.9, 1e-9)
}

func TestRun_ForcedCloseAtEnd(t *testing.T) {
	bars := fixtureBars()
	signals := []model.Signal{
		{Date: bars[1].Date, Type: model.SignalBuy, Price: 110},
	}
	res := Run(bars, signals, DefaultInitialCapital)

	last := res.TradeLog[len(res.TradeLog)-1]
	if last.Type != model.TradeClose {
		t.Fatalf("last entry = %s, want CLOSE", last.Type)
	}
	if last.Date != bars[3].Date {
		t.Errorf("close date = %s, want final bar", last.Date)
	}
	// 95% of 100k at 110 buys 863 shares; close at 120: pnl 863*10 = 8630.
	if last.Quantity != 863 {
		t.Errorf("quantity = %d, want 863", last.Quantity)
	}
	assertClose(t, "close pnl", last.PnL, 8630, 1e-9)
}

func TestRun_SellWhileFlatIsIgnored(t *testing.T) {
	// No short entry exists: a SELL with no open long leaves the portfolio
	// untouched.
	bars := fixtureBars()
	signals := []model.Signal{
		{Date: bars[1].Date, Type: model.SignalSell, Price: 110},
	}
	res := Run(bars, signals, DefaultInitialCapital)
	if len(res.TradeLog) != 0 {
		t.Fatalf("trade log = %+v, want empty", res.TradeLog)
	}
	assertClose(t, "final value", res.FinalValue, DefaultInitialCapital, 1e-9)
	for _, p := range res.EquityCurve {
		assertClose(t, "flat equity "+p.Date, p.Value, DefaultInitialCapital, 1e-9)
	}
}

func TestRun_RepeatedBuysDoNotPyramid(t *testing.T) {
	// A second BUY while long is skipped; position sizing happens once.
	bars := fixtureBars()
	signals := []model.Signal{
		{Date: bars[0].Date, Type: model.SignalBuy, Price: 100},
		{Date: bars[1].Date, Type: model.SignalBuy, Price: 110},
	}
	res := Run(bars, signals, DefaultInitialCapital)
	buys := 0
	for _, tr := range res.TradeLog {
		if tr.Type == model.TradeBuy {
			buys++
		}
	}
	if buys != 1 {
		t.Errorf("buy entries = %d, want 1", buys)
	}
}
