package model

// SignalType is the direction of a trade signal.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// Signal is a directional trade recommendation tied to a specific bar.
// Price is always that bar's close.
type Signal struct {
	Date  string     `json:"date"`
	Type  SignalType `json:"type"`
	Price float64    `json:"price"`
	Label string     `json:"label,omitempty"`
}

// Metrics holds derived strategy performance statistics. Never persisted;
// recomputed per request.
type Metrics struct {
	SharpeRatio          float64 `json:"sharpe_ratio"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	WinRate              float64 `json:"win_rate"`
	TotalTrades          int     `json:"total_trades"`
	ProfitFactor         float64 `json:"profit_factor"`
	AvgWin               float64 `json:"avg_win"`
	AvgLoss              float64 `json:"avg_loss"`
	RiskLevel            string  `json:"risk_level"`
	Confidence           float64 `json:"confidence"`
	Verdict              string  `json:"verdict"`
	SuggestedPositionPct float64 `json:"suggested_position_pct"`
}

// Risk level bands reported in Metrics.RiskLevel.
const (
	RiskLow      = "LOW"
	RiskModerate = "MODERATE"
	RiskHigh     = "HIGH"
)

// StrategyResult is the atomic unit returned by a strategy executor.
type StrategyResult struct {
	Signals       []Signal      `json:"signals"`
	Metrics       Metrics       `json:"metrics"`
	IndicatorData IndicatorData `json:"indicator_data"`
}

// TradeType classifies a backtest trade log entry.
type TradeType string

const (
	TradeBuy   TradeType = "BUY"
	TradeSell  TradeType = "SELL"
	TradeCover TradeType = "COVER"
	TradeClose TradeType = "CLOSE"
)

// TradeRecord is one executed trade in a backtest log.
type TradeRecord struct {
	Date          string    `json:"date"`
	Type          TradeType `json:"type"`
	Price         float64   `json:"price"`
	Quantity      int64     `json:"quantity"`
	PnL           float64   `json:"pnl"`
	CumulativePnL float64   `json:"cumulative_pnl"`
}

// EquityPoint is the mark-to-market portfolio value at one bar.
type EquityPoint struct {
	Date          string  `json:"date"`
	Value         float64 `json:"value"`
	Cash          float64 `json:"cash"`
	PositionValue float64 `json:"position_value"`
}

// BacktestResult is the full output of a portfolio simulation.
type BacktestResult struct {
	EquityCurve    []EquityPoint `json:"equity_curve"`
	TradeLog       []TradeRecord `json:"trade_log"`
	Metrics        Metrics       `json:"metrics"`
	InitialCapital float64       `json:"initial_capital"`
	FinalValue     float64       `json:"final_value"`
	TotalReturnPct float64       `json:"total_return_pct"`
}
