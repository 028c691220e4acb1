// Package marketdata supplies OHLCV bar history and point-in-time quotes.
//
// A Provider is the single boundary the rest of the service sees; the SQLite
// store is the canonical source and the Redis cache decorates any Provider
// with a read-through layer.
package marketdata

import (
	"context"
	"errors"
	"strings"

	"quant-terminal/internal/indicator"
	"quant-terminal/internal/model"
)

// ErrNoData is returned when a ticker has no bars for the requested range.
var ErrNoData = errors.New("no market data")

// Provider serves bar history and quotes for a ticker.
type Provider interface {
	// History returns bars ascending by date for the given lookback period
	// ("1mo", "6mo", "1y", ...) and bar interval ("1d", "1h", "1wk").
	History(ctx context.Context, ticker, period, interval string) ([]model.Bar, error)

	// Quote returns the latest snapshot for the ticker.
	Quote(ctx context.Context, ticker string) (model.Quote, error)
}

// periodBars maps a lookback period and interval to a bar count, assuming
// trading-calendar density (21 sessions/month, 6.5 hours/session).
func periodBars(period, interval string) int {
	months := 6
	switch strings.ToLower(period) {
	case "1mo":
		months = 1
	case "3mo":
		months = 3
	case "6mo":
		months = 6
	case "1y":
		months = 12
	case "2y":
		months = 24
	case "5y":
		months = 60
	case "max":
		return 0 // no limit
	}

	days := months * 21
	switch strings.ToLower(interval) {
	case "1h":
		return days * 7
	case "1wk":
		n := days / 5
		if n < 1 {
			n = 1
		}
		return n
	default: // 1d
		return days
	}
}

// Static is an in-memory Provider backed by fixed bar sets, used in tests and
// for seeding demo data.
type Static struct {
	Bars map[string][]model.Bar
}

// History returns the trailing slice of the ticker's fixed bars.
func (s *Static) History(_ context.Context, ticker, period, interval string) ([]model.Bar, error) {
	bars, ok := s.Bars[strings.ToUpper(ticker)]
	if !ok || len(bars) == 0 {
		return nil, ErrNoData
	}
	if limit := periodBars(period, interval); limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// Quote derives a snapshot from the ticker's last two bars.
func (s *Static) Quote(_ context.Context, ticker string) (model.Quote, error) {
	bars, ok := s.Bars[strings.ToUpper(ticker)]
	if !ok || len(bars) == 0 {
		return model.Quote{}, ErrNoData
	}
	return quoteFromBars(strings.ToUpper(ticker), bars), nil
}

// quoteFromBars builds a Quote from the last bar, with change measured
// against the prior close when one exists.
func quoteFromBars(ticker string, bars []model.Bar) model.Quote {
	last := bars[len(bars)-1]
	prevClose := last.Close
	if len(bars) > 1 {
		prevClose = bars[len(bars)-2].Close
	}
	q := model.Quote{
		Ticker:        ticker,
		Price:         last.Close,
		Open:          last.Open,
		High:          last.High,
		Low:           last.Low,
		Volume:        int64(last.Volume),
		PreviousClose: prevClose,
	}
	if prevClose != 0 {
		q.Change = indicator.Round(last.Close-prevClose, 2)
		q.ChangePct = indicator.Round((last.Close-prevClose)/prevClose*100, 2)
	}
	return q
}
