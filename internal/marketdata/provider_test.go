package marketdata

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"quant-terminal/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

func demoBars(n int) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = model.Bar{
			Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02"),
			Open: c, High: c + 2, Low: c - 2, Close: c, Volume: 1000,
		}
	}
	return bars
}

func TestPeriodBars(t *testing.T) {
	cases := []struct {
		period, interval string
		want             int
	}{
		{"1mo", "1d", 21},
		{"6mo", "1d", 126},
		{"1y", "1d", 252},
		{"1mo", "1h", 147},
		{"1y", "1wk", 50},
		{"max", "1d", 0},
		{"bogus", "1d", 126}, // unknown period defaults to 6mo
	}
	for _, c := range cases {
		if got := periodBars(c.period, c.interval); got != c.want {
			t.Errorf("periodBars(%s, %s) = %d, want %d", c.period, c.interval, got, c.want)
		}
	}
}

func TestStatic_HistoryTrailingWindow(t *testing.T) {
	p := &Static{Bars: map[string][]model.Bar{"ACME": demoBars(300)}}

	bars, err := p.History(context.Background(), "acme", "6mo", "1d")
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 126 {
		t.Fatalf("bars = %d, want 126", len(bars))
	}
	// Trailing window keeps the newest bars.
	if bars[len(bars)-1].Close != 399 {
		t.Errorf("last close = %.0f, want 399", bars[len(bars)-1].Close)
	}
}

func TestStatic_UnknownTicker(t *testing.T) {
	p := &Static{Bars: map[string][]model.Bar{}}
	if _, err := p.History(context.Background(), "NOPE", "6mo", "1d"); err != ErrNoData {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if _, err := p.Quote(context.Background(), "NOPE"); err != ErrNoData {
		t.Fatalf("quote err = %v, want ErrNoData", err)
	}
}

func TestStatic_QuoteChange(t *testing.T) {
	p := &Static{Bars: map[string][]model.Bar{"ACME": {
		{Date: "2024-01-01", Open: 99, High: 101, Low: 98, Close: 100, Volume: 500},
		{Date: "2024-01-02", Open: 100, High: 106, Low: 99, Close: 105, Volume: 800},
	}}}

	q, err := p.Quote(context.Background(), "ACME")
	if err != nil {
		t.Fatal(err)
	}
	if q.Ticker != "ACME" || q.Price != 105 {
		t.Errorf("quote = %+v", q)
	}
	if q.PreviousClose != 100 || q.Change != 5 || q.ChangePct != 5 {
		t.Errorf("change fields = %+v", q)
	}
}

func TestCache_FallsThroughWhenRedisDown(t *testing.T) {
	inner := &Static{Bars: map[string][]model.Bar{"ACME": demoBars(10)}}
	c := &Cache{
		inner: inner,
		client: goredis.NewClient(&goredis.Options{
			Addr:        "127.0.0.1:1", // nothing listens here
			DialTimeout: 20 * time.Millisecond,
			ReadTimeout: 20 * time.Millisecond,
			MaxRetries:  -1,
		}),
		ttl: time.Minute,
		log: slog.New(slog.NewTextHandler(testWriter{t}, nil)),
	}

	bars, err := c.History(context.Background(), "ACME", "1mo", "1d")
	if err != nil {
		t.Fatalf("cache should degrade to pass-through, got %v", err)
	}
	if len(bars) != 10 {
		t.Errorf("bars = %d, want 10", len(bars))
	}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
