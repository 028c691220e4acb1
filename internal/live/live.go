// Package live streams near-real-time quotes over WebSocket. Prices are
// server-push polled from the market data provider on a fixed interval;
// the client can retarget the stream or end it with small JSON actions.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"quant-terminal/internal/marketdata"
	"quant-terminal/internal/metrics"

	"github.com/gorilla/websocket"
)

// DefaultPollInterval is how often a quote is fetched and pushed.
const DefaultPollInterval = 5 * time.Second

const (
	writeTimeout = 10 * time.Second
	readLimit    = 1024
)

// control is a client-to-server action frame.
type control struct {
	Action string `json:"action"`
	Ticker string `json:"ticker"`
}

// errPayload is pushed when a quote fetch fails; the stream stays open.
type errPayload struct {
	Error  string `json:"error"`
	Ticker string `json:"ticker"`
}

// Handler upgrades /api/v1/ws/live/{ticker} connections and runs the
// quote push loop.
type Handler struct {
	provider marketdata.Provider
	poll     time.Duration
	log      *slog.Logger
	prom     *metrics.Metrics
	upgrader websocket.Upgrader
}

// NewHandler builds the live quote handler. A poll <= 0 falls back to
// DefaultPollInterval; prom may be nil.
func NewHandler(provider marketdata.Provider, poll time.Duration, log *slog.Logger, prom *metrics.Metrics) *Handler {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Handler{
		provider: provider,
		poll:     poll,
		log:      log,
		prom:     prom,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles GET /api/v1/ws/live/{ticker}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(r.PathValue("ticker")))
	if ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("live ws upgrade failed", "err", err)
		return
	}

	if h.prom != nil {
		h.prom.LiveClients.Inc()
		defer h.prom.LiveClients.Dec()
	}
	h.log.Info("live ws client connected", "ticker", ticker)

	s := &session{
		handler: h,
		conn:    conn,
		ticker:  ticker,
		ctrl:    make(chan control, 4),
		done:    make(chan struct{}),
	}
	go s.readPump()
	s.writeLoop()

	h.log.Info("live ws client disconnected", "ticker", s.ticker)
}

// session is one connected live stream.
type session struct {
	handler *Handler
	conn    *websocket.Conn
	ticker  string
	ctrl    chan control
	done    chan struct{}
}

// readPump consumes client action frames until the peer goes away.
// Unparseable frames are ignored.
func (s *session) readPump() {
	defer close(s.done)

	s.conn.SetReadLimit(readLimit)
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var c control
		if json.Unmarshal(msg, &c) != nil {
			continue
		}
		switch c.Action {
		case "change_ticker":
			if c.Ticker != "" {
				select {
				case s.ctrl <- c:
				default:
				}
			}
		case "close":
			return
		}
	}
}

// writeLoop pushes one quote immediately, then one per poll interval,
// retargeting when the client changes ticker.
func (s *session) writeLoop() {
	defer s.conn.Close()

	tick := time.NewTicker(s.handler.poll)
	defer tick.Stop()

	if !s.pushQuote() {
		return
	}
	for {
		select {
		case <-s.done:
			return
		case c := <-s.ctrl:
			s.ticker = strings.ToUpper(strings.TrimSpace(c.Ticker))
			if !s.pushQuote() {
				return
			}
			tick.Reset(s.handler.poll)
		case <-tick.C:
			if !s.pushQuote() {
				return
			}
		}
	}
}

// pushQuote fetches and writes one quote frame. A fetch failure becomes an
// error frame; only a write failure ends the session.
func (s *session) pushQuote() bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.handler.poll)
	quote, err := s.handler.provider.Quote(ctx, s.ticker)
	cancel()

	var payload any = quote
	if err != nil {
		if !errors.Is(err, marketdata.ErrNoData) {
			s.handler.log.Warn("live quote fetch failed", "ticker", s.ticker, "err", err)
		}
		payload = errPayload{Error: "Failed to fetch data for " + s.ticker, Ticker: s.ticker}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return false
	}
	if s.handler.prom != nil {
		s.handler.prom.LiveQuotesSent.Inc()
	}
	return true
}
