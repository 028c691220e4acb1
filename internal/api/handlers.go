package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"quant-terminal/internal/backtest"
	"quant-terminal/internal/marketdata"
	"quant-terminal/internal/model"
	"quant-terminal/internal/strategy"
)

// runRequest is the body of POST /api/v1/run.
type runRequest struct {
	Ticker   string             `json:"ticker"`
	Strategy string             `json:"strategy"`
	Period   string             `json:"period"`
	Interval string             `json:"interval"`
	Params   map[string]float64 `json:"params"`
}

// backtestRequest is the body of POST /api/v1/backtest. InitialCapital is a
// pointer so an omitted field and an explicit zero are distinguishable.
type backtestRequest struct {
	runRequest
	InitialCapital *float64 `json:"initial_capital"`
}

// runResponse is the body of a successful POST /api/v1/run.
type runResponse struct {
	Ticker        string              `json:"ticker"`
	Strategy      string              `json:"strategy"`
	Signals       []model.Signal      `json:"signals"`
	Metrics       model.Metrics       `json:"metrics"`
	IndicatorData model.IndicatorData `json:"indicator_data"`
}

// backtestResponse is the body of a successful POST /api/v1/backtest.
type backtestResponse struct {
	Ticker   string `json:"ticker"`
	Strategy string `json:"strategy"`
	model.BacktestResult
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handlers) listStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"strategies": h.registry.List()})
}

// decodeRun parses and normalizes the shared run/backtest body fields.
// Returns false after writing the error response.
func (h *Handlers) decodeRun(w http.ResponseWriter, r *http.Request, req *runRequest) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	if req.Ticker == "" || req.Strategy == "" {
		writeError(w, http.StatusBadRequest, "ticker and strategy are required")
		return false
	}
	if req.Period == "" {
		req.Period = "6mo"
	}
	if req.Interval == "" {
		req.Interval = "1d"
	}
	return true
}

// fetchBars loads history and maps the error taxonomy onto HTTP statuses.
// Returns nil after writing the error response.
func (h *Handlers) fetchBars(w http.ResponseWriter, r *http.Request, req *runRequest) []model.Bar {
	bars, err := h.provider.History(r.Context(), req.Ticker, req.Period, req.Interval)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			writeError(w, http.StatusNotFound, "No data found for "+req.Ticker)
			return nil
		}
		h.log.Error("history fetch failed", "ticker", req.Ticker, "err", err)
		writeError(w, http.StatusInternalServerError, "data fetch failed")
		return nil
	}
	return bars
}

func (h *Handlers) runStrategy(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !h.decodeRun(w, r, &req) {
		return
	}
	bars := h.fetchBars(w, r, &req)
	if bars == nil {
		h.countRun(req.Strategy, "error")
		return
	}

	start := time.Now()
	result, err := h.registry.Run(req.Strategy, bars, req.Params)
	if err != nil {
		h.countRun(req.Strategy, "error")
		if errors.Is(err, strategy.ErrUnknownStrategy) {
			writeError(w, http.StatusBadRequest, "Unknown strategy: "+req.Strategy)
			return
		}
		h.log.Error("strategy run failed", "strategy", req.Strategy, "err", err)
		writeError(w, http.StatusInternalServerError, "Strategy execution failed")
		return
	}
	if h.prom != nil {
		h.prom.RunDuration.Observe(time.Since(start).Seconds())
	}
	h.countRun(req.Strategy, "ok")

	writeJSON(w, http.StatusOK, runResponse{
		Ticker:        req.Ticker,
		Strategy:      req.Strategy,
		Signals:       result.Signals,
		Metrics:       result.Metrics,
		IndicatorData: result.IndicatorData,
	})
}

func (h *Handlers) runBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	if req.Ticker == "" || req.Strategy == "" {
		writeError(w, http.StatusBadRequest, "ticker and strategy are required")
		return
	}
	if req.Period == "" {
		req.Period = "6mo"
	}
	if req.Interval == "" {
		req.Interval = "1d"
	}

	capital := backtest.DefaultInitialCapital
	if req.InitialCapital != nil {
		if *req.InitialCapital <= 0 {
			writeError(w, http.StatusBadRequest, "initial_capital must be > 0")
			return
		}
		capital = *req.InitialCapital
	}

	bars := h.fetchBars(w, r, &req.runRequest)
	if bars == nil {
		h.countBacktest(req.Strategy, "error")
		return
	}

	result, err := h.registry.Run(req.Strategy, bars, req.Params)
	if err != nil {
		h.countBacktest(req.Strategy, "error")
		if errors.Is(err, strategy.ErrUnknownStrategy) {
			writeError(w, http.StatusBadRequest, "Unknown strategy: "+req.Strategy)
			return
		}
		h.log.Error("backtest strategy run failed", "strategy", req.Strategy, "err", err)
		writeError(w, http.StatusInternalServerError, "Backtest failed")
		return
	}
	sim := backtest.Run(bars, result.Signals, capital)
	h.countBacktest(req.Strategy, "ok")

	writeJSON(w, http.StatusOK, backtestResponse{
		Ticker:         req.Ticker,
		Strategy:       req.Strategy,
		BacktestResult: sim,
	})
}

func (h *Handlers) countRun(key, outcome string) {
	if h.prom != nil {
		h.prom.RunsTotal.WithLabelValues(key, outcome).Inc()
	}
}

func (h *Handlers) countBacktest(key, outcome string) {
	if h.prom != nil {
		h.prom.BacktestsTotal.WithLabelValues(key, outcome).Inc()
	}
}
