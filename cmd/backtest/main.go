// cmd/backtest runs a strategy and a portfolio simulation against the SQLite
// bar store without starting the HTTP service. Bars can be loaded from a CSV
// first with -load.
//
// Usage:
//
//	go run ./cmd/backtest -ticker=AAPL -strategy=ma_crossover -period=1y
//	go run ./cmd/backtest -load=bars.csv -ticker=AAPL -strategy=rsi_strategy
//
// CSV columns: date,open,high,low,close,volume (header row optional).
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"quant-terminal/internal/backtest"
	"quant-terminal/internal/marketdata"
	"quant-terminal/internal/model"
	"quant-terminal/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	dbPath := flag.String("db", "data/bars.db", "Path to SQLite bar database")
	ticker := flag.String("ticker", "", "Ticker symbol (required)")
	strategyKey := flag.String("strategy", "", "Strategy key (required; -list to see all)")
	period := flag.String("period", "6mo", "Lookback period (1mo, 3mo, 6mo, 1y, 2y, 5y, max)")
	interval := flag.String("interval", "1d", "Bar interval (1d, 1h, 1wk)")
	capital := flag.Float64("capital", backtest.DefaultInitialCapital, "Initial capital")
	paramsJSON := flag.String("params", "", "Strategy param overrides as JSON, e.g. '{\"fast_period\":10}'")
	loadCSV := flag.String("load", "", "Load bars from CSV into the store before running")
	list := flag.Bool("list", false, "List available strategies and exit")
	flag.Parse()

	registry := strategy.NewRegistry()
	if *list {
		for _, info := range registry.List() {
			fmt.Printf("%-22s %-24s %s\n", info.Key, info.Category, info.Name)
		}
		return
	}

	if *ticker == "" || *strategyKey == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *capital <= 0 {
		log.Fatal("[backtest] capital must be > 0")
	}

	var overrides map[string]float64
	if *paramsJSON != "" {
		if err := json.Unmarshal([]byte(*paramsJSON), &overrides); err != nil {
			log.Fatalf("[backtest] invalid -params JSON: %v", err)
		}
	}

	store, err := marketdata.OpenStore(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if *loadCSV != "" {
		bars, err := readBarsCSV(*loadCSV)
		if err != nil {
			log.Fatalf("[backtest] csv load failed: %v", err)
		}
		if err := store.WriteBars(ctx, *ticker, *interval, bars); err != nil {
			log.Fatalf("[backtest] bar write failed: %v", err)
		}
		log.Printf("[backtest] loaded %d bars for %s from %s", len(bars), strings.ToUpper(*ticker), *loadCSV)
	}

	bars, err := store.History(ctx, *ticker, *period, *interval)
	if err != nil {
		log.Fatalf("[backtest] history fetch failed: %v", err)
	}

	result, err := registry.Run(*strategyKey, bars, overrides)
	if err != nil {
		log.Fatalf("[backtest] strategy run failed: %v", err)
	}
	sim := backtest.Run(bars, result.Signals, *capital)

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║             BACKTEST COMPLETE                ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Ticker:        %-28s ║\n", strings.ToUpper(*ticker))
	fmt.Printf("║  Strategy:      %-28s ║\n", *strategyKey)
	fmt.Printf("║  Bars:          %-28d ║\n", len(bars))
	fmt.Printf("║  Signals:       %-28d ║\n", len(result.Signals))
	fmt.Printf("║  Trades:        %-28d ║\n", sim.Metrics.TotalTrades)
	fmt.Printf("║  Final value:   %-28.2f ║\n", sim.FinalValue)
	fmt.Printf("║  Return:        %-27.2f%% ║\n", sim.TotalReturnPct)
	fmt.Printf("║  Sharpe:        %-28.3f ║\n", sim.Metrics.SharpeRatio)
	fmt.Printf("║  Max drawdown:  %-27.2f%% ║\n", sim.Metrics.MaxDrawdown)
	fmt.Printf("║  Win rate:      %-28.3f ║\n", sim.Metrics.WinRate)
	fmt.Printf("║  Risk:          %-28s ║\n", sim.Metrics.RiskLevel)
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println(sim.Metrics.Verdict)
}

// readBarsCSV parses date,open,high,low,close,volume rows. A header row is
// detected by a non-numeric open column and skipped.
func readBarsCSV(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	var bars []model.Bar
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		open, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			if len(bars) == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("bad open %q on row %d", rec[1], len(bars)+1)
		}
		high, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, err
		}
		low, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, err
		}
		closePx, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, err
		}
		volume, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, err
		}
		bars = append(bars, model.Bar{
			Date: rec[0], Open: open, High: high, Low: low, Close: closePx, Volume: volume,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars in %s", path)
	}
	return bars, nil
}
