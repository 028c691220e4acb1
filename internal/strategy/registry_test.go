package strategy

import (
	"encoding/json"
	"errors"
	"testing"

	"quant-terminal/internal/model"
)

func TestRegistry_ListsAllStrategiesInOrder(t *testing.T) {
	r := NewRegistry()
	infos := r.List()
	if len(infos) != 20 {
		t.Fatalf("registry size = %d, want 20", len(infos))
	}
	if infos[0].Key != "ma_crossover" {
		t.Errorf("first key = %q, want ma_crossover", infos[0].Key)
	}
	if infos[len(infos)-1].Key != "gbm_proxy" {
		t.Errorf("last key = %q, want gbm_proxy", infos[len(infos)-1].Key)
	}
	for _, info := range infos {
		if info.Name == "" || info.Category == "" || info.Description == "" {
			t.Errorf("%s: incomplete metadata %+v", info.Key, info)
		}
	}
}

func TestRegistry_UnknownStrategy(t *testing.T) {
	r := NewRegistry()
	_, err := r.Run("no_such_strategy", mkBars(100, 101), nil)
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("err = %v, want ErrUnknownStrategy", err)
	}
	_, err = r.Steps("no_such_strategy", mkBars(100, 101), nil)
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("Steps err = %v, want ErrUnknownStrategy", err)
	}
}

func TestRegistry_ParamOverrides(t *testing.T) {
	r := NewRegistry()
	merged, err := r.Merged("ma_crossover", map[string]float64{"fast_period": 5})
	if err != nil {
		t.Fatal(err)
	}
	if got := merged.Int("fast_period", 0); got != 5 {
		t.Errorf("fast_period = %d, want 5", got)
	}
	if got := merged.Int("slow_period", 0); got != 30 {
		t.Errorf("slow_period = %d, want default 30", got)
	}
}

func TestMACrossover_DetectsCrossings(t *testing.T) {
	// fast_period 1 makes the fast line the raw closes; slow is SMA(2).
	// closes [10, 9, 12]: fast [10, 9, 12], slow [10, 9.5, 10.5].
	// Bar 1: fast drops below slow → SELL. Bar 2: fast rises above → BUY.
	r := NewRegistry()
	res, err := r.Run("ma_crossover", mkBars(10, 9, 12),
		map[string]float64{"fast_period": 1, "slow_period": 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Signals) != 2 {
		t.Fatalf("signals = %d, want 2: %+v", len(res.Signals), res.Signals)
	}
	if res.Signals[0].Type != model.SignalSell || res.Signals[0].Price != 9 {
		t.Errorf("first signal = %+v, want SELL@9", res.Signals[0])
	}
	if res.Signals[1].Type != model.SignalBuy || res.Signals[1].Price != 12 {
		t.Errorf("second signal = %+v, want BUY@12", res.Signals[1])
	}
	if _, ok := res.IndicatorData["fast_sma"]; !ok {
		t.Error("indicator_data missing fast_sma")
	}
	if _, ok := res.IndicatorData["slow_sma"]; !ok {
		t.Error("indicator_data missing slow_sma")
	}
}

func TestRSIStrategy_MonotonicRiseSellsOnce(t *testing.T) {
	// A monotonic rise pins RSI at 100. The first scanned bar fires SELL and
	// flips the position short; no further signal is possible.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	r := NewRegistry()
	res, err := r.Run("rsi_strategy", mkBars(closes...), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Signals) != 1 {
		t.Fatalf("signals = %d, want 1: %+v", len(res.Signals), res.Signals)
	}
	if res.Signals[0].Type != model.SignalSell {
		t.Errorf("signal type = %s, want SELL", res.Signals[0].Type)
	}
	if res.Signals[0].Date != barDate(14) {
		t.Errorf("signal date = %s, want %s", res.Signals[0].Date, barDate(14))
	}
}

func TestBollingerReversion_ConstantSeriesAlternates(t *testing.T) {
	// On a constant series the bands collapse to the close, so every scanned
	// bar touches both bands and the position flips each bar. Every round
	// trip is flat.
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}
	r := NewRegistry()
	res, err := r.Run("bollinger_reversion", mkBars(closes...), nil)
	if err != nil {
		t.Fatal(err)
	}
	// Bars 20..24 alternate BUY, SELL, BUY, SELL, BUY.
	if len(res.Signals) != 5 {
		t.Fatalf("signals = %d, want 5", len(res.Signals))
	}
	for i, s := range res.Signals {
		want := model.SignalBuy
		if i%2 == 1 {
			want = model.SignalSell
		}
		if s.Type != want {
			t.Errorf("signal[%d] = %s, want %s", i, s.Type, want)
		}
	}
	if res.Metrics.TotalTrades != 2 {
		t.Errorf("total trades = %d, want 2", res.Metrics.TotalTrades)
	}
	assertClose(t, "win_rate", res.Metrics.WinRate, 0, 1e-9)
}

func TestBollingerReversion_ZeroPricesEncodeAsJSON(t *testing.T) {
	// All-zero closes collapse the bands onto a zero middle. The bandwidth
	// scalar must come out 0 rather than a non-finite value, which
	// json.Marshal would reject when encoding the final event.
	closes := make([]float64, 25)
	r := NewRegistry()
	seq, err := r.Steps("bollinger_reversion", mkBars(closes...), nil)
	if err != nil {
		t.Fatal(err)
	}
	var last model.StepEvent
	for ev := range seq {
		last = ev
	}
	if !last.Final {
		t.Fatal("sequence ended without a final event")
	}
	bw, ok := last.Output["bandwidth_pct"].(float64)
	if !ok || bw != 0 {
		t.Errorf("bandwidth_pct = %v, want 0 on a zero middle band", last.Output["bandwidth_pct"])
	}
	if _, err := json.Marshal(last); err != nil {
		t.Errorf("final event does not encode: %v", err)
	}
}

func TestVolumeSpike_LabelsSignals(t *testing.T) {
	bars := mkBars(make([]float64, 25)...)
	for i := range bars {
		bars[i].Close = 100
		bars[i].Volume = 1000
	}
	bars[22].Close = 105 // up bar
	bars[22].Volume = 5000
	r := NewRegistry()
	res, err := r.Run("volume_spike", bars, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Signals) != 1 {
		t.Fatalf("signals = %d, want 1: %+v", len(res.Signals), res.Signals)
	}
	s := res.Signals[0]
	if s.Type != model.SignalBuy {
		t.Errorf("type = %s, want BUY on positive price change", s.Type)
	}
	if s.Label == "" {
		t.Error("spike signal should carry a magnitude label")
	}
}

func TestSupertrend_FirstBarHasNoValue(t *testing.T) {
	r := NewRegistry()
	res, err := r.Run("supertrend", mkBars(100, 101, 102, 103), nil)
	if err != nil {
		t.Fatal(err)
	}
	st := res.IndicatorData["supertrend"]
	if len(st) != 4 {
		t.Fatalf("supertrend length = %d, want 4", len(st))
	}
	if st[0] == st[0] { // NaN is the only value that fails self-equality
		t.Errorf("supertrend[0] = %v, want NaN", st[0])
	}
}

func TestSteps_BatchAndStreamAgree(t *testing.T) {
	// The batch executor for custom-step strategies drains the same sequence
	// the stream serves, so the final event must match Run exactly.
	closes := []float64{100, 102, 99, 104, 98, 107, 101, 110, 96, 112,
		103, 108, 99, 111, 105, 109, 97, 113, 102, 115}
	bars := mkBars(closes...)
	r := NewRegistry()

	for _, key := range []string{"ma_crossover", "rsi_strategy", "kalman_filter", "gbm_proxy"} {
		seq, err := r.Steps(key, bars, nil)
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		var last model.StepEvent
		count := 0
		for ev := range seq {
			count++
			last = ev
			if ev.Step != count {
				t.Errorf("%s: step %d out of order (event %d)", key, ev.Step, count)
			}
		}
		if !last.Final {
			t.Errorf("%s: last event not final", key)
		}
		if last.Progress != 100 {
			t.Errorf("%s: final progress = %d", key, last.Progress)
		}

		batch, err := r.Run(key, bars, nil)
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		if batch.Metrics != last.Result().Metrics {
			t.Errorf("%s: batch metrics diverge from final step", key)
		}
		if len(batch.Signals) != len(last.Result().Signals) {
			t.Errorf("%s: batch signals %d, stream %d", key, len(batch.Signals), len(last.Result().Signals))
		}
	}
}

func TestSteps_GenericFallback(t *testing.T) {
	r := NewRegistry()
	if r.HasCustomSteps("supertrend") {
		t.Fatal("supertrend should use the generic sequence")
	}
	seq, err := r.Steps("supertrend", mkBars(100, 101, 102, 103, 104), nil)
	if err != nil {
		t.Fatal(err)
	}
	var events []model.StepEvent
	for ev := range seq {
		events = append(events, ev)
	}
	if len(events) != 4 {
		t.Fatalf("generic sequence length = %d, want 4", len(events))
	}
	final := events[3]
	if !final.Final || final.Metrics == nil {
		t.Errorf("final event incomplete: %+v", final)
	}
	if final.OutputType != "generic" {
		t.Errorf("output_type = %q, want generic", final.OutputType)
	}
}

func TestSteps_EarlyStop(t *testing.T) {
	r := NewRegistry()
	seq, err := r.Steps("ma_crossover", mkBars(100, 101, 102), nil)
	if err != nil {
		t.Fatal(err)
	}
	seen := 0
	for range seq {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Fatalf("consumed %d events, want 2", seen)
	}
}
