package indicator

import (
	"math"
	"testing"

	"quant-terminal/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func assertSeriesClose(t *testing.T, label string, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d, want %d", label, len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("%s[%d]: got %.6f, want %.6f", label, i, got[i], want[i])
		}
	}
}

// ────────────────────────────────────────────────────────────
// SMA
// ────────────────────────────────────────────────────────────

func TestSMA_GrowingWindow(t *testing.T) {
	// Closes: 100, 102, 101, 105, 103 with period 2.
	// Position 0 uses a one-sample window:
	//   [100, (100+102)/2, (102+101)/2, (101+105)/2, (105+103)/2]
	got := SMA([]float64{100, 102, 101, 105, 103}, 2)
	want := []float64{100, 101, 101.5, 103, 104}
	assertSeriesClose(t, "SMA(2)", got, want, 1e-9)
}

func TestSMA_WindowSlides(t *testing.T) {
	// Prices 10..16, SMA(5):
	//   index 4: (10+11+12+13+14)/5 = 12
	//   index 5: (11+12+13+14+15)/5 = 13
	//   index 6: (12+13+14+15+16)/5 = 14
	got := SMA([]float64{10, 11, 12, 13, 14, 15, 16}, 5)
	assertClose(t, "SMA(5) idx4", got[4], 12, 1e-9)
	assertClose(t, "SMA(5) idx5", got[5], 13, 1e-9)
	assertClose(t, "SMA(5) idx6", got[6], 14, 1e-9)
}

func TestSMA_SameLength(t *testing.T) {
	x := []float64{1, 2, 3}
	if got := SMA(x, 10); len(got) != len(x) {
		t.Fatalf("SMA length %d, want %d", len(got), len(x))
	}
}

// ────────────────────────────────────────────────────────────
// EMA
// ────────────────────────────────────────────────────────────

func TestEMA_Period1_IsIdentity(t *testing.T) {
	// α = 2/(1+1) = 1, so the EMA degenerates to the raw series.
	x := []float64{100, 102, 99.5, 107, 103.25}
	assertSeriesClose(t, "EMA(1)", EMA(x, 1), x, 1e-12)
}

func TestEMA_SeededWithFirstSample(t *testing.T) {
	// EMA(3): α = 0.5, seeded with x[0]=100.
	//   idx1: 100 + 0.5*(102-100) = 101
	//   idx2: 101 + 0.5*(104-101) = 102.5
	got := EMA([]float64{100, 102, 104}, 3)
	want := []float64{100, 101, 102.5}
	assertSeriesClose(t, "EMA(3)", got, want, 1e-9)
}

// ────────────────────────────────────────────────────────────
// ATR
// ────────────────────────────────────────────────────────────

func TestTrueRange_FirstBarUsesHighLow(t *testing.T) {
	bars := []model.Bar{
		{High: 105, Low: 100, Close: 102},
		{High: 104, Low: 101, Close: 103},
	}
	tr := TrueRange(bars)
	assertClose(t, "TR[0]", tr[0], 5, 1e-9) // no previous close
	// TR[1] = max(104-101, |104-102|, |101-102|) = 3
	assertClose(t, "TR[1]", tr[1], 3, 1e-9)
}

func TestTrueRange_GapDominates(t *testing.T) {
	bars := []model.Bar{
		{High: 100, Low: 99, Close: 100},
		{High: 110, Low: 108, Close: 109}, // gap up: |110-100| wins
	}
	tr := TrueRange(bars)
	assertClose(t, "TR gap", tr[1], 10, 1e-9)
}

func TestATR_SameLength(t *testing.T) {
	bars := []model.Bar{
		{High: 10, Low: 9, Close: 9.5},
		{High: 11, Low: 9.5, Close: 10.5},
		{High: 12, Low: 10, Close: 11},
	}
	if got := ATR(bars, 14); len(got) != len(bars) {
		t.Fatalf("ATR length %d, want %d", len(got), len(bars))
	}
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_ConstantSeriesIs100(t *testing.T) {
	x := make([]float64, 20)
	for i := range x {
		x[i] = 50
	}
	for i, v := range RSI(x, 14) {
		if v != 100 {
			t.Errorf("RSI[%d] = %.4f, want 100 for constant series", i, v)
		}
	}
}

func TestRSI_AlwaysWithinBounds(t *testing.T) {
	x := []float64{100, 97, 103, 101, 99, 104, 108, 102, 98, 95, 110, 111, 90, 120}
	for i, v := range RSI(x, 5) {
		if v < 0 || v > 100 {
			t.Errorf("RSI[%d] = %.4f out of [0,100]", i, v)
		}
	}
}

func TestRSI_MonotonicUp_PinsAt100(t *testing.T) {
	x := make([]float64, 30)
	for i := range x {
		x[i] = 100 + float64(i)
	}
	rsi := RSI(x, 14)
	// No losses anywhere, so every position is the avg_loss=0 special case.
	for i, v := range rsi {
		if v != 100 {
			t.Errorf("RSI[%d] = %.4f, want 100 on monotonic rise", i, v)
		}
	}
}

func TestRSI_HandCalculated(t *testing.T) {
	// Deltas: +2, -1, +3 with period 14 (growing window).
	// idx1: gain=2/2, loss=0     → avg_loss=0 → 100
	// idx2: gain=2/3, loss=1/3   → rs=2 → 100-100/3 = 66.6667
	// idx3: gain=5/4, loss=1/4   → rs=5 → 100-100/6 = 83.3333
	rsi := RSI([]float64{100, 102, 101, 104}, 14)
	assertClose(t, "RSI idx1", rsi[1], 100, 1e-6)
	assertClose(t, "RSI idx2", rsi[2], 66.666667, 1e-4)
	assertClose(t, "RSI idx3", rsi[3], 83.333333, 1e-4)
}

// ────────────────────────────────────────────────────────────
// Bollinger
// ────────────────────────────────────────────────────────────

func TestBollinger_SingleSampleCollapsesToMid(t *testing.T) {
	mid, upper, lower := Bollinger([]float64{100, 102}, 20, 2)
	assertClose(t, "upper[0]", upper[0], mid[0], 1e-12)
	assertClose(t, "lower[0]", lower[0], mid[0], 1e-12)
}

func TestBollinger_ConstantSeriesCollapses(t *testing.T) {
	x := make([]float64, 20)
	for i := range x {
		x[i] = 250
	}
	mid, upper, lower := Bollinger(x, 20, 2)
	for i := range x {
		assertClose(t, "mid", mid[i], 250, 1e-12)
		assertClose(t, "upper", upper[i], 250, 1e-12)
		assertClose(t, "lower", lower[i], 250, 1e-12)
	}
}

func TestRollingStd_SampleVariance(t *testing.T) {
	// Window [2,4,6]: mean 4, sum sq 8, sample var 4, std 2.
	got := RollingStd([]float64{2, 4, 6}, 3)
	assertClose(t, "std idx2", got[2], 2, 1e-9)
	assertClose(t, "std idx0", got[0], 0, 1e-12)
}

// ────────────────────────────────────────────────────────────
// Rolling helpers
// ────────────────────────────────────────────────────────────

func TestRollingMinMax(t *testing.T) {
	x := []float64{5, 3, 8, 1, 9}
	maxs := RollingMax(x, 3)
	mins := RollingMin(x, 3)
	assertSeriesClose(t, "RollingMax(3)", maxs, []float64{5, 5, 8, 8, 9}, 1e-12)
	assertSeriesClose(t, "RollingMin(3)", mins, []float64{5, 3, 3, 1, 1}, 1e-12)
}

func TestQuantile_LinearInterpolation(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	assertClose(t, "median", Quantile(x, 0.5), 2.5, 1e-12)
	assertClose(t, "q0.33", Quantile(x, 0.33), 1.99, 1e-9)
	assertClose(t, "q0", Quantile(x, 0), 1, 1e-12)
	assertClose(t, "q1", Quantile(x, 1), 4, 1e-12)
}

func TestQuantile_IgnoresNaN(t *testing.T) {
	x := []float64{math.NaN(), 10, 20}
	assertClose(t, "median with NaN", Quantile(x, 0.5), 15, 1e-12)
}

func TestPctChange_ZeroBase(t *testing.T) {
	got := PctChange([]float64{0, 5, 10}, 1)
	assertClose(t, "pct[0]", got[0], 0, 1e-12)
	assertClose(t, "pct[1]", got[1], 0, 1e-12) // zero base guarded
	assertClose(t, "pct[2]", got[2], 1, 1e-12)
}
