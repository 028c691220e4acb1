package strategy

import "quant-terminal/internal/model"

// crossoverSignals emits BUY when fast crosses above slow and SELL when fast
// crosses below, scanning from the second bar.
func crossoverSignals(bars []model.Bar, fast, slow []float64) []model.Signal {
	var signals []model.Signal
	for i := 1; i < len(bars); i++ {
		if fast[i] > slow[i] && fast[i-1] <= slow[i-1] {
			signals = append(signals, model.Signal{Date: bars[i].Date, Type: model.SignalBuy, Price: bars[i].Close})
		} else if fast[i] < slow[i] && fast[i-1] >= slow[i-1] {
			signals = append(signals, model.Signal{Date: bars[i].Date, Type: model.SignalSell, Price: bars[i].Close})
		}
	}
	return signals
}

// levelCrossSignals emits BUY when x crosses above buyLevel and SELL when x
// crosses below sellLevel. Both levels may coincide (a single threshold).
func levelCrossSignals(bars []model.Bar, x []float64, buyLevel, sellLevel float64) []model.Signal {
	var signals []model.Signal
	for i := 1; i < len(bars); i++ {
		if x[i] > buyLevel && x[i-1] <= buyLevel {
			signals = append(signals, model.Signal{Date: bars[i].Date, Type: model.SignalBuy, Price: bars[i].Close})
		} else if x[i] < sellLevel && x[i-1] >= sellLevel {
			signals = append(signals, model.Signal{Date: bars[i].Date, Type: model.SignalSell, Price: bars[i].Close})
		}
	}
	return signals
}

// buySignal and sellSignal keep the inline state-machine loops readable.
func buySignal(b model.Bar) model.Signal {
	return model.Signal{Date: b.Date, Type: model.SignalBuy, Price: b.Close}
}

func sellSignal(b model.Bar) model.Signal {
	return model.Signal{Date: b.Date, Type: model.SignalSell, Price: b.Close}
}
