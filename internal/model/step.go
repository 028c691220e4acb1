package model

// StepEvent is one element of a streaming strategy execution: an ordered,
// finite sequence of these re-expresses the batch computation as incremental
// progress. Exactly one event per run has Final=true; it carries the complete
// StrategyResult plus a category-specific Output summary.
type StepEvent struct {
	Step     int    `json:"step"`
	Total    int    `json:"total"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	Progress int    `json:"progress"`

	Final bool `json:"final,omitempty"`

	// Partial indicator series computed so far (non-final steps).
	Indicator IndicatorData `json:"indicator,omitempty"`

	// Populated once known; the final event always carries the full set.
	Signals       []Signal      `json:"signals,omitempty"`
	Metrics       *Metrics      `json:"metrics,omitempty"`
	IndicatorData IndicatorData `json:"indicator_data,omitempty"`

	OutputType string         `json:"output_type,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
}

// Result assembles the StrategyResult carried by a final step event.
func (e StepEvent) Result() StrategyResult {
	res := StrategyResult{
		Signals:       e.Signals,
		IndicatorData: e.IndicatorData,
	}
	if res.Signals == nil {
		res.Signals = []Signal{}
	}
	if res.IndicatorData == nil {
		res.IndicatorData = IndicatorData{}
	}
	if e.Metrics != nil {
		res.Metrics = *e.Metrics
	}
	return res
}
