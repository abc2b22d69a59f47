package domain

// Signal names a forecastable column of the merged dataset
type Signal string

const (
	SignalPopulation Signal = "population"
	SignalGDP        Signal = "gdp"
	SignalGDPUSD     Signal = "gdp_usd"
)

// EvaluationResult holds the cross-validation metrics for one region signal.
// Metrics are unavailable when the evaluation failed.
type EvaluationResult struct {
	Region  string      `json:"region"`
	Signal  Signal      `json:"signal"`
	Windows int         `json:"windows"`
	RMSE    NullFloat64 `json:"rmse"`
	MAPE    NullFloat64 `json:"mape"`
	Err     string      `json:"error,omitempty"`
}

// Failed reports whether the evaluation produced no metrics
func (r EvaluationResult) Failed() bool {
	return !r.RMSE.Valid
}
