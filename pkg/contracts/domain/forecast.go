package domain

import (
	"time"
)

// TimeSeriesPoint is a single observation of a yearly signal
type TimeSeriesPoint struct {
	DS time.Time `json:"ds"`
	Y  float64   `json:"y"`
}

// ForecastRow is one period of a forecast with its uncertainty band
type ForecastRow struct {
	DS         time.Time `json:"ds"`
	YHat       float64   `json:"yhat"`
	YHatLower  float64   `json:"yhat_lower"`
	YHatUpper  float64   `json:"yhat_upper"`
	Historical bool      `json:"historical"`
}

// ForecastResult is the ordered output of a single model run.
// Rows cover the historical span followed by the future periods.
type ForecastResult struct {
	Rows    []ForecastRow `json:"rows"`
	Periods int           `json:"periods"`
}

// Last returns the final row of the result
func (r *ForecastResult) Last() (ForecastRow, bool) {
	if r == nil || len(r.Rows) == 0 {
		return ForecastRow{}, false
	}
	return r.Rows[len(r.Rows)-1], true
}

// Future returns the rows past the historical span
func (r *ForecastResult) Future() []ForecastRow {
	if r == nil {
		return nil
	}
	out := make([]ForecastRow, 0, r.Periods)
	for _, row := range r.Rows {
		if !row.Historical {
			out = append(out, row)
		}
	}
	return out
}

// LastHistorical returns the final in-sample row
func (r *ForecastResult) LastHistorical() (ForecastRow, bool) {
	if r == nil {
		return ForecastRow{}, false
	}
	for i := len(r.Rows) - 1; i >= 0; i-- {
		if r.Rows[i].Historical {
			return r.Rows[i], true
		}
	}
	return ForecastRow{}, false
}

// Clone returns a deep copy of the result
func (r *ForecastResult) Clone() *ForecastResult {
	if r == nil {
		return nil
	}
	rows := make([]ForecastRow, len(r.Rows))
	copy(rows, r.Rows)
	return &ForecastResult{Rows: rows, Periods: r.Periods}
}

// ScenarioKind selects which signals a shock scenario affects
type ScenarioKind string

const (
	ScenarioEconomic    ScenarioKind = "economic"
	ScenarioDemographic ScenarioKind = "demographic"
	ScenarioBoth        ScenarioKind = "both"
)

// AffectsPopulation reports whether the scenario touches population forecasts
func (k ScenarioKind) AffectsPopulation() bool {
	return k == ScenarioDemographic || k == ScenarioBoth
}

// AffectsEconomy reports whether the scenario touches GDP forecasts
func (k ScenarioKind) AffectsEconomy() bool {
	return k == ScenarioEconomic || k == ScenarioBoth
}

// Scenario is a multiplicative shock applied from TriggerYear onwards.
// Severity is a fraction in [0,1].
type Scenario struct {
	Kind        ScenarioKind `json:"kind"`
	TriggerYear int          `json:"trigger_year"`
	Severity    float64      `json:"severity"`
}

// SectorTrend is the renormalized forecast of one sector share column
type SectorTrend struct {
	Sector     Sector        `json:"sector"`
	Rows       []ForecastRow `json:"rows"`
	FutureMean float64       `json:"future_mean"`
}

// SectorShare is a single labelled share used for the sector mix view
type SectorShare struct {
	Label string  `json:"label"`
	Share float64 `json:"share"`
}

// Growth summarises a forecast against the last observed value
type Growth struct {
	FinalYear   int         `json:"final_year"`
	FinalValue  float64     `json:"final_value"`
	Baseline    float64     `json:"baseline"`
	GrowthRatio NullFloat64 `json:"growth_percent"`
}
