package domain

// DashboardRequest carries the user selected dashboard parameters
type DashboardRequest struct {
	Region      string       `json:"region" validate:"required"`
	Horizon     int          `json:"horizon" validate:"required,min=1,max=30"`
	Scenario    bool         `json:"scenario"`
	Kind        ScenarioKind `json:"kind" validate:"omitempty,oneof=economic demographic both"`
	TriggerYear int          `json:"trigger_year" validate:"omitempty,min=2024,max=2050"`
	Severity    int          `json:"severity" validate:"omitempty,min=1,max=90"`
}

// ScenarioSpec converts the request to a shock scenario.
// ok is false when the scenario is switched off.
func (r DashboardRequest) ScenarioSpec() (Scenario, bool) {
	if !r.Scenario {
		return Scenario{}, false
	}
	kind := r.Kind
	if kind == "" {
		kind = ScenarioBoth
	}
	return Scenario{
		Kind:        kind,
		TriggerYear: r.TriggerYear,
		Severity:    float64(r.Severity) / 100,
	}, true
}

// MetricView is a headline value with its growth against history
type MetricView struct {
	Label  string      `json:"label"`
	Growth Growth      `json:"growth"`
	Unit   string      `json:"unit,omitempty"`
	Value  NullFloat64 `json:"value"`
}

// SignalView is the forecast of one signal as shown on the dashboard
type SignalView struct {
	Target   string            `json:"target"`
	Metric   MetricView        `json:"metric"`
	History  []TimeSeriesPoint `json:"history"`
	Forecast *ForecastResult   `json:"forecast,omitempty"`
	Shocked  bool              `json:"shocked"`
}

// DashboardView is the full payload for one dashboard interaction
type DashboardView struct {
	Request    DashboardRequest `json:"request"`
	Population *SignalView      `json:"population,omitempty"`
	Economy    *SignalView      `json:"economy,omitempty"`
	Sectors    []SectorShare    `json:"sectors,omitempty"`
	Table      []ForecastRow    `json:"table,omitempty"`
	Warnings   []string         `json:"warnings"`
}
