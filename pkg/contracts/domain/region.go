package domain

import (
	"sort"
	"time"
)

// RegionRecord is one population row for a region and year
type RegionRecord struct {
	RegionKey        string  `json:"region_key"`
	Region           string  `json:"region"`
	Year             int     `json:"year" validate:"required,min=1900,max=2200"`
	PopulationTotal  float64 `json:"population_total" validate:"min=0"`
	PopulationMale   float64 `json:"population_male" validate:"min=0"`
	PopulationFemale float64 `json:"population_female" validate:"min=0"`
	Category         string  `json:"category,omitempty"`
}

// EconomicRecord holds GDP and the sector share vector for a region and year
type EconomicRecord struct {
	RegionKey string    `json:"region_key"`
	Year      int       `json:"year"`
	GDP       float64   `json:"gdp"`
	Shares    []float64 `json:"shares"`
}

// MergedRecord is a population row enriched with economic fields
type MergedRecord struct {
	RegionRecord
	Date   time.Time   `json:"ds"`
	GDP    float64     `json:"gdp"`
	Shares []float64   `json:"shares,omitempty"`
	GDPUSD NullFloat64 `json:"gdp_usd"`
}

// NationalRecord is the country-wide aggregate for one year
type NationalRecord struct {
	Date       time.Time `json:"ds"`
	Population float64   `json:"population"`
	GDP        float64   `json:"gdp"`
	Shares     []float64 `json:"shares,omitempty"`
}

// MergedDataset is the in-memory form of the intermediate workbook
type MergedDataset struct {
	National        []NationalRecord `json:"national"`
	Regions         []MergedRecord   `json:"regions"`
	Sectors         SectorTaxonomy   `json:"sectors"`
	HasEconomicData bool             `json:"has_economic_data"`
	HasUSD          bool             `json:"has_usd"`
}

// YearEnd returns December 31st of the given year in UTC
func YearEnd(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// RegionNames returns the distinct display names in sorted order
func (d *MergedDataset) RegionNames() []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, r := range d.Regions {
		if _, ok := seen[r.Region]; ok {
			continue
		}
		seen[r.Region] = struct{}{}
		names = append(names, r.Region)
	}
	sort.Strings(names)
	return names
}

// RegionSlice returns the rows of one region ordered by year.
// The returned slice is a copy and can be modified freely.
func (d *MergedDataset) RegionSlice(region string) []MergedRecord {
	out := make([]MergedRecord, 0)
	for _, r := range d.Regions {
		if r.Region == region {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Year < out[j].Year
	})
	return out
}

// SeriesOf projects region rows onto a time series using the selector.
// Rows for which the selector reports false are left out.
func SeriesOf(rows []MergedRecord, selector func(MergedRecord) (float64, bool)) []TimeSeriesPoint {
	points := make([]TimeSeriesPoint, 0, len(rows))
	for _, r := range rows {
		v, ok := selector(r)
		if !ok {
			continue
		}
		points = append(points, TimeSeriesPoint{DS: r.Date, Y: v})
	}
	return points
}

// PopulationOf selects the total population of a row
func PopulationOf(r MergedRecord) (float64, bool) {
	return r.PopulationTotal, true
}

// GDPOf selects the local currency GDP of a row
func GDPOf(r MergedRecord) (float64, bool) {
	return r.GDP, true
}

// GDPUSDOf selects the USD GDP of a row when a rate was available
func GDPUSDOf(r MergedRecord) (float64, bool) {
	return r.GDPUSD.Float64, r.GDPUSD.Valid
}

// ShareOf returns a selector for the sector share at index i
func ShareOf(i int) func(MergedRecord) (float64, bool) {
	return func(r MergedRecord) (float64, bool) {
		if i < 0 || i >= len(r.Shares) {
			return 0, false
		}
		return r.Shares[i], true
	}
}
