package domain

import "sort"

// ExchangeRateTable maps a year to local currency units per USD.
// The table is copied on construction and never mutated afterwards.
type ExchangeRateTable struct {
	rates map[int]float64
}

// NewExchangeRateTable builds a table from a year to rate mapping
func NewExchangeRateTable(rates map[int]float64) ExchangeRateTable {
	copied := make(map[int]float64, len(rates))
	for year, rate := range rates {
		copied[year] = rate
	}
	return ExchangeRateTable{rates: copied}
}

// Rate returns the rate for a year. ok is false when the year is absent
// or the rate is not positive.
func (t ExchangeRateTable) Rate(year int) (float64, bool) {
	rate, ok := t.rates[year]
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// Years returns the covered years in ascending order
func (t ExchangeRateTable) Years() []int {
	years := make([]int, 0, len(t.rates))
	for y := range t.rates {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Len returns the number of entries
func (t ExchangeRateTable) Len() int {
	return len(t.rates)
}
