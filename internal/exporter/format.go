package exporter

import (
	"strconv"

	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// formatFloat formats a float64 value for CSV output using the shortest
// representation that round-trips
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatMetric formats a metric with 4 decimal places, or an empty cell
// when unavailable
func formatMetric(n domain.NullFloat64) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'f', 4, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}
