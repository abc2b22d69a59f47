package forecast

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(config.Default().Forecast, discardLogger())
	require.NoError(t, err)
	return engine
}

// linearSeries returns year-end points from first to last with y = a + b*(year-first)
func linearSeries(first, last int, a, b float64) []domain.TimeSeriesPoint {
	out := make([]domain.TimeSeriesPoint, 0, last-first+1)
	for y := first; y <= last; y++ {
		out = append(out, domain.TimeSeriesPoint{DS: domain.YearEnd(y), Y: a + b*float64(y-first)})
	}
	return out
}

func regionRows(region string, first, last int, pop func(year int) float64) []domain.MergedRecord {
	var rows []domain.MergedRecord
	for y := first; y <= last; y++ {
		rows = append(rows, domain.MergedRecord{
			RegionRecord: domain.RegionRecord{RegionKey: region, Region: region, Year: y, PopulationTotal: pop(y)},
			Date:         domain.YearEnd(y),
			GDP:          pop(y) * 10,
		})
	}
	return rows
}
