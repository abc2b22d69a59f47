package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDatasetConfig() config.DatasetConfig {
	return config.Default().Dataset
}

// economicTable builds a source table in the two-rows-per-region layout.
// GDP for region ri and year index j is (ri+1)*1000 + j; shares are 1..11.
func economicTable(regions []string, years []int) [][]string {
	const block = 12
	width := 1 + len(years)*block
	rows := make([][]string, 5)
	for i := range rows {
		rows[i] = make([]string, width)
	}
	rows[0][0] = "Il bazinda GSYIH"
	rows[3][0] = "Il"
	for j, y := range years {
		rows[3][1+j*block] = strconv.Itoa(y)
	}

	for ri, name := range regions {
		gdpRow := make([]string, width)
		shareRow := make([]string, width)
		gdpRow[0] = name
		for j := range years {
			start := 1 + j*block
			gdpRow[start] = fmt.Sprintf("%d", (ri+1)*1000+j)
			for s := 0; s < 11; s++ {
				shareRow[start+1+s] = strconv.Itoa(s + 1)
			}
		}
		rows = append(rows, gdpRow, shareRow)
	}
	return rows
}

func pop(region string, year int, total float64) domain.RegionRecord {
	return domain.RegionRecord{
		RegionKey:       CanonicalizeRegion(region),
		Region:          region,
		Year:            year,
		PopulationTotal: total,
	}
}

func econ(region string, year int, gdp float64) domain.EconomicRecord {
	shares := make([]float64, 11)
	for i := range shares {
		shares[i] = float64(i + 1)
	}
	return domain.EconomicRecord{RegionKey: CanonicalizeRegion(region), Year: year, GDP: gdp, Shares: shares}
}
