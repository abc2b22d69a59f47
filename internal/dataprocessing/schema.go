package dataprocessing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// YearColumn binds a year label to the column where its block starts
type YearColumn struct {
	Year   int
	Column int
}

// EconomicSchema is the explicit description of the economic source layout.
// Each region occupies two rows per year block: the GDP sits on the region
// row at Column, the sector shares follow on the next row at Column+1 onward
// in taxonomy order.
type EconomicSchema struct {
	YearRow        int
	FirstRegionRow int
	RowStride      int
	Years          []YearColumn
	Sectors        domain.SectorTaxonomy
	Width          int
	Height         int

	// Warnings lists layout issues that only affect some pairs
	Warnings []string
}

// SchemaError is returned when the header does not match the layout.
// Problems lists every mismatch found, not only the first.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "economic source layout mismatch: " + strings.Join(e.Problems, "; ")
}

// DetectEconomicSchema reads the year label row and builds the schema.
// Only cells made of digits are treated as year labels.
func DetectEconomicSchema(rows [][]string, cfg config.DatasetConfig, sectors domain.SectorTaxonomy) (*EconomicSchema, error) {
	schema := &EconomicSchema{
		YearRow:        cfg.YearRow,
		FirstRegionRow: cfg.FirstRegionRow,
		RowStride:      cfg.RowStride,
		Sectors:        sectors,
		Height:         len(rows),
	}
	for _, row := range rows {
		if len(row) > schema.Width {
			schema.Width = len(row)
		}
	}

	if cfg.YearRow < 0 || cfg.YearRow >= len(rows) {
		return nil, &SchemaError{Problems: []string{
			fmt.Sprintf("year label row %d is outside the %d row table", cfg.YearRow, len(rows)),
		}}
	}

	var problems []string
	seen := make(map[int]int)
	for col, cell := range rows[cfg.YearRow] {
		label := strings.TrimSpace(cell)
		if !isDigits(label) {
			continue
		}
		year, err := strconv.Atoi(label)
		if err != nil {
			continue
		}
		if prev, dup := seen[year]; dup {
			problems = append(problems, fmt.Sprintf("year %d labelled at columns %d and %d", year, prev, col))
			continue
		}
		seen[year] = col
		schema.Years = append(schema.Years, YearColumn{Year: year, Column: col})
	}

	sort.Slice(schema.Years, func(i, j int) bool {
		return schema.Years[i].Column < schema.Years[j].Column
	})

	if len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}
	return schema, nil
}

// Validate checks the schema against the table before extraction begins.
// Overlapping blocks or an empty header fail; truncated trailing blocks
// are recorded as warnings because they only cost the affected pairs.
func (s *EconomicSchema) Validate() error {
	var problems []string
	s.Warnings = nil

	if len(s.Sectors) == 0 {
		problems = append(problems, "sector taxonomy is empty")
	}
	if len(s.Years) == 0 {
		problems = append(problems, fmt.Sprintf("no year labels found on row %d", s.YearRow))
	}
	if s.RowStride < 2 {
		problems = append(problems, fmt.Sprintf("row stride %d cannot hold a GDP row and a share row", s.RowStride))
	}
	if s.FirstRegionRow <= s.YearRow {
		problems = append(problems, fmt.Sprintf("first region row %d is not below year row %d", s.FirstRegionRow, s.YearRow))
	}
	if s.FirstRegionRow+1 >= s.Height {
		problems = append(problems, fmt.Sprintf("first region row %d has no share row in a %d row table", s.FirstRegionRow, s.Height))
	}

	blockWidth := len(s.Sectors) + 1
	for i, yc := range s.Years {
		if i+1 < len(s.Years) {
			next := s.Years[i+1]
			if next.Column < yc.Column+blockWidth {
				problems = append(problems, fmt.Sprintf(
					"year %d block (columns %d-%d) overlaps year %d at column %d",
					yc.Year, yc.Column, yc.Column+blockWidth-1, next.Year, next.Column))
			}
		}
		if yc.Column+blockWidth > s.Width {
			s.Warnings = append(s.Warnings, fmt.Sprintf(
				"year %d block needs columns up to %d but the table is %d wide",
				yc.Year, yc.Column+blockWidth-1, s.Width))
		}
	}

	if len(problems) > 0 {
		return &SchemaError{Problems: problems}
	}
	return nil
}

// RegionRows returns the candidate region row indices in order.
// A row is only a candidate when its share row exists.
func (s *EconomicSchema) RegionRows() []int {
	var out []int
	for r := s.FirstRegionRow; r+1 < s.Height; r += s.RowStride {
		out = append(out, r)
	}
	return out
}

// Extract reads one (region row, year) pair.
// A column outside the table fails with a RecordExtraction error; cells
// that exist but are empty or non-numeric coerce to zero.
func (s *EconomicSchema) Extract(rows [][]string, row int, yc YearColumn, regionKey string) (domain.EconomicRecord, int, error) {
	last := yc.Column + len(s.Sectors)
	if row < 0 || row+1 >= len(rows) {
		return domain.EconomicRecord{}, 0, apperrors.NewExtractionError(regionKey, yc.Year,
			fmt.Errorf("row %d outside table", row))
	}
	if last >= s.Width {
		return domain.EconomicRecord{}, 0, apperrors.NewExtractionError(regionKey, yc.Year,
			fmt.Errorf("column %d outside table width %d", last, s.Width))
	}

	coerced := 0
	gdp, ok := cellFloat(rows[row], yc.Column)
	if !ok {
		coerced++
	}

	shares := make([]float64, len(s.Sectors))
	for i := range s.Sectors {
		v, ok := cellFloat(rows[row+1], yc.Column+1+i)
		if !ok {
			coerced++
		}
		shares[i] = v
	}

	return domain.EconomicRecord{
		RegionKey: regionKey,
		Year:      yc.Year,
		GDP:       gdp,
		Shares:    shares,
	}, coerced, nil
}

// cellFloat parses a cell as a number; ok is false when it was coerced to 0.
// Ragged rows shorter than the table are read as empty cells.
func cellFloat(row []string, col int) (float64, bool) {
	if col >= len(row) {
		return 0, false
	}
	cell := strings.TrimSpace(row[col])
	if isMissing(cell) {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
