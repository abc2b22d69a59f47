package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

const utf8BOM = "\ufeff"

// LoadStats summarises one population load
type LoadStats struct {
	Rows    int
	Loaded  int
	Skipped int
	Regions int
}

// PopulationLoader reads the population source
type PopulationLoader struct {
	columns config.PopulationColumns
	logger  *slog.Logger
}

// NewPopulationLoader creates a loader for the given header names
func NewPopulationLoader(columns config.PopulationColumns, logger *slog.Logger) *PopulationLoader {
	return &PopulationLoader{
		columns: columns,
		logger:  infrastructure.WithComponent(logger, "population_loader"),
	}
}

// Load reads the population file. A missing or unreadable file is a
// SourceUnavailable error and must abort the run.
func (l *PopulationLoader) Load(ctx context.Context, path string) ([]domain.RegionRecord, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, apperrors.NewSourceUnavailableError(path, err)
	}
	defer f.Close()

	records, stats, err := l.Read(ctx, f)
	if err != nil {
		return nil, stats, apperrors.NewSourceUnavailableError(path, err)
	}
	return records, stats, nil
}

// Read parses population rows from r. Header names are trimmed and a
// leading byte order mark is ignored.
func (l *PopulationLoader) Read(ctx context.Context, r io.Reader) ([]domain.RegionRecord, LoadStats, error) {
	var stats LoadStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}

	idx, err := l.columnMap(header)
	if err != nil {
		return nil, stats, err
	}

	regions := make(map[string]struct{})
	records := make([]domain.RegionRecord, 0)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w", line, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Rows++

		rec, err := l.parseRow(row, idx)
		if err != nil {
			stats.Skipped++
			l.logger.WarnContext(ctx, "Skipping population row",
				slog.Int("line", line),
				slog.String("error", err.Error()))
			continue
		}
		regions[rec.RegionKey] = struct{}{}
		records = append(records, rec)
	}

	stats.Loaded = len(records)
	stats.Regions = len(regions)
	l.logger.InfoContext(ctx, "Population source loaded",
		slog.Int("rows", stats.Loaded),
		slog.Int("regions", stats.Regions),
		slog.Int("skipped", stats.Skipped))

	return records, stats, nil
}

type populationIndex struct {
	region, year, total, male, female, category int
}

// columnMap locates the configured columns, falling back to English aliases
func (l *PopulationLoader) columnMap(header []string) (populationIndex, error) {
	find := func(names ...string) int {
		for i, h := range header {
			h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
			for _, name := range names {
				if name != "" && strings.EqualFold(h, name) {
					return i
				}
			}
		}
		return -1
	}

	idx := populationIndex{
		region:   find(l.columns.Region, "region", "province"),
		year:     find(l.columns.Year, "year"),
		total:    find(l.columns.Total, "total", "population"),
		male:     find(l.columns.Male, "male"),
		female:   find(l.columns.Female, "female"),
		category: find(l.columns.Category, "category"),
	}

	var missing []string
	if idx.region < 0 {
		missing = append(missing, l.columns.Region)
	}
	if idx.year < 0 {
		missing = append(missing, l.columns.Year)
	}
	if idx.total < 0 {
		missing = append(missing, l.columns.Total)
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("population header is missing columns %v", missing)
	}
	return idx, nil
}

func (l *PopulationLoader) parseRow(row []string, idx populationIndex) (domain.RegionRecord, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	region := cell(idx.region)
	if isMissing(region) {
		return domain.RegionRecord{}, fmt.Errorf("empty region name")
	}

	year, err := parseYear(cell(idx.year))
	if err != nil {
		return domain.RegionRecord{}, fmt.Errorf("region %s: %w", region, err)
	}

	total, err := parseCount(cell(idx.total))
	if err != nil {
		return domain.RegionRecord{}, fmt.Errorf("region %s year %d total: %w", region, year, err)
	}

	// Male and female counts are optional detail and default to zero
	male, _ := parseCount(cell(idx.male))
	female, _ := parseCount(cell(idx.female))

	return domain.RegionRecord{
		RegionKey:        CanonicalizeRegion(region),
		Region:           region,
		Year:             year,
		PopulationTotal:  total,
		PopulationMale:   male,
		PopulationFemale: female,
		Category:         cell(idx.category),
	}, nil
}

// parseYear accepts "2020" and the float rendering "2020.0"
func parseYear(s string) (int, error) {
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return int(f), nil
}

// parseCount parses a population count, tolerating thousands separators
func parseCount(s string) (float64, error) {
	if isMissing(s) {
		return 0, fmt.Errorf("missing value")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	cleaned := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
