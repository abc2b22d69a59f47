package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// NormalizeStats summarises one normalizer run
type NormalizeStats struct {
	Rows       int
	Years      int
	RegionRows int
	Records    int
	Skipped    int
	Coerced    int
	Warnings   []string
}

// Normalizer decodes the position-encoded economic source
type Normalizer struct {
	cfg     config.DatasetConfig
	sectors domain.SectorTaxonomy
	logger  *slog.Logger
}

// NewNormalizer creates a normalizer for the given layout and taxonomy
func NewNormalizer(cfg config.DatasetConfig, sectors domain.SectorTaxonomy, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		cfg:     cfg,
		sectors: sectors,
		logger:  infrastructure.WithComponent(logger, "normalizer"),
	}
}

// Load reads and normalizes the economic source file
func (n *Normalizer) Load(ctx context.Context, path string) ([]domain.EconomicRecord, NormalizeStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NormalizeStats{}, apperrors.NewSourceUnavailableError(path, err)
	}
	defer f.Close()

	rows, err := n.ReadRows(f)
	if err != nil {
		return nil, NormalizeStats{}, apperrors.NewParsingError(fmt.Sprintf("cannot read %s", path), err)
	}

	return n.Normalize(ctx, rows)
}

// ReadRows reads the delimited table without header semantics.
// Rows may have different lengths.
func (n *Normalizer) ReadRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	if n.cfg.Delimiter != "" {
		reader.Comma = []rune(n.cfg.Delimiter)[0]
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return rows, nil
}

// Normalize extracts one EconomicRecord per valid (region, year) pair.
// Extraction failures are skipped and counted; they never stop the walk.
func (n *Normalizer) Normalize(ctx context.Context, rows [][]string) ([]domain.EconomicRecord, NormalizeStats, error) {
	stats := NormalizeStats{Rows: len(rows)}

	schema, err := DetectEconomicSchema(rows, n.cfg, n.sectors)
	if err != nil {
		return nil, stats, apperrors.NewParsingError("economic source header", err)
	}
	if err := schema.Validate(); err != nil {
		return nil, stats, apperrors.NewParsingError("economic source header", err)
	}

	stats.Years = len(schema.Years)
	stats.Warnings = schema.Warnings
	for _, w := range schema.Warnings {
		n.logger.WarnContext(ctx, "Economic layout warning", slog.String("warning", w))
	}

	first, last := schema.Years[0].Year, schema.Years[0].Year
	for _, yc := range schema.Years {
		first = min(first, yc.Year)
		last = max(last, yc.Year)
	}
	n.logger.InfoContext(ctx, "Economic schema detected",
		slog.Int("years", len(schema.Years)),
		slog.Int("first_year", first),
		slog.Int("last_year", last),
		slog.Int("width", schema.Width))

	records := make([]domain.EconomicRecord, 0)
	for _, row := range schema.RegionRows() {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		if len(rows[row]) == 0 || isMissing(rows[row][0]) {
			continue
		}
		stats.RegionRows++
		key := CanonicalizeRegion(rows[row][0])

		for _, yc := range schema.Years {
			rec, coerced, err := schema.Extract(rows, row, yc, key)
			if err != nil {
				stats.Skipped++
				n.logger.DebugContext(ctx, "Skipping economic cell",
					slog.String("region", key),
					slog.Int("year", yc.Year),
					slog.String("error", err.Error()))
				continue
			}
			stats.Coerced += coerced
			records = append(records, rec)
		}
	}

	stats.Records = len(records)
	n.logger.InfoContext(ctx, "Economic source normalized",
		slog.Int("region_rows", stats.RegionRows),
		slog.Int("records", stats.Records),
		slog.Int("skipped", stats.Skipped),
		slog.Int("coerced_cells", stats.Coerced))

	return records, stats, nil
}
