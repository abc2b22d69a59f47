package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/internal/dataprocessing"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// Workbook column names
const (
	ColDate     = "ds"
	ColValue    = "y"
	ColRegion   = "İl"
	ColYear     = "Yıl"
	ColCategory = "Kategori"
	ColMale     = "Erkek"
	ColFemale   = "Kadın"
	ColGDP      = "GSYIH"
	ColGDPUSD   = "GSYIH_USD"
)

const dateFormat = "yyyy-mm-dd"

// WorkbookStore persists the merged dataset as an xlsx workbook
type WorkbookStore struct {
	nationalSheet string
	regionSheet   string
	sectors       domain.SectorTaxonomy
	logger        *slog.Logger
}

// NewWorkbookStore creates a store using the configured sheet names
func NewWorkbookStore(cfg config.DatasetConfig, sectors domain.SectorTaxonomy, logger *slog.Logger) *WorkbookStore {
	return &WorkbookStore{
		nationalSheet: cfg.NationalSheet,
		regionSheet:   cfg.RegionSheet,
		sectors:       sectors,
		logger:        infrastructure.WithComponent(logger, "workbook"),
	}
}

// Write saves the training workbook with a national and a region sheet
func (s *WorkbookStore) Write(ctx context.Context, path string, ds *domain.MergedDataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", s.nationalSheet); err != nil {
		return apperrors.NewStorageError("failed to name national sheet", err)
	}
	if err := s.writeNational(f, ds); err != nil {
		return err
	}

	if _, err := f.NewSheet(s.regionSheet); err != nil {
		return apperrors.NewStorageError("failed to create region sheet", err)
	}
	if err := s.writeRegions(f, ds, false); err != nil {
		return err
	}

	return s.save(ctx, f, path, len(ds.Regions))
}

// WriteUSD saves the USD workbook, which holds the region sheet only
// plus the converted GDP column
func (s *WorkbookStore) WriteUSD(ctx context.Context, path string, ds *domain.MergedDataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", s.regionSheet); err != nil {
		return apperrors.NewStorageError("failed to name region sheet", err)
	}
	if err := s.writeRegions(f, ds, true); err != nil {
		return err
	}

	return s.save(ctx, f, path, len(ds.Regions))
}

func (s *WorkbookStore) writeNational(f *excelize.File, ds *domain.MergedDataset) error {
	header := []interface{}{ColDate, ColValue, ColGDP}
	if ds.HasEconomicData {
		for _, c := range s.sectors.Columns() {
			header = append(header, c)
		}
	}
	if err := f.SetSheetRow(s.nationalSheet, "A1", &header); err != nil {
		return apperrors.NewStorageError("failed to write national header", err)
	}

	for i, r := range ds.National {
		row := []interface{}{r.Date, r.Population, r.GDP}
		if ds.HasEconomicData {
			row = appendShares(row, r.Shares, len(s.sectors))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(s.nationalSheet, cell, &row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write national row %d", i+2), err)
		}
	}

	return s.styleDates(f, s.nationalSheet)
}

func (s *WorkbookStore) writeRegions(f *excelize.File, ds *domain.MergedDataset, usd bool) error {
	header := []interface{}{ColDate, ColValue, ColRegion, ColYear, ColCategory, ColMale, ColFemale, ColGDP}
	if ds.HasEconomicData {
		for _, c := range s.sectors.Columns() {
			header = append(header, c)
		}
	}
	if usd {
		header = append(header, ColGDPUSD)
	}
	if err := f.SetSheetRow(s.regionSheet, "A1", &header); err != nil {
		return apperrors.NewStorageError("failed to write region header", err)
	}

	for i, r := range ds.Regions {
		row := []interface{}{
			r.Date, r.PopulationTotal, r.Region, r.Year, r.Category,
			r.PopulationMale, r.PopulationFemale, r.GDP,
		}
		if ds.HasEconomicData {
			row = appendShares(row, r.Shares, len(s.sectors))
		}
		if usd {
			// nil leaves the cell empty
			row = append(row, r.GDPUSD.Value())
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(s.regionSheet, cell, &row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write region row %d", i+2), err)
		}
	}

	return s.styleDates(f, s.regionSheet)
}

func appendShares(row []interface{}, shares []float64, n int) []interface{} {
	for i := 0; i < n; i++ {
		v := 0.0
		if i < len(shares) {
			v = shares[i]
		}
		row = append(row, v)
	}
	return row
}

func (s *WorkbookStore) styleDates(f *excelize.File, sheet string) error {
	format := dateFormat
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return apperrors.NewStorageError("failed to create date style", err)
	}
	if err := f.SetColStyle(sheet, "A", style); err != nil {
		return apperrors.NewStorageError("failed to style date column", err)
	}
	return f.SetColWidth(sheet, "A", "A", 12)
}

// save writes to a temporary file in the target directory and renames it
// into place, so readers never observe a partial workbook
func (s *WorkbookStore) save(ctx context.Context, f *excelize.File, path string, rows int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, ".workbook-*.xlsx")
	if err != nil {
		return apperrors.NewStorageError("failed to create temporary workbook", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", path), err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to close %s", path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to move workbook to %s", path), err)
	}

	s.logger.InfoContext(ctx, "Workbook saved",
		slog.String("path", path),
		slog.Int("rows", rows))
	return nil
}

// Read loads a workbook written by Write or WriteUSD. When the national
// sheet is absent it is recomputed from the region rows.
func (s *WorkbookStore) Read(ctx context.Context, path string) (*domain.MergedDataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(s.regionSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %s in %s", s.regionSheet, path), err)
	}

	ds, err := s.parseRegions(rows)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %s in %s", s.regionSheet, path), err)
	}

	if idx, _ := f.GetSheetIndex(s.nationalSheet); idx >= 0 {
		national, err := f.GetRows(s.nationalSheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %s in %s", s.nationalSheet, path), err)
		}
		if ds.National, err = s.parseNational(national, ds.HasEconomicData); err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %s in %s", s.nationalSheet, path), err)
		}
	} else {
		ds.National = dataprocessing.NationalAggregate(ds.Regions, ds.HasEconomicData, len(s.sectors))
	}

	s.logger.InfoContext(ctx, "Workbook loaded",
		slog.String("path", path),
		slog.Int("rows", len(ds.Regions)),
		slog.Bool("economic", ds.HasEconomicData),
		slog.Bool("usd", ds.HasUSD))
	return ds, nil
}

// headerIndex maps trimmed header names to column positions
type headerIndex map[string]int

func newHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func (h headerIndex) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := h[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns %v", missing)
	}
	return nil
}

// shareColumns reports whether all, or none, of the sector columns exist
func (h headerIndex) shareColumns(sectors domain.SectorTaxonomy) (bool, error) {
	found := 0
	for _, c := range sectors.Columns() {
		if _, ok := h[c]; ok {
			found++
		}
	}
	switch found {
	case 0:
		return false, nil
	case len(sectors):
		return true, nil
	default:
		return false, fmt.Errorf("found %d of %d sector share columns", found, len(sectors))
	}
}

func (s *WorkbookStore) parseRegions(rows [][]string) (*domain.MergedDataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}
	h := newHeaderIndex(rows[0])
	if err := h.require(ColDate, ColValue, ColRegion, ColYear, ColGDP); err != nil {
		return nil, err
	}
	hasShares, err := h.shareColumns(s.sectors)
	if err != nil {
		return nil, err
	}
	_, hasUSD := h[ColGDPUSD]

	ds := &domain.MergedDataset{
		Regions:         make([]domain.MergedRecord, 0, len(rows)-1),
		Sectors:         s.sectors,
		HasEconomicData: hasShares,
		HasUSD:          hasUSD,
	}

	for line, row := range rows[1:] {
		c := cells{row: row, h: h}
		if c.text(ColRegion) == "" {
			continue
		}
		date, err := parseDate(c.text(ColDate))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line+2, err)
		}
		year, err := strconv.Atoi(c.text(ColYear))
		if err != nil {
			year = date.Year()
		}

		rec := domain.MergedRecord{
			RegionRecord: domain.RegionRecord{
				RegionKey:        dataprocessing.CanonicalizeRegion(c.text(ColRegion)),
				Region:           c.text(ColRegion),
				Year:             year,
				PopulationTotal:  c.float(ColValue),
				PopulationMale:   c.float(ColMale),
				PopulationFemale: c.float(ColFemale),
				Category:         c.text(ColCategory),
			},
			Date: date,
			GDP:  c.float(ColGDP),
		}
		if hasShares {
			rec.Shares = c.shares(s.sectors)
		}
		if hasUSD {
			rec.GDPUSD = c.nullable(ColGDPUSD)
		}
		ds.Regions = append(ds.Regions, rec)
	}
	return ds, nil
}

func (s *WorkbookStore) parseNational(rows [][]string, hasShares bool) ([]domain.NationalRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}
	h := newHeaderIndex(rows[0])
	if err := h.require(ColDate, ColValue); err != nil {
		return nil, err
	}

	out := make([]domain.NationalRecord, 0, len(rows)-1)
	for line, row := range rows[1:] {
		c := cells{row: row, h: h}
		if c.text(ColDate) == "" {
			continue
		}
		date, err := parseDate(c.text(ColDate))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line+2, err)
		}
		rec := domain.NationalRecord{
			Date:       date,
			Population: c.float(ColValue),
			GDP:        c.float(ColGDP),
		}
		if hasShares {
			rec.Shares = c.shares(s.sectors)
		}
		out = append(out, rec)
	}
	return out, nil
}

// cells reads named values from one sheet row
type cells struct {
	row []string
	h   headerIndex
}

func (c cells) text(name string) string {
	i, ok := c.h[name]
	if !ok || i >= len(c.row) {
		return ""
	}
	return strings.TrimSpace(c.row[i])
}

func (c cells) float(name string) float64 {
	v, _ := strconv.ParseFloat(c.text(name), 64)
	return v
}

func (c cells) nullable(name string) domain.NullFloat64 {
	v, err := strconv.ParseFloat(c.text(name), 64)
	if err != nil {
		return domain.Unavailable()
	}
	return domain.Float(v)
}

func (c cells) shares(sectors domain.SectorTaxonomy) []float64 {
	out := make([]float64, len(sectors))
	for i, col := range sectors.Columns() {
		out[i] = c.float(col)
	}
	return out
}

// parseDate accepts an Excel serial or an ISO date
func parseDate(s string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %q: %w", s, err)
		}
		return t.UTC().Round(24 * time.Hour), nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
