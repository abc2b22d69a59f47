package dataprocessing

import (
	"log/slog"
	"sort"
	"time"

	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// MergeStats summarises one merge
type MergeStats struct {
	PopulationRows    int
	EconomicRecords   int
	Matched           int
	ForwardFilled     int
	ZeroFilled        int
	DuplicateEconomic int
	// RegionsWithoutEconomicData lists region keys that never matched
	RegionsWithoutEconomicData []string
}

// Merger joins economic records onto population rows
type Merger struct {
	sectors domain.SectorTaxonomy
	logger  *slog.Logger
}

// NewMerger creates a merger for the given sector taxonomy
func NewMerger(sectors domain.SectorTaxonomy, logger *slog.Logger) *Merger {
	return &Merger{
		sectors: sectors,
		logger:  infrastructure.WithComponent(logger, "merger"),
	}
}

type econKey struct {
	region string
	year   int
}

// Merge left-joins econ onto pop by (region key, year).
// The output has exactly one row per population row in input order.
// Economic fields are forward-filled per region across ascending years,
// and leading gaps are zero-filled.
func (m *Merger) Merge(pop []domain.RegionRecord, econ []domain.EconomicRecord) (*domain.MergedDataset, MergeStats) {
	stats := MergeStats{
		PopulationRows:  len(pop),
		EconomicRecords: len(econ),
	}
	hasEconomic := len(econ) > 0

	lookup := make(map[econKey]domain.EconomicRecord, len(econ))
	for _, e := range econ {
		k := econKey{region: e.RegionKey, year: e.Year}
		if _, dup := lookup[k]; dup {
			// First occurrence in source order wins
			stats.DuplicateEconomic++
			continue
		}
		lookup[k] = e
	}

	merged := make([]domain.MergedRecord, len(pop))
	byRegion := make(map[string][]int)
	order := make([]string, 0)
	for i, p := range pop {
		merged[i] = domain.MergedRecord{
			RegionRecord: p,
			Date:         domain.YearEnd(p.Year),
		}
		if _, ok := byRegion[p.RegionKey]; !ok {
			order = append(order, p.RegionKey)
		}
		byRegion[p.RegionKey] = append(byRegion[p.RegionKey], i)
	}

	if hasEconomic {
		for _, key := range order {
			m.fillRegion(merged, byRegion[key], lookup, &stats)
		}
	}

	dataset := &domain.MergedDataset{
		Regions:         merged,
		Sectors:         m.sectors,
		HasEconomicData: hasEconomic,
	}
	dataset.National = NationalAggregate(merged, hasEconomic, len(m.sectors))

	m.logger.Info("Datasets merged",
		slog.Int("rows", len(merged)),
		slog.Int("matched", stats.Matched),
		slog.Int("forward_filled", stats.ForwardFilled),
		slog.Int("zero_filled", stats.ZeroFilled),
		slog.Int("duplicate_economic", stats.DuplicateEconomic),
		slog.Int("regions_without_economic_data", len(stats.RegionsWithoutEconomicData)))
	if len(stats.RegionsWithoutEconomicData) > 0 {
		m.logger.Warn("Regions without any economic data are zero-filled",
			slog.Any("regions", stats.RegionsWithoutEconomicData))
	}

	return dataset, stats
}

// fillRegion applies the join and the fill policy to one region's rows
func (m *Merger) fillRegion(merged []domain.MergedRecord, idx []int, lookup map[econKey]domain.EconomicRecord, stats *MergeStats) {
	sorted := make([]int, len(idx))
	copy(sorted, idx)
	sort.SliceStable(sorted, func(a, b int) bool {
		return merged[sorted[a]].Year < merged[sorted[b]].Year
	})

	var (
		lastGDP    float64
		lastShares []float64
		seen       bool
	)
	for _, i := range sorted {
		row := &merged[i]
		if e, ok := lookup[econKey{region: row.RegionKey, year: row.Year}]; ok {
			lastGDP = e.GDP
			lastShares = e.Shares
			seen = true
			row.GDP = e.GDP
			row.Shares = copyShares(e.Shares, len(m.sectors))
			stats.Matched++
			continue
		}
		if seen {
			row.GDP = lastGDP
			row.Shares = copyShares(lastShares, len(m.sectors))
			stats.ForwardFilled++
			continue
		}
		row.GDP = 0
		row.Shares = make([]float64, len(m.sectors))
		stats.ZeroFilled++
	}

	if !seen && len(sorted) > 0 {
		stats.RegionsWithoutEconomicData = append(stats.RegionsWithoutEconomicData, merged[sorted[0]].RegionKey)
	}
}

func copyShares(src []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, src)
	return out
}

// NationalAggregate sums population and GDP per year and averages the
// sector shares when economic data exists. Output is sorted by date.
func NationalAggregate(rows []domain.MergedRecord, hasEconomic bool, nSectors int) []domain.NationalRecord {
	type acc struct {
		pop, gdp float64
		shares   []float64
		n        int
	}
	byDate := make(map[time.Time]*acc)
	for _, r := range rows {
		a, ok := byDate[r.Date]
		if !ok {
			a = &acc{shares: make([]float64, nSectors)}
			byDate[r.Date] = a
		}
		a.pop += r.PopulationTotal
		a.gdp += r.GDP
		for i := 0; i < nSectors && i < len(r.Shares); i++ {
			a.shares[i] += r.Shares[i]
		}
		a.n++
	}

	out := make([]domain.NationalRecord, 0, len(byDate))
	for date, a := range byDate {
		rec := domain.NationalRecord{Date: date, Population: a.pop, GDP: a.gdp}
		if hasEconomic {
			rec.Shares = make([]float64, nSectors)
			for i := range a.shares {
				rec.Shares[i] = a.shares[i] / float64(a.n)
			}
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
