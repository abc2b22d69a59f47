package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// OthersLabel names the remainder bucket of TopSectors
const OthersLabel = "Others"

// SectorForecast is the output of ForecastSectorTrends
type SectorForecast struct {
	Trends []domain.SectorTrend
	// Omitted lists the sector columns without enough history
	Omitted []string
}

// ForecastSectorTrends forecasts each share column independently, clips
// negative values and renormalizes every period so the forecasted
// columns sum to 100. A period whose columns all clip to 0 is split
// equally.
func ForecastSectorTrends(ctx context.Context, engine *Engine, history []domain.MergedRecord, sectors domain.SectorTaxonomy, all domain.SectorTaxonomy, periods int) (*SectorForecast, error) {
	out := &SectorForecast{}
	var raw [][]domain.ForecastRow

	for _, sector := range sectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx := all.Index(sector.Column)
		if idx < 0 {
			return nil, fmt.Errorf("sector column %s is not in the taxonomy", sector.Column)
		}

		points := domain.SeriesOf(history, domain.ShareOf(idx))
		result, err := engine.Forecast(ctx, points, periods)
		if errors.Is(err, ErrInsufficientHistory) {
			out.Omitted = append(out.Omitted, sector.Column)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("sector %s: %w", sector.Column, err)
		}

		out.Trends = append(out.Trends, domain.SectorTrend{Sector: sector})
		raw = append(raw, result.Rows)
	}

	if len(out.Omitted) > 0 {
		engine.logger.WarnContext(ctx, "Sector columns omitted",
			slog.Any("columns", out.Omitted))
	}
	if len(raw) == 0 {
		return out, nil
	}

	renormalize(raw)
	for i := range out.Trends {
		out.Trends[i].Rows = raw[i]
		out.Trends[i].FutureMean = futureMean(raw[i])
	}
	return out, nil
}

// renormalize clips and rescales the rows of every column so each period
// sums to 100. Rows are aligned by date, so a column missing a period does
// not shift the others and every row of every column is normalized.
func renormalize(columns [][]domain.ForecastRow) {
	var order []time.Time
	periods := make(map[time.Time][]*domain.ForecastRow)
	for _, col := range columns {
		for i := range col {
			ds := col[i].DS
			if _, ok := periods[ds]; !ok {
				order = append(order, ds)
			}
			periods[ds] = append(periods[ds], &col[i])
		}
	}

	for _, ds := range order {
		rows := periods[ds]
		var sum float64
		for _, row := range rows {
			row.YHat = math.Max(0, row.YHat)
			row.YHatLower = math.Max(0, row.YHatLower)
			row.YHatUpper = math.Max(0, row.YHatUpper)
			sum += row.YHat
		}

		if sum == 0 {
			equal := 100 / float64(len(rows))
			for _, row := range rows {
				row.YHat = equal
				row.YHatLower = equal
				row.YHatUpper = equal
			}
			continue
		}

		factor := 100 / sum
		for _, row := range rows {
			row.YHat *= factor
			row.YHatLower *= factor
			row.YHatUpper *= factor
		}
	}
}

func futureMean(rows []domain.ForecastRow) float64 {
	var sum float64
	var n int
	for _, r := range rows {
		if r.Historical {
			continue
		}
		sum += r.YHat
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// TopSectors ranks trends by future mean and returns the n largest plus
// an Others bucket holding the remainder of 100, clipped at 0
func TopSectors(trends []domain.SectorTrend, n int) []domain.SectorShare {
	ranked := make([]domain.SectorTrend, len(trends))
	copy(ranked, trends)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FutureMean > ranked[j].FutureMean
	})
	if n > len(ranked) {
		n = len(ranked)
	}

	out := make([]domain.SectorShare, 0, n+1)
	var sum float64
	for _, t := range ranked[:n] {
		out = append(out, domain.SectorShare{Label: t.Sector.Label, Share: t.FutureMean})
		sum += t.FutureMean
	}
	out = append(out, domain.SectorShare{Label: OthersLabel, Share: math.Max(0, 100-sum)})
	return out
}

// TopHistoricalSectors returns the n taxonomy columns with the largest
// mean historical share, in descending order
func TopHistoricalSectors(history []domain.MergedRecord, sectors domain.SectorTaxonomy, n int) domain.SectorTaxonomy {
	type ranked struct {
		sector domain.Sector
		mean   float64
	}
	all := make([]ranked, len(sectors))
	for i, s := range sectors {
		var sum float64
		for _, r := range history {
			if i < len(r.Shares) {
				sum += r.Shares[i]
			}
		}
		if len(history) > 0 {
			sum /= float64(len(history))
		}
		all[i] = ranked{sector: s, mean: sum}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].mean > all[j].mean })

	n = min(n, len(all))
	out := make(domain.SectorTaxonomy, n)
	for i := range out {
		out[i] = all[i].sector
	}
	return out
}

// GrowthSummary compares the final forecast value with the last
// observed one. The growth is unavailable when the baseline is 0.
func GrowthSummary(result *domain.ForecastResult) (domain.Growth, bool) {
	last, ok := result.Last()
	if !ok {
		return domain.Growth{}, false
	}
	base, ok := result.LastHistorical()
	if !ok {
		return domain.Growth{}, false
	}

	g := domain.Growth{
		FinalYear:  last.DS.Year(),
		FinalValue: last.YHat,
		Baseline:   base.YHat,
	}
	if base.YHat != 0 {
		g.GrowthRatio = domain.Float((last.YHat - base.YHat) / math.Abs(base.YHat) * 100)
	}
	return g, true
}
