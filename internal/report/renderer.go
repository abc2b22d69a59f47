package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/text/message"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/forecast"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// A4 landscape
var (
	PageWidth  = 297 * vg.Millimeter
	PageHeight = 210 * vg.Millimeter
)

// TopReportSectors is the number of sectors stacked on an economy page
const TopReportSectors = 5

// MinUSDPoints is the fewest valid USD values needed to chart USD GDP
const MinUSDPoints = 2

// Skip records a region left out of a report
type Skip struct {
	Region string
	Reason string
}

// Stats summarises one rendered report
type Stats struct {
	Pages   int
	Skipped []Skip
}

// Renderer draws the PDF reports
type Renderer struct {
	engine  *forecast.Engine
	workers int
	printer *message.Printer
	logger  *slog.Logger
}

// NewRenderer creates a renderer. Forecasts are computed with up to
// workers regions in flight; pages are drawn in region order.
func NewRenderer(engine *forecast.Engine, workers int, logger *slog.Logger) *Renderer {
	return &Renderer{
		engine:  engine,
		workers: workers,
		printer: NewPrinter(),
		logger:  infrastructure.WithComponent(logger, "report"),
	}
}

// page is one report page: a single plot or a vertical stack
type page struct {
	plots []*plot.Plot
}

type populationPage struct {
	history []domain.TimeSeriesPoint
	result  *domain.ForecastResult
}

// RenderPopulation writes one population forecast page per region
func (r *Renderer) RenderPopulation(ctx context.Context, ds *domain.MergedDataset, path string, periods int) (Stats, error) {
	var stats Stats
	regions := ds.RegionNames()

	outcomes := forecast.MapRegions(ctx, regions, r.workers, func(ctx context.Context, region string) (populationPage, error) {
		history := domain.SeriesOf(ds.RegionSlice(region), domain.PopulationOf)
		result, err := r.engine.Forecast(ctx, history, periods)
		return populationPage{history: history, result: result}, err
	})

	var pages []page
	for _, o := range outcomes {
		if o.Err != nil {
			stats.Skipped = append(stats.Skipped, r.skip(ctx, "population", o.Region, o.Err))
			continue
		}

		final, _ := o.Value.result.Last()
		p, err := ForecastChart(o.Value.history, o.Value.result, ForecastOptions{
			Title:  fmt.Sprintf("%s Population Forecast (next %d years)", o.Region, periods),
			XLabel: r.printer.Sprintf("Year    |    Forecast population %s: %d", strconv.Itoa(final.DS.Year()), int64(final.YHat)),
			YLabel: "Population",
			Color:  ColorPopulation,
		})
		if err != nil {
			stats.Skipped = append(stats.Skipped, r.skip(ctx, "population", o.Region, err))
			continue
		}
		pages = append(pages, page{plots: []*plot.Plot{p}})
	}

	if err := r.writePDF(path, pages); err != nil {
		return stats, err
	}
	stats.Pages = len(pages)
	r.logger.InfoContext(ctx, "Population report written",
		slog.String("path", path),
		slog.Int("pages", stats.Pages),
		slog.Int("skipped", len(stats.Skipped)))
	return stats, nil
}

type economyPage struct {
	gdp     *plot.Plot
	sectors *plot.Plot
}

// RenderEconomy writes a GDP and sector composition page per region
// whose GDP total is positive
func (r *Renderer) RenderEconomy(ctx context.Context, ds *domain.MergedDataset, path string, periods int) (Stats, error) {
	var stats Stats
	if !ds.HasEconomicData {
		return stats, apperrors.NewAppValidationError("dataset has no economic data")
	}

	var regions []string
	for _, region := range ds.RegionNames() {
		var total float64
		for _, row := range ds.RegionSlice(region) {
			total += row.GDP
		}
		if total > 0 {
			regions = append(regions, region)
			continue
		}
		stats.Skipped = append(stats.Skipped, Skip{Region: region, Reason: "no GDP data"})
	}

	outcomes := forecast.MapRegions(ctx, regions, r.workers, func(ctx context.Context, region string) (economyPage, error) {
		return r.economyPage(ctx, ds, region, periods)
	})

	var pages []page
	for _, o := range outcomes {
		if o.Err != nil {
			stats.Skipped = append(stats.Skipped, r.skip(ctx, "economy", o.Region, o.Err))
			continue
		}
		pages = append(pages, page{plots: []*plot.Plot{o.Value.gdp, o.Value.sectors}})
	}

	if err := r.writePDF(path, pages); err != nil {
		return stats, err
	}
	stats.Pages = len(pages)
	r.logger.InfoContext(ctx, "Economy report written",
		slog.String("path", path),
		slog.Int("pages", stats.Pages),
		slog.Int("skipped", len(stats.Skipped)))
	return stats, nil
}

func (r *Renderer) economyPage(ctx context.Context, ds *domain.MergedDataset, region string, periods int) (economyPage, error) {
	rows := ds.RegionSlice(region)
	var out economyPage

	history, unit := EconomySeries(ds, rows)
	title := fmt.Sprintf("%s - Economic Outlook (GDP, %s)", region, unit)
	result, err := r.engine.Forecast(ctx, history, periods)
	switch {
	case errors.Is(err, forecast.ErrInsufficientHistory):
		if out.gdp, err = MessageChart(title, "Insufficient data"); err != nil {
			return out, err
		}
	case err != nil:
		return out, err
	default:
		out.gdp, err = ForecastChart(history, result, ForecastOptions{
			Title:  title,
			XLabel: "Year",
			YLabel: fmt.Sprintf("GDP (%s)", unit),
			Color:  ColorEconomy,
		})
		if err != nil {
			return out, err
		}
	}

	sectorTitle := fmt.Sprintf("%s - Top %d sectors", region, TopReportSectors)
	top := forecast.TopHistoricalSectors(rows, ds.Sectors, TopReportSectors)
	layers := make([]Layer, 0, len(top))
	for _, s := range top {
		idx := ds.Sectors.Index(s.Column)
		pts := make(plotter.XYs, 0, len(rows))
		for _, row := range rows {
			if idx < len(row.Shares) {
				pts = append(pts, plotter.XY{X: YearValue(row.Date), Y: row.Shares[idx]})
			}
		}
		layers = append(layers, Layer{Label: s.Label, Points: pts})
	}

	if len(rows) < 2 || len(layers) == 0 {
		out.sectors, err = MessageChart(sectorTitle, "Insufficient data")
	} else {
		out.sectors, err = StackedAreaChart(sectorTitle, "Year", "Sector share (%)", layers, 0)
	}
	return out, err
}

// EconomySeries returns the GDP series to forecast for a region and its
// unit. USD is used when the dataset carries it and the region has enough
// valid USD values; otherwise local currency GDP is used.
func EconomySeries(ds *domain.MergedDataset, rows []domain.MergedRecord) ([]domain.TimeSeriesPoint, string) {
	if ds.HasUSD {
		usd := domain.SeriesOf(rows, domain.GDPUSDOf)
		if len(usd) >= MinUSDPoints {
			return usd, "USD"
		}
	}
	return domain.SeriesOf(rows, domain.GDPOf), "TRY"
}

func (r *Renderer) skip(ctx context.Context, report, region string, err error) Skip {
	r.logger.WarnContext(ctx, "Region skipped",
		slog.String("report", report),
		slog.String("region", region),
		slog.String("reason", err.Error()))
	return Skip{Region: region, Reason: err.Error()}
}

// writePDF draws every page on a multipage canvas and saves it
func (r *Renderer) writePDF(path string, pages []page) error {
	c := vgpdf.New(PageWidth, PageHeight)
	for i, pg := range pages {
		if i > 0 {
			c.NextPage()
		}
		dc := draw.New(c)

		if len(pg.plots) == 1 {
			pg.plots[0].Draw(dc)
			continue
		}

		grid := make([][]*plot.Plot, len(pg.plots))
		for j, p := range pg.plots {
			grid[j] = []*plot.Plot{p}
		}
		tiles := draw.Tiles{
			Rows:      len(pg.plots),
			Cols:      1,
			PadX:      vg.Millimeter * 4,
			PadY:      vg.Millimeter * 6,
			PadTop:    vg.Millimeter * 4,
			PadBottom: vg.Millimeter * 4,
			PadLeft:   vg.Millimeter * 4,
			PadRight:  vg.Millimeter * 4,
		}
		canvases := plot.Align(grid, tiles, dc)
		for j := range grid {
			grid[j][0].Draw(canvases[j][0])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", filepath.Dir(path)), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", path), err)
	}
	defer f.Close()

	if _, err := c.WriteTo(f); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", path), err)
	}
	return f.Close()
}
