package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// MinHistoryPoints is the shortest series the engine will fit
const MinHistoryPoints = 2

// ErrInsufficientHistory matches, via errors.Is, every error returned for
// a series too short to model. Callers treat it as a skip.
var ErrInsufficientHistory error = &apperrors.AppError{Type: apperrors.ErrTypeInsufficientHistory}

// Engine fits and extrapolates yearly series
type Engine struct {
	cfg    config.ForecastConfig
	z      float64
	logger *slog.Logger
}

// NewEngine creates an engine with the given model settings
func NewEngine(cfg config.ForecastConfig, logger *slog.Logger) (*Engine, error) {
	if cfg.IntervalWidth <= 0 || cfg.IntervalWidth >= 1 {
		return nil, apperrors.NewConfigError(fmt.Sprintf("interval width %.3f must be in (0,1)", cfg.IntervalWidth), nil)
	}
	if cfg.ChangepointPriorScale <= 0 || cfg.SeasonalityPriorScale <= 0 {
		return nil, apperrors.NewConfigError("prior scales must be positive", nil)
	}
	return &Engine{
		cfg:    cfg,
		z:      distuv.UnitNormal.Quantile((1 + cfg.IntervalWidth) / 2),
		logger: infrastructure.WithComponent(logger, "forecast_engine"),
	}, nil
}

// Config returns the model settings
func (e *Engine) Config() config.ForecastConfig {
	return e.cfg
}

// Fit estimates a model on the given history.
// The input is not modified; a sorted copy is used. Points sharing a
// date are averaged into one observation.
func (e *Engine) Fit(points []domain.TimeSeriesPoint) (*Model, error) {
	sorted := dedupe(points)
	if len(sorted) < MinHistoryPoints {
		return nil, apperrors.NewInsufficientHistoryError("series", len(sorted))
	}

	m, err := fit(sorted, e.cfg)
	if err != nil {
		return nil, apperrors.NewCalculationError("model fit failed", err)
	}
	return m, nil
}

// dedupe returns a date-sorted copy of points with one point per date.
// Values of repeated dates are averaged.
func dedupe(points []domain.TimeSeriesPoint) []domain.TimeSeriesPoint {
	sorted := make([]domain.TimeSeriesPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DS.Before(sorted[j].DS)
	})

	out := sorted[:0]
	count := 0
	for _, p := range sorted {
		if len(out) > 0 && p.DS.Equal(out[len(out)-1].DS) {
			last := &out[len(out)-1]
			count++
			last.Y += (p.Y - last.Y) / float64(count)
			continue
		}
		out = append(out, p)
		count = 1
	}
	return out
}

// Forecast fits the history and returns one row per historical date
// followed by periods future year-end dates
func (e *Engine) Forecast(ctx context.Context, points []domain.TimeSeriesPoint, periods int) (*domain.ForecastResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if periods < 0 {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("periods %d must not be negative", periods))
	}

	m, err := e.Fit(points)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(m.history)+periods)
	for _, p := range m.history {
		dates = append(dates, p.DS)
	}
	dates = append(dates, FutureDates(m.history[len(m.history)-1].DS, periods)...)

	e.logger.DebugContext(ctx, "Forecast fitted",
		slog.Int("points", len(m.history)),
		slog.Int("periods", periods),
		slog.Int("changepoints", len(m.changepoints)),
		slog.Int("seasonal_terms", len(m.seasonal)),
		slog.Float64("sigma", m.sigma))

	return &domain.ForecastResult{
		Rows:    m.Predict(dates, e.z),
		Periods: periods,
	}, nil
}

// Z returns the normal quantile used for the interval band
func (e *Engine) Z() float64 {
	return e.z
}

// FutureDates returns December 31st of each of the n years after last
func FutureDates(last time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = domain.YearEnd(last.Year() + i + 1)
	}
	return out
}
