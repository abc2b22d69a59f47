package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// Metrics are the averaged cross-validation errors of one series
type Metrics struct {
	Windows int
	RMSE    float64
	// MAPE is a fraction, not a percentage
	MAPE domain.NullFloat64
}

// Prediction pairs an out-of-sample forecast with the observed value
type Prediction struct {
	Cutoff time.Time
	DS     time.Time
	YHat   float64
	Y      float64
}

// Cutoffs returns the rolling origins for a history running from first
// to last. They step back from last-horizon by period while at least
// initial of history precedes them, and are returned ascending.
func Cutoffs(first, last time.Time, cfg config.EvaluationConfig) []time.Time {
	var out []time.Time
	if cfg.Period <= 0 {
		return out
	}
	earliest := first.Add(cfg.Initial)
	for cutoff := last.Add(-cfg.Horizon); !cutoff.Before(earliest); cutoff = cutoff.Add(-cfg.Period) {
		out = append(out, cutoff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// CrossValidate runs a rolling origin evaluation of the engine on points.
// Windows run concurrently when cfg.Parallel is set; each window owns a
// slot so the output does not depend on scheduling.
func CrossValidate(ctx context.Context, engine *Engine, points []domain.TimeSeriesPoint, cfg config.EvaluationConfig) ([]Prediction, error) {
	if len(points) < MinHistoryPoints {
		return nil, apperrors.NewInsufficientHistoryError("cross validation", len(points))
	}

	sorted := make([]domain.TimeSeriesPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DS.Before(sorted[j].DS) })

	cutoffs := Cutoffs(sorted[0].DS, sorted[len(sorted)-1].DS, cfg)
	if len(cutoffs) == 0 {
		return nil, apperrors.NewInsufficientHistoryError(
			fmt.Sprintf("cross validation needs %s of history plus %s", cfg.Initial, cfg.Horizon), len(points))
	}

	slots := make([][]Prediction, len(cutoffs))
	window := func(ctx context.Context, i int) error {
		preds, err := evaluateWindow(ctx, engine, sorted, cutoffs[i], cfg.Horizon)
		if err != nil {
			return fmt.Errorf("cutoff %s: %w", cutoffs[i].Format("2006-01-02"), err)
		}
		slots[i] = preds
		return nil
	}

	if cfg.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		if cfg.Workers > 0 {
			g.SetLimit(cfg.Workers)
		}
		for i := range cutoffs {
			g.Go(func() error { return window(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range cutoffs {
			if err := window(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	var out []Prediction
	for _, s := range slots {
		out = append(out, s...)
	}
	return out, nil
}

func evaluateWindow(ctx context.Context, engine *Engine, points []domain.TimeSeriesPoint, cutoff time.Time, horizon time.Duration) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var train []domain.TimeSeriesPoint
	var test []domain.TimeSeriesPoint
	end := cutoff.Add(horizon)
	for _, p := range points {
		switch {
		case !p.DS.After(cutoff):
			train = append(train, p)
		case !p.DS.After(end):
			test = append(test, p)
		}
	}
	if len(test) == 0 {
		return nil, nil
	}

	m, err := engine.Fit(train)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(test))
	for i, p := range test {
		dates[i] = p.DS
	}
	rows := m.Predict(dates, engine.z)

	out := make([]Prediction, len(test))
	for i, p := range test {
		out[i] = Prediction{Cutoff: cutoff, DS: p.DS, YHat: rows[i].YHat, Y: p.Y}
	}
	return out, nil
}

// Score groups predictions by horizon, computes RMSE and MAPE per group
// and averages them. Actuals equal to 0 are left out of MAPE.
func Score(preds []Prediction) (Metrics, error) {
	if len(preds) == 0 {
		return Metrics{}, apperrors.NewInsufficientHistoryError("cross validation produced no predictions", 0)
	}

	type group struct {
		sq   float64
		n    int
		ape  float64
		apeN int
	}
	groups := make(map[time.Duration]*group)
	cutoffs := make(map[time.Time]struct{})
	for _, p := range preds {
		cutoffs[p.Cutoff] = struct{}{}
		h := p.DS.Sub(p.Cutoff)
		g, ok := groups[h]
		if !ok {
			g = &group{}
			groups[h] = g
		}
		e := p.YHat - p.Y
		g.sq += e * e
		g.n++
		if p.Y != 0 {
			g.ape += math.Abs(e / p.Y)
			g.apeN++
		}
	}

	// Fixed summation order keeps the result reproducible
	horizons := make([]time.Duration, 0, len(groups))
	for h := range groups {
		horizons = append(horizons, h)
	}
	sort.Slice(horizons, func(i, j int) bool { return horizons[i] < horizons[j] })

	var rmse, mape float64
	var mapeGroups int
	for _, h := range horizons {
		g := groups[h]
		rmse += math.Sqrt(g.sq / float64(g.n))
		if g.apeN > 0 {
			mape += g.ape / float64(g.apeN)
			mapeGroups++
		}
	}

	m := Metrics{
		Windows: len(cutoffs),
		RMSE:    rmse / float64(len(groups)),
	}
	if mapeGroups > 0 {
		m.MAPE = domain.Float(mape / float64(mapeGroups))
	}
	return m, nil
}
