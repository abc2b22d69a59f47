package forecast

import (
	"context"
	"log/slog"
	"sort"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// SignalSelector returns the row projection for a signal
func SignalSelector(signal domain.Signal) func(domain.MergedRecord) (float64, bool) {
	switch signal {
	case domain.SignalGDP:
		return domain.GDPOf
	case domain.SignalGDPUSD:
		return domain.GDPUSDOf
	default:
		return domain.PopulationOf
	}
}

// EvaluateRegions cross-validates every (region, signal) pair of the
// dataset. A failing pair yields unavailable metrics and an error string;
// the remaining pairs are unaffected. Results are sorted by region, then
// signal.
func EvaluateRegions(ctx context.Context, engine *Engine, ds *domain.MergedDataset, signals []domain.Signal, cfg config.EvaluationConfig, workers int) []domain.EvaluationResult {
	regions := ds.RegionNames()

	outcomes := MapRegions(ctx, regions, workers, func(ctx context.Context, region string) ([]domain.EvaluationResult, error) {
		rows := ds.RegionSlice(region)
		results := make([]domain.EvaluationResult, 0, len(signals))
		for _, signal := range signals {
			results = append(results, evaluateSignal(ctx, engine, region, signal, rows, cfg))
		}
		return results, nil
	})

	var out []domain.EvaluationResult
	for _, o := range outcomes {
		if o.Err != nil {
			engine.logger.ErrorContext(ctx, "Region evaluation failed",
				slog.String("region", o.Region),
				slog.String("error", o.Err.Error()))
			for _, signal := range signals {
				out = append(out, domain.EvaluationResult{Region: o.Region, Signal: signal, Err: o.Err.Error()})
			}
			continue
		}
		out = append(out, o.Value...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Signal < out[j].Signal
	})
	return out
}

func evaluateSignal(ctx context.Context, engine *Engine, region string, signal domain.Signal, rows []domain.MergedRecord, cfg config.EvaluationConfig) domain.EvaluationResult {
	result := domain.EvaluationResult{Region: region, Signal: signal}

	points := domain.SeriesOf(rows, SignalSelector(signal))
	preds, err := CrossValidate(ctx, engine, points, cfg)
	if err == nil {
		var m Metrics
		if m, err = Score(preds); err == nil {
			result.Windows = m.Windows
			result.RMSE = domain.Float(m.RMSE)
			result.MAPE = m.MAPE
			return result
		}
	}

	result.Err = err.Error()
	engine.logger.WarnContext(ctx, "Evaluation skipped",
		slog.String("region", region),
		slog.String("signal", string(signal)),
		slog.String("error", err.Error()))
	return result
}
