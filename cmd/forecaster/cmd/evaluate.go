package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SirGarbage/Bitirme-Projesi/internal/services"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

var evaluateSignals []string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Cross-validate the forecasting model per region",
	Long: `Evaluate runs rolling origin cross validation for every region of the
dashboard workbook and writes the RMSE and MAPE summary CSV. A region that
cannot be evaluated is reported in its row and does not fail the run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, err := parseSignals(evaluateSignals)
		if err != nil {
			return err
		}
		return runPipeline(cmd, func(ctx context.Context, p *pipeline, out io.Writer) error {
			run, err := p.service.Evaluate(ctx, signals)
			if err != nil {
				return err
			}
			printEvaluation(out, run)
			return nil
		})
	},
}

func init() {
	evaluateCmd.Flags().StringSliceVar(&evaluateSignals, "signal", nil, "signals to evaluate: population, gdp, gdp_usd (default all available)")
}

func parseSignals(names []string) ([]domain.Signal, error) {
	signals := make([]domain.Signal, 0, len(names))
	for _, name := range names {
		switch s := domain.Signal(name); s {
		case domain.SignalPopulation, domain.SignalGDP, domain.SignalGDPUSD:
			signals = append(signals, s)
		default:
			return nil, fmt.Errorf("unknown signal %q", name)
		}
	}
	return signals, nil
}

func printEvaluation(out io.Writer, run *services.EvaluationRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tSIGNAL\tWINDOWS\tRMSE\tMAPE\tERROR")
	for _, r := range run.Results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.Region, r.Signal, r.Windows, formatMetric(r.RMSE), formatMetric(r.MAPE), r.Err)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d results, %d failed\n", len(run.Results), run.Failed)
	fmt.Fprintf(out, "Summary CSV: %s\n", run.Path)
}

func formatMetric(v domain.NullFloat64) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.4f", v.Float64)
}
