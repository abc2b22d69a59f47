package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/SirGarbage/Bitirme-Projesi/internal/services"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Merge the population and economic sources into the training workbook",
	Long: `Prepare reads the population workbook and the sector GDP workbook,
normalizes region names and sector shares, merges them per region and year
and writes the training workbook.

A missing economic source is reported as a warning and the workbook is
written with population data only. A missing population source is fatal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, func(ctx context.Context, p *pipeline, out io.Writer) error {
			result, err := p.service.Prepare(ctx)
			if err != nil {
				return err
			}
			printPrepare(out, result)
			return nil
		})
	},
}

func printPrepare(out io.Writer, r *services.PrepareResult) {
	fmt.Fprintf(out, "Training workbook: %s\n", r.Path)
	fmt.Fprintf(out, "  rows: %d, regions: %d\n", r.Rows, r.Regions)
	fmt.Fprintf(out, "  population: %d rows read, %d loaded, %d skipped\n",
		r.Population.Rows, r.Population.Loaded, r.Population.Skipped)

	if r.Economic != nil {
		fmt.Fprintf(out, "  economic: %d rows, %d years, %d records, %d skipped, %d values coerced\n",
			r.Economic.Rows, r.Economic.Years, r.Economic.Records, r.Economic.Skipped, r.Economic.Coerced)
	} else {
		fmt.Fprintln(out, "  economic: not available")
	}

	m := r.Merge
	fmt.Fprintf(out, "  merge: %d matched, %d forward filled, %d zero filled, %d duplicates dropped\n",
		m.Matched, m.ForwardFilled, m.ZeroFilled, m.DuplicateEconomic)
	if len(m.RegionsWithoutEconomicData) > 0 {
		fmt.Fprintf(out, "  regions without economic data: %d\n", len(m.RegionsWithoutEconomicData))
	}

	printWarnings(out, r.Warnings)
}

func printWarnings(out io.Writer, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}
