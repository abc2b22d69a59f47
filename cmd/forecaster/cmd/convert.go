package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Add USD GDP columns to the training workbook",
	Long: `Convert reads the training workbook, converts every regional and
national GDP value to USD with the configured yearly exchange rates and
writes the USD workbook. Years without a rate keep an empty USD cell.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, func(ctx context.Context, p *pipeline, out io.Writer) error {
			result, err := p.service.Convert(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "USD workbook: %s\n", result.Path)
			fmt.Fprintf(out, "  rows: %d, converted: %d, without rate: %d\n",
				result.Rows, result.Stats.Converted, result.Stats.Unavailable)
			if len(result.Stats.MissingYears) > 0 {
				years := make([]string, len(result.Stats.MissingYears))
				for i, y := range result.Stats.MissingYears {
					years[i] = strconv.Itoa(y)
				}
				fmt.Fprintf(out, "warning: no exchange rate for %s\n", strings.Join(years, ", "))
			}
			return nil
		})
	},
}
