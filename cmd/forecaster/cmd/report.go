package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/internal/report"
	"github.com/SirGarbage/Bitirme-Projesi/internal/services"
)

var (
	reportPeriods int
	reportCSV     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the population and economy forecast reports",
	Long: `Report forecasts every region of the dashboard workbook (the USD
workbook when present) and renders one PDF page per region. The economy
report is skipped when the workbook carries no GDP data.

Regions with too little history are skipped and listed in the output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportPeriods < config.MinHorizon || reportPeriods > config.MaxHorizon {
			return fmt.Errorf("--periods must be between %d and %d, got %d",
				config.MinHorizon, config.MaxHorizon, reportPeriods)
		}
		return runPipeline(cmd, func(ctx context.Context, p *pipeline, out io.Writer) error {
			result, err := p.service.Report(ctx, services.ReportOptions{Periods: reportPeriods, CSV: reportCSV})
			if err != nil {
				return err
			}
			printReport(out, result, p.paths)
			return nil
		})
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportPeriods, "periods", config.DefaultHorizon, "years to forecast past the last observation")
	reportCmd.Flags().BoolVar(&reportCSV, "csv", false, "also export every forecast row to CSV")
}

func printReport(out io.Writer, r *services.ReportResult, paths *config.Paths) {
	fmt.Fprintf(out, "Source: %s\n", r.Source)
	printReportStats(out, "Population report", paths.PopulationReport, r.Population)
	if r.Economy != nil {
		printReportStats(out, "Economy report", paths.EconomyReport, *r.Economy)
	}
	if r.CSVPath != "" {
		fmt.Fprintf(out, "Forecasts CSV: %s\n", r.CSVPath)
	}
	printWarnings(out, r.Warnings)
}

func printReportStats(out io.Writer, title, path string, s report.Stats) {
	fmt.Fprintf(out, "%s: %s (%d pages)\n", title, path, s.Pages)
	for _, skip := range s.Skipped {
		fmt.Fprintf(out, "  skipped %s: %s\n", skip.Region, skip.Reason)
	}
}
