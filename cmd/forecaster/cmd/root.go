// Package cmd provides the batch commands of the forecaster CLI.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/internal/forecast"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/internal/services"
)

var (
	cfgFile  string
	logLevel string
	workers  int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "forecaster",
	Short: "Regional population and GDP forecasting pipeline",
	Long: `forecaster prepares the regional population and sector GDP workbooks,
converts them to USD, renders the forecast reports and cross-validates
the forecasting model.

Examples:
  forecaster prepare
  forecaster convert
  forecaster report --periods 10 --csv
  forecaster evaluate --signal population`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./config.yaml and ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "regions processed concurrently (default from config)")

	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(versionCmd)
}

// pipeline bundles what every batch command needs
type pipeline struct {
	cfg     *config.Config
	paths   *config.Paths
	service *services.PipelineService
	logger  *slog.Logger
	otel    *infrastructure.OTelProviders
}

func (p *pipeline) close() {
	if p.otel != nil {
		if err := p.otel.Shutdown(context.Background()); err != nil {
			p.logger.Warn("Failed to shut down telemetry", slog.String("error", err.Error()))
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
}

// newPipeline loads the configuration and wires the pipeline service.
// Logs go to stderr so stdout carries only command output.
func newPipeline() (*pipeline, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if workers < 0 {
		return nil, fmt.Errorf("--workers must not be negative, got %d", workers)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	paths.LogPathResolution(logger)

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.ServiceName = "forecaster-cli"
	otelCfg.MetricExporter = "none"
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	metrics, err := infrastructure.CreateForecastMetrics(providers.Meter)
	if err != nil {
		logger.Warn("Forecast metrics disabled", slog.String("error", err.Error()))
		metrics = nil
	}

	engine, err := forecast.NewEngine(cfg.Forecast, logger)
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, err
	}

	return &pipeline{
		cfg:     cfg,
		paths:   paths,
		service: services.NewPipelineService(cfg, paths, engine, workers, metrics, logger),
		logger:  logger,
		otel:    providers,
	}, nil
}

// runPipeline wires the pipeline and runs fn until it returns or the
// process is interrupted
func runPipeline(cmd *cobra.Command, fn func(ctx context.Context, p *pipeline, out io.Writer) error) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	if err := fn(ctx, p, cmd.OutOrStdout()); err != nil {
		infrastructure.WithError(p.logger, err).ErrorContext(ctx, "Command failed",
			slog.String("command", cmd.Name()))
		return err
	}
	return nil
}
