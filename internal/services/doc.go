// Package services holds the application logic between the transports
// and the pipeline packages.
//
// # Services
//
//	- PipelineService: the batch stages behind the forecaster CLI
//	  (prepare, convert, report, evaluate)
//	- DatasetService: owns the workbook served by the dashboard and
//	  reloads it on a cron schedule when the file changes
//	- DashboardService: turns a DashboardRequest into forecasts, growth
//	  metrics, sector shares and SVG charts for one region
//	- HealthService: health, readiness and liveness reports
//
// Every constructor takes a *slog.Logger; nil falls back to the global
// logger. Errors are returned as *errors.AppError so the HTTP layer can
// map them to problem details and the CLI can decide what is fatal.
//
// Parts of a dashboard view that cannot be computed (too little
// history, no GDP data, no sector shares) are reported as warnings in
// the view rather than as errors.
package services
