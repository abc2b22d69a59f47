// Package app wires the dashboard server: configuration, logging,
// OpenTelemetry, the dataset, dashboard, websocket and health services,
// the chi router and the HTTP server.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, YAML and the environment
//	2. Initialize logging and OpenTelemetry
//	3. Resolve and create the data, reports and logs directories
//	4. Build the forecast engine and the workbook store
//	5. Wire the services and the websocket hub
//	6. Set up middleware and routes
//	7. Create the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(configPath)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Lifecycle
//
// Start loads the workbook, starts the hub and the reload schedule and
// begins serving. A missing workbook is logged and the server starts
// without data; the readiness check reports not ready until a scheduled
// reload finds it.
//
// Run blocks until SIGINT or SIGTERM, then Stop shuts the server down
// within the configured timeout, stops the schedule and the hub and
// flushes telemetry.
//
// # Error Handling
//
// Initialization errors are returned to the caller. The package never
// calls os.Exit.
package app
