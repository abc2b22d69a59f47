// Package config provides centralized configuration management for the
// forecasting tools. It loads defaults, an optional YAML file and
// environment overrides, then validates the result.
//
// # Configuration Sources
//
// Sources are applied in this order, later ones winning:
//
//	1. Default values (Default)
//	2. YAML file (config.yaml, configs/config.yaml or an explicit path)
//	3. Environment variables prefixed with FORECAST_
//
// # Environment Variables
//
//	FORECAST_SERVER_PORT=8080
//	FORECAST_LOGGING_LEVEL=debug
//	FORECAST_PATHS_DATA_DIR=/srv/forecast/data
//	FORECAST_FORECAST_HORIZON=10
//	FORECAST_EVALUATION_PARALLEL=false
//
// Exchange rates and the sector taxonomy are only read from the YAML file:
//
//	exchange_rates:
//	  2020: 7.01
//	  2021: 8.89
//	sectors:
//	  - key: agriculture
//	    column: Pay_Tarim
//	    label: Agriculture
//
// # Paths
//
// Relative paths are resolved against the data directory by ResolvePaths.
// Paths is the single place that knows where inputs and outputs live.
package config
