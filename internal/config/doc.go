// Package config loads the calculator configuration.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later sources winning:
//
//  1. Default values (Default)
//  2. A YAML file named by the -config flag or the PINDEX_CONFIG variable
//  3. Environment variables
//
// # Environment Variables
//
// Variables follow the pattern PINDEX_<SECTION>_<FIELD>:
//
//	PINDEX_LOGGING_LEVEL=debug
//	PINDEX_CALCULATION_MAX_CONCURRENCY=4
//	PINDEX_EXPORT_OUTPUT_DIR=/var/lib/pindex
//	PINDEX_SERVER_RATE_LIMIT_RPS=5
//	PINDEX_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Validation
//
// The assembled configuration is validated with go-playground/validator. Any
// failure is returned as a CONFIG AppError naming every offending field.
package config
