// Package app wires the poverty index calculator into a runnable application.
//
// NewApplication builds, from a validated configuration:
//
//	1. OpenTelemetry tracing and the Prometheus metrics exporter
//	2. the CalculatorService holding the resident dataset and its results
//	3. the HealthService reporting on that state
//	4. the chi router with the request middleware and the /api/v1 routes
//	5. the HTTP server
//
// The same container serves two modes. RunBatch loads one observations file and writes
// the exports next to it, printing validation errors the way the desktop tool reported
// them. Run serves the HTTP view until interrupted.
package app
