// Package http provides the HTTP view of the poverty index calculator.
//
// DatasetHandler accepts an observations file upload, exposes the resident dataset
// (observations, people, persistence ratios, validation errors, panels and poverty
// index results) as JSON listings and streams the ';' delimited and xlsx exports.
// HealthHandler reports liveness and the state of the loaded dataset.
//
// Errors are rendered as RFC 7807 problem details by the shared error handler.
package http
