// Package services implements the business logic behind the HTTP API.
//
// IndicatorService validates requests, builds a fresh fedstat.Indicator for
// every call and runs the processing pipeline. Combined requests download
// both indicators concurrently before reconciling and summing them.
// HealthService reports process and dependency health.
//
// Services take their dependencies through constructors and log with the
// injected *slog.Logger.
package services
