// Package http implements the HTTP handlers of the fedstat server.
//
// Handlers stay thin: they parse query parameters into service requests,
// call the services package and render the result. Tables are returned as
// JSON by default, or streamed as CSV or XLSX when the format parameter asks
// for it. Every error goes through errors.ErrorHandler and is rendered as
// RFC 7807 problem details.
//
// Routes
//
//	GET  /api/indicators/{id}        title and filter catalog
//	GET  /api/indicators/{id}/data   processed table
//	GET  /api/combined               sum of two indicators
//	GET  /api/tables                 tables saved in SQLite
//	POST /api/tables                 process and save a table
//	GET  /api/tables/{name}          saved table
//	GET  /healthz, /readyz           liveness and readiness
//	GET  /api/version                build information
package http
