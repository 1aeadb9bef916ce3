// Package app wires the fedstat server together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Resolve directories and create them
//	2. Initialize OpenTelemetry and the business metrics
//	3. Open the optional SQLite store
//	4. Build the upstream source and the services
//	5. Set up middleware, handlers and the HTTP server
//
// # Usage
//
//	cfg, err := config.Load()
//	...
//	application, err := app.NewApplication(cfg)
//	...
//	return application.Run()
//
// # Graceful Shutdown
//
// Run waits for SIGINT or SIGTERM, then stops accepting connections, lets
// in-flight requests finish within the configured shutdown timeout, closes
// the SQLite store and flushes telemetry. Initialization errors are returned
// to the caller; the package never calls os.Exit.
package app
