// Package app wires the sales dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, the optional YAML file and the environment
//  2. Initialize logging and OpenTelemetry
//  3. Build the data source chain and the dataset store
//  4. Create the websocket hub, report and health services and the refresh scheduler
//  5. Set up the chi router and middleware
//
// # Usage
//
//	a, err := app.NewApplication(ctx)
//	if err != nil {
//	    return err
//	}
//	return a.Run(ctx)
//
// Run blocks until SIGINT or SIGTERM, then stops the scheduler, closes
// websocket clients, drains HTTP requests and flushes telemetry. Errors are
// returned to the caller; the package never exits the process.
package app
