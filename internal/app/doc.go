// Package app wires the web service together: configuration, logging,
// OpenTelemetry, the processing pipeline, services, HTTP handlers and the
// middleware chain.
//
// Usage:
//
//	application, err := app.NewApplication(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests and
// flushes telemetry before returning. The package never calls os.Exit.
package app
