// Package telemetry provides reactive.Hooks implementations backed by
// Prometheus and OpenTelemetry.
//
// Install them through the runtime configuration:
//
//	reg := prometheus.NewRegistry()
//	reactive.Configure(reactive.Config{
//	    Hooks: telemetry.Combine(
//	        telemetry.Prometheus(telemetry.WithRegistry(reg)),
//	        telemetry.OpenTelemetry(),
//	    ),
//	})
package telemetry
