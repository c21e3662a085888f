/*
Package observability turns engine lifecycle hooks into telemetry.

Metrics exports Prometheus counters and histograms for activations and steps,
Tracer opens OpenTelemetry spans around each activation, and Combine fans one
set of hooks out to several observers.
*/
package observability
