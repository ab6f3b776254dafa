// Package telemetry sets up OpenTelemetry tracing and metrics for VitaNote.
//
// Telemetry is off by default. When enabled, spans and metrics are exported
// over OTLP (gRPC or HTTP/protobuf). Exporter failures degrade telemetry
// instead of stopping the server.
package telemetry
