// Package instrument wires OpenTelemetry tracing, metrics and logs and
// installs the structured slog logger used across the service.
//
// Log records carry the request correlation id and have sensitive keys
// (one-time codes, API keys) replaced before they leave the process.
package instrument
