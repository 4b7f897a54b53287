// Package observability provides the console's logging, metrics, health
// checking, tracing and shutdown infrastructure.
//
// Logging uses a structured JSON Logger built on stdlib slog. Metrics are
// Prometheus collectors registered under the atendi_ prefix and served via
// promhttp on the health port. HealthChecker exposes liveness/readiness
// probes over the Postgres and Redis dependencies. InitOTel wires optional
// OTLP trace export. ShutdownManager drains HTTP servers and background
// tasks on SIGINT/SIGTERM.
package observability
