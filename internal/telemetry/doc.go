// Package telemetry provides the engine's ambient observability stack:
// structured logging (zerolog), distributed tracing (OpenTelemetry) and
// metrics (Prometheus) around operation execution.
//
// A *Telemetry value is constructed once at process start and placed in the
// engine's service registry, so any OperationImpl hook can reach it via
// engine.ServiceFor[*telemetry.Telemetry] instead of depending on a package
// global — the same "global logger/config: treat as services placed in the
// registry" convention the engine's design notes call for.
package telemetry
