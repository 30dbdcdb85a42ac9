// Package stores is the operation/run audit log — a sqlite-backed service
// placed in the engine's registry so any OperationImpl can reach it via
// engine.ServiceFor[*stores.Store]. Adapted from pkg/stores: the teacher's
// Run/PlanUnit/ResourceState/Fact tables (one per resource-DAG concept) are
// collapsed into two tables matching this engine's actual vocabulary —
// Operation (one row per engine.Handle) and Event (its append-only log,
// itself populated from the same progress-subscriber mechanism
// internal/telemetry hooks into).
package stores

import "time"

// OperationStatus mirrors the engine's own operation lifecycle.
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// Operation is one audited engine operation.
type Operation struct {
	ID          string
	Name        string
	Status      OperationStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventLevel is the severity of one logged Event.
type EventLevel string

const (
	EventLevelDebug EventLevel = "debug"
	EventLevelInfo  EventLevel = "info"
	EventLevelWarn  EventLevel = "warn"
	EventLevelError EventLevel = "error"
)

// Event is one append-only log line tied to an Operation.
type Event struct {
	ID          int64
	OperationID string
	Level       EventLevel
	Message     string
	CreatedAt   time.Time
}
