package commands

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opereon/opereon/internal/engine"
	"github.com/opereon/opereon/internal/ops"
	"github.com/opereon/opereon/internal/stores"
)

// auditRecorder persists the lifecycle of every runOp-enqueued operation to
// the sqlite audit store: a row in Operation for the run itself and one
// Event per progress notification, keyed off the same progress-subscriber
// mechanism streamServer.broadcast uses for its websocket fan-out. Only
// operations runOp explicitly tracks get a row — the Event table's foreign
// key means an untracked combinator child's snapshot is skipped rather than
// rejected.
type auditRecorder struct {
	store *stores.Store

	mu      sync.Mutex
	tracked map[uuid.UUID]struct{}
}

func newAuditRecorder(store *stores.Store) *auditRecorder {
	return &auditRecorder{store: store, tracked: make(map[uuid.UUID]struct{})}
}

// track inserts the Operation row for id and marks it for event logging.
// Called by runOp immediately after Enqueue; the driver runs concurrently,
// so notifications delivered before track marks id are not recorded.
func (a *auditRecorder) track(ctx context.Context, id uuid.UUID, name string) {
	a.mu.Lock()
	a.tracked[id] = struct{}{}
	a.mu.Unlock()

	now := time.Now()
	op := &stores.Operation{
		ID:        id.String(),
		Name:      name,
		Status:    stores.OperationStatusRunning,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateOperation(ctx, op); err != nil {
		tel.Logger.WithField("operation", name).WithError(err).Error("audit: create operation record failed")
	}
}

// finish transitions id's Operation row to its terminal status, derived from
// the error runOp's h.Wait returned (nil: completed, Cancelled: cancelled,
// anything else: failed).
func (a *auditRecorder) finish(ctx context.Context, id uuid.UUID, runErr error) {
	status := stores.OperationStatusCompleted
	var errMsg *string
	switch {
	case runErr == nil:
	case errors.Is(runErr, engine.Cancelled):
		status = stores.OperationStatusCancelled
	default:
		status = stores.OperationStatusFailed
		msg := runErr.Error()
		errMsg = &msg
	}

	if err := a.store.UpdateOperationStatus(ctx, id.String(), status, errMsg); err != nil {
		tel.Logger.WithOperationID(id.String()).WithError(err).Error("audit: update operation status failed")
	}
}

// onSnapshot is the engine.ProgressCallback that appends one Event per
// progress notification for every tracked operation.
func (a *auditRecorder) onSnapshot(_ *engine.Engine[ops.Outcome], snap engine.OperationSnapshot) {
	a.mu.Lock()
	_, ok := a.tracked[snap.ID]
	a.mu.Unlock()
	if !ok {
		return
	}

	level := stores.EventLevelInfo
	if snap.State == engine.StateCancel {
		level = stores.EventLevelWarn
	}

	ev := &stores.Event{
		OperationID: snap.ID.String(),
		Level:       level,
		Message:     "state: " + snap.State.String(),
		CreatedAt:   time.Now(),
	}
	if err := a.store.AppendEvent(context.Background(), ev); err != nil {
		tel.Logger.WithOperationID(snap.ID.String()).WithError(err).Error("audit: append event failed")
	}
}
