package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(context.Background(), Config{Path: filepath.Join(dir, "opereon.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetOperation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	op := &Operation{ID: "op-1", Name: "ModelUpdate", Status: OperationStatusRunning, StartedAt: now, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateOperation(ctx, op))

	got, err := s.GetOperation(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, "ModelUpdate", got.Name)
	assert.Equal(t, OperationStatusRunning, got.Status)
}

func TestGetOperationMissingErrors(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetOperation(context.Background(), "nope")
	assert.Error(t, err)
}

func TestUpdateOperationStatusStampsCompletedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.CreateOperation(ctx, &Operation{ID: "op-1", Name: "ModelCheck", Status: OperationStatusRunning, StartedAt: now, CreatedAt: now, UpdatedAt: now}))

	require.NoError(t, s.UpdateOperationStatus(ctx, "op-1", OperationStatusCompleted, nil))

	got, err := s.GetOperation(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, OperationStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestAppendAndListEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.CreateOperation(ctx, &Operation{ID: "op-1", Name: "ModelCheck", Status: OperationStatusRunning, StartedAt: now, CreatedAt: now, UpdatedAt: now}))

	require.NoError(t, s.AppendEvent(ctx, &Event{OperationID: "op-1", Level: EventLevelInfo, Message: "started", CreatedAt: now}))
	require.NoError(t, s.AppendEvent(ctx, &Event{OperationID: "op-1", Level: EventLevelInfo, Message: "finished", CreatedAt: now}))

	events, err := s.ListEvents(ctx, "op-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "started", events[0].Message)
	assert.Equal(t, "finished", events[1].Message)
}

func TestListOperationsOrdersByCreatedAtDesc(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t0 := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)
	t1 := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.CreateOperation(ctx, &Operation{ID: "older", Name: "a", Status: OperationStatusCompleted, StartedAt: t0, CreatedAt: t0, UpdatedAt: t0}))
	require.NoError(t, s.CreateOperation(ctx, &Operation{ID: "newer", Name: "b", Status: OperationStatusCompleted, StartedAt: t1, CreatedAt: t1, UpdatedAt: t1}))

	ops, err := s.ListOperations(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "newer", ops[0].ID)
	assert.Equal(t, "older", ops[1].ID)
}
