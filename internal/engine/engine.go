package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// OperationSnapshot is a read-only view of one live operation, as returned
// by Engine.Operations and passed to progress subscribers.
type OperationSnapshot struct {
	ID       uuid.UUID
	Name     string
	State    OperationState
	Progress Progress
}

func snapshotOf[T any](op *operation[T]) OperationSnapshot {
	return OperationSnapshot{
		ID:       op.id,
		Name:     op.name,
		State:    op.getState(),
		Progress: op.snapshotProgress(),
	}
}

// ProgressCallback is notified on every progress change for every live
// operation, and once more on its terminal transition (which is always the
// last notification for that operation). Panics raised by a callback are
// recovered by the engine and do not affect other subscribers or the run
// loop.
type ProgressCallback[T any] func(eng *Engine[T], snap OperationSnapshot)

// Handle is the small, cloneable value a caller receives from Enqueue: the
// operation's id, plus a way to await its eventual outcome. Dropping a
// Handle does not cancel the operation — cancellation is always explicit,
// via Engine.Cancel or a parent combinator.
type Handle[T any] struct {
	id uuid.UUID
	op *operation[T]
}

// ID returns the handle's operation id.
func (h Handle[T]) ID() uuid.UUID { return h.id }

// Wait blocks until the operation reaches its terminal state and returns
// its outcome, or returns ctx.Err() if ctx is cancelled first (the
// operation itself keeps running in that case — Wait is a read of the
// result, not a cancellation request).
func (h Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.op.doneCh:
		o := h.op.outcome
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Engine is the scheduler core: it owns the operation table, the admission
// queue, the progress-subscriber list, the service registry and a
// caller-supplied user state value, and drives the run loop that admits
// queued operations FIFO and spawns a driver goroutine for each.
//
// Every operation enqueued on one Engine produces outcomes of type T.
type Engine[T any] struct {
	mu             sync.Mutex
	operations     map[uuid.UUID]*operation[T]
	admissionQueue []*operation[T]
	shutdown       bool

	wake chan struct{}
	wg   sync.WaitGroup

	subMu       sync.RWMutex
	subscribers []ProgressCallback[T]

	registry  *Registry
	userState any
}

// New constructs an Engine preloaded with a fixed set of services (see
// Registry) and a caller-chosen user state value, accessible later via
// UserState.
func New[T any](services []any, userState any) *Engine[T] {
	return &Engine[T]{
		operations: make(map[uuid.UUID]*operation[T]),
		wake:       make(chan struct{}, 1),
		registry:   NewRegistry(services...),
		userState:  userState,
	}
}

// Registry returns the engine's service registry, for use with ServiceFor.
func (e *Engine[T]) Registry() *Registry { return e.registry }

// UserState returns the shared, caller-supplied user state value. The
// engine treats it as opaque and immutable from its own perspective —
// any interior mutability is the caller's concern, as the design requires.
func (e *Engine[T]) UserState() any { return e.userState }

func (e *Engine[T]) signalWake() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Enqueue assigns an operation a fresh identity, inserts it into the
// operation table, appends it to the FIFO admission queue and returns a
// Handle. It returns ErrShutdown if Stop has already been called.
func (e *Engine[T]) Enqueue(name string, impl OperationImpl[T]) (Handle[T], error) {
	op := newOperation[T](name, impl)

	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		return Handle[T]{}, ErrShutdown
	}
	e.operations[op.id] = op
	e.admissionQueue = append(e.admissionQueue, op)
	e.mu.Unlock()

	e.signalWake()
	return Handle[T]{id: op.id, op: op}, nil
}

// EnqueueAndWait enqueues op and blocks until its outcome is available or
// ctx is done.
func (e *Engine[T]) EnqueueAndWait(ctx context.Context, name string, impl OperationImpl[T]) (T, error) {
	h, err := e.Enqueue(name, impl)
	if err != nil {
		var zero T
		return zero, err
	}
	return h.Wait(ctx)
}

// Cancel requests cancellation of the operation with the given id. It is
// fire-and-forget and idempotent: multiple cancels coalesce, and
// cancelling an id with no live (non-terminal) operation is a silent
// no-op.
func (e *Engine[T]) Cancel(id uuid.UUID) {
	e.mu.Lock()
	op, ok := e.operations[id]
	e.mu.Unlock()
	if !ok {
		return
	}
	op.requestCancel()
}

// Operations returns a snapshot of every currently-live operation.
func (e *Engine[T]) Operations() []OperationSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]OperationSnapshot, 0, len(e.operations))
	for _, op := range e.operations {
		out = append(out, snapshotOf(op))
	}
	return out
}

// RegisterProgressCallback subscribes cb to every progress change (and
// terminal transition) of every operation run by this engine.
func (e *Engine[T]) RegisterProgressCallback(cb ProgressCallback[T]) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	e.subscribers = append(e.subscribers, cb)
}

func (e *Engine[T]) notify(snap OperationSnapshot) {
	e.subMu.RLock()
	subs := make([]ProgressCallback[T], len(e.subscribers))
	copy(subs, e.subscribers)
	e.subMu.RUnlock()

	for _, cb := range subs {
		e.invokeSubscriber(cb, snap)
	}
}

func (e *Engine[T]) invokeSubscriber(cb ProgressCallback[T], snap OperationSnapshot) {
	defer func() {
		// A panicking subscriber must not bring down the run loop or
		// affect other subscribers.
		_ = recover()
	}()
	cb(e, snap)
}

func (e *Engine[T]) remove(id uuid.UUID) {
	e.mu.Lock()
	delete(e.operations, id)
	e.mu.Unlock()
}

// Start drives the run loop: it admits queued operations FIFO, spawning a
// driver goroutine for each, until Stop has been called and every live
// operation has reached its terminal state. Start returns only then.
func (e *Engine[T]) Start() {
	for {
		e.mu.Lock()
		if len(e.admissionQueue) > 0 {
			op := e.admissionQueue[0]
			e.admissionQueue = e.admissionQueue[1:]
			e.mu.Unlock()

			e.wg.Add(1)
			go func(op *operation[T]) {
				defer e.wg.Done()
				e.runDriver(op)
			}(op)
			continue
		}

		shutdown := e.shutdown
		e.mu.Unlock()

		if shutdown {
			e.wg.Wait()
			return
		}

		<-e.wake
	}
}

// Stop sets the shutdown flag. The run loop drains any already-queued
// operations, waits for every live operation to terminate, and then
// returns from Start.
func (e *Engine[T]) Stop() {
	e.mu.Lock()
	e.shutdown = true
	e.mu.Unlock()
	e.signalWake()
}
