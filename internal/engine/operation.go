package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// OperationState is one of the four states an Operation passes through.
// Legal transitions are Init -> Progress -> Done, or Init/Progress ->
// Cancel -> Done; no other transition is valid.
type OperationState int

const (
	// StateInit is the state before Init has returned.
	StateInit OperationState = iota
	// StateProgress is the state while NextProgress is being polled.
	StateProgress
	// StateDone is the terminal state once Done has returned (or a hook
	// failed, or cancellation intercepted).
	StateDone
	// StateCancel is a transient state entered when a cancel signal
	// preempts Init, NextProgress or Done; it always resolves to StateDone.
	StateCancel
)

func (s OperationState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateProgress:
		return "progress"
	case StateDone:
		return "done"
	case StateCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// OperationImpl is the three-hook contract every operation plugs into the
// engine. All three hooks are called by the driver, never directly by user
// code. Init is called at most once, before any NextProgress call;
// NextProgress is called zero or more times, each returning either a new
// progress value or the ProgressDone marker; Done is called exactly once,
// after the last NextProgress reported done (or immediately after Init, if
// NextProgress is never overridden away from the done-immediately default).
//
// Embed NopInit[T] and/or ImmediateProgress[T] to pick up the reference
// implementation's default behavior for the hooks an operation does not
// need to customize.
type OperationImpl[T any] interface {
	Init(ctx context.Context, eng *Engine[T], self *OperationRef[T]) error
	NextProgress(ctx context.Context, eng *Engine[T], self *OperationRef[T]) (ProgressUpdate, error)
	Done(ctx context.Context, eng *Engine[T], self *OperationRef[T]) (T, error)
}

// NopInit provides the default Init hook: a no-op success. Embed it in an
// OperationImpl that has no setup to perform.
type NopInit[T any] struct{}

// Init implements OperationImpl's default no-op setup hook.
func (NopInit[T]) Init(context.Context, *Engine[T], *OperationRef[T]) error { return nil }

// ImmediateProgress provides the default NextProgress hook: reports done
// immediately, so the operation transitions Init -> Done in one step. Embed
// it in an OperationImpl that reports no intermediate progress.
type ImmediateProgress[T any] struct{}

// NextProgress implements OperationImpl's default single-step completion.
func (ImmediateProgress[T]) NextProgress(context.Context, *Engine[T], *OperationRef[T]) (ProgressUpdate, error) {
	return ProgressDone(), nil
}

// outcome bundles the result of a terminal operation: exactly one of Value
// or Err is meaningful, matching the Rust OperationResult<T> = Result<T,
// OperationError>.
type outcome[T any] struct {
	value T
	err   error
}

// operation is the engine's authoritative record for a single scheduled
// unit of work: identity, parent link, name, state, progress, the boxed
// implementation (taken exactly once by the driver), and the channels that
// make completion and cancellation observable.
type operation[T any] struct {
	mu sync.Mutex

	id     uuid.UUID
	parent uuid.UUID // uuid.Nil for roots
	name   string

	state    OperationState
	progress Progress

	impl     OperationImpl[T]
	implUsed bool

	outcome *outcome[T]

	doneCh     chan struct{}
	doneClosed bool

	cancelCh   chan struct{}
	cancelOnce sync.Once
}

func newOperation[T any](name string, impl OperationImpl[T]) *operation[T] {
	return &operation[T]{
		id:       uuid.New(),
		name:     name,
		state:    StateInit,
		progress: DefaultProgress(),
		impl:     impl,
		doneCh:   make(chan struct{}),
		cancelCh: make(chan struct{}),
	}
}

// takeImpl returns the boxed implementation exactly once; subsequent calls
// return nil. This is the Go analogue of Rust's Option::take on the boxed
// trait object.
func (o *operation[T]) takeImpl() OperationImpl[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.implUsed {
		return nil
	}
	o.implUsed = true
	impl := o.impl
	o.impl = nil
	return impl
}

func (o *operation[T]) setState(s OperationState) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *operation[T]) getState() OperationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// mergeProgress clamps and applies a progress update, returning whether the
// value actually changed (and thus whether subscribers should be notified).
func (o *operation[T]) mergeProgress(update ProgressUpdate) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if update.IsDone() {
		return false
	}
	return o.progress.Set(update.Value())
}

func (o *operation[T]) snapshotProgress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// setOutcome deposits the terminal outcome exactly once and fires the done
// notifier. Calling it twice is a programming error in the driver and
// panics, matching the invariant "outcome set exactly once before done
// notifier fires".
func (o *operation[T]) setOutcome(value T, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcome != nil {
		panic("engine: outcome already set for operation " + o.id.String())
	}
	o.outcome = &outcome[T]{value: value, err: err}
	if !o.doneClosed {
		o.doneClosed = true
		close(o.doneCh)
	}
}

func (o *operation[T]) requestCancel() {
	o.cancelOnce.Do(func() { close(o.cancelCh) })
}

// OperationRef is the handle a hook receives for its own operation: it
// exposes read access to identity, name and progress, and lets cooperative
// code observe its own cancel signal (e.g. to forward SIGTERM to a child
// process, or fan cancellation out to child operations as the combinators
// do).
type OperationRef[T any] struct {
	op *operation[T]
}

// ID returns the operation's identifier, stable for its lifetime.
func (r *OperationRef[T]) ID() uuid.UUID { return r.op.id }

// Name returns the operation's human-readable name.
func (r *OperationRef[T]) Name() string { return r.op.name }

// State returns the operation's current state.
func (r *OperationRef[T]) State() OperationState { return r.op.getState() }

// Progress returns a snapshot of the operation's current progress.
func (r *OperationRef[T]) Progress() Progress { return r.op.snapshotProgress() }

// Cancelled returns a channel that is closed once Cancel(id) has been
// called for this operation. It may be read from multiple goroutines (the
// driver, and any companion goroutine an implementation's Init spawns to
// watch for cancellation), since a closed channel broadcasts to every
// reader — the Go idiom for the reference design's "capacity >= 1,
// idempotent, multi-producer single-consumer" cancel channel.
func (r *OperationRef[T]) Cancelled() <-chan struct{} { return r.op.cancelCh }
