package engine

import (
	"context"

	"github.com/opereon/opereon/internal/telemetry"
)

// raceHook runs fn on its own goroutine and races its result against
// cancelCh being closed. If cancelCh wins, the zero value of R is returned
// with cancelled=true and fn's goroutine is abandoned — it may still be
// running (e.g. blocked in a slow syscall an implementation forgot to
// route through blocking.Run), but the driver stops waiting for it,
// exactly mirroring the reference design's "races two awaitables at every
// suspension point".
func raceHook[R any](cancelCh <-chan struct{}, fn func() R) (result R, cancelled bool) {
	ch := make(chan R, 1)
	go func() { ch <- fn() }()
	select {
	case r := <-ch:
		return r, false
	case <-cancelCh:
		var zero R
		return zero, true
	}
}

type initResult struct{ err error }
type progressResult struct {
	update ProgressUpdate
	err    error
}
type doneResult[T any] struct {
	value T
	err   error
}

// runDriver is the per-operation state machine: Init -> Progress* -> Done,
// or -> Cancel at any suspension point. It is always run on its own
// goroutine, spawned by Engine.Start on admission.
func (e *Engine[T]) runDriver(op *operation[T]) {
	ctx := context.Background()
	impl := op.takeImpl()
	ref := &OperationRef[T]{op: op}

	initRes, cancelled := raceHook(op.cancelCh, func() initResult {
		return initResult{err: impl.Init(ctx, e, ref)}
	})
	if cancelled {
		e.finishCancelled(op)
		return
	}
	if initRes.err != nil {
		e.finishFailure(op, initRes.err)
		return
	}

	op.setState(StateProgress)

	for {
		progRes, cancelled := raceHook(op.cancelCh, func() progressResult {
			update, err := impl.NextProgress(ctx, e, ref)
			return progressResult{update: update, err: err}
		})
		if cancelled {
			e.finishCancelled(op)
			return
		}
		if progRes.err != nil {
			e.finishFailure(op, progRes.err)
			return
		}
		if progRes.update.IsDone() {
			break
		}
		if op.mergeProgress(progRes.update) {
			e.notify(snapshotOf(op))
		}
	}

	doneRes, cancelled := raceHook(op.cancelCh, func() doneResult[T] {
		value, err := impl.Done(ctx, e, ref)
		return doneResult[T]{value: value, err: err}
	})
	if cancelled {
		e.finishCancelled(op)
		return
	}
	if doneRes.err != nil {
		e.finishFailure(op, doneRes.err)
		return
	}

	op.setState(StateDone)
	e.notify(snapshotOf(op))
	e.remove(op.id)
	op.setOutcome(doneRes.value, nil)
}

func (e *Engine[T]) finishCancelled(op *operation[T]) {
	e.logTelemetry(op, func(l *telemetry.Logger) { l.WithOperationID(op.id.String()).Warn("operation cancelled") })
	op.setState(StateCancel)
	op.setState(StateDone)
	e.notify(snapshotOf(op))
	e.remove(op.id)
	var zero T
	op.setOutcome(zero, Cancelled)
}

func (e *Engine[T]) finishFailure(op *operation[T], err error) {
	e.logTelemetry(op, func(l *telemetry.Logger) {
		l.WithOperationID(op.id.String()).WithError(err).Error("operation failed")
	})
	op.setState(StateDone)
	e.notify(snapshotOf(op))
	e.remove(op.id)
	var zero T
	op.setOutcome(zero, err)
}

// logTelemetry invokes fn with the *telemetry.Telemetry logger registered
// for this engine, if any. Engines constructed without a telemetry service
// (most of this package's own tests, which run over plain T instead of
// opereon's domain Outcome) silently skip logging rather than error — the
// driver's failure path must not depend on a service every caller opts into.
func (e *Engine[T]) logTelemetry(op *operation[T], fn func(*telemetry.Logger)) {
	guard, err := ServiceFor[*telemetry.Telemetry](e.registry)
	if err != nil {
		return
	}
	defer guard.Release()
	fn(guard.Value().Logger.WithField("operation_name", op.name))
}
