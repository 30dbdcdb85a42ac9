package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// valueOp is the simplest possible operation: it reports no progress and
// produces a fixed string outcome.
type valueOp struct {
	NopInit[string]
	ImmediateProgress[string]
	val string
}

func (o valueOp) Done(context.Context, *Engine[string], *OperationRef[string]) (string, error) {
	return o.val, nil
}

func TestTrivialCompletion(t *testing.T) {
	eng := New[string](nil, nil)
	go eng.Start()
	defer eng.Stop()

	h, err := eng.Enqueue("trivial", valueOp{val: "ok"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	assert.Empty(t, eng.Operations(), "operation table must be empty after completion")
}

// steppedOp reports 20,40,60,80,100 then done; the test's progress
// callback records every observed value to assert on ordering and spacing.
type steppedOp struct {
	NopInit[string]
	steps []float64
	i     int
}

func (o *steppedOp) NextProgress(context.Context, *Engine[string], *OperationRef[string]) (ProgressUpdate, error) {
	if o.i >= len(o.steps) {
		return ProgressDone(), nil
	}
	v := o.steps[o.i]
	o.i++
	return NewProgressUpdate(v), nil
}

func (o *steppedOp) Done(context.Context, *Engine[string], *OperationRef[string]) (string, error) {
	return "done", nil
}

func TestProgressSequence(t *testing.T) {
	eng := New[string](nil, nil)

	var mu sync.Mutex
	var observed []float64
	var terminal bool

	eng.RegisterProgressCallback(func(_ *Engine[string], snap OperationSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		if snap.State == StateDone {
			terminal = true
			return
		}
		observed = append(observed, snap.Progress.Value())
	})

	go eng.Start()
	defer eng.Stop()

	op := &steppedOp{steps: []float64{20, 40, 60, 80, 100}}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := eng.EnqueueAndWait(ctx, "stepped", op)
	require.NoError(t, err)
	assert.Equal(t, "done", out)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{20, 40, 60, 80, 100}, observed)
	assert.True(t, terminal, "terminal notification must fire")
}

// foreverOp never returns from NextProgress on its own; it only resolves
// because the engine races it against cancellation.
type foreverOp struct {
	NopInit[string]
}

func (foreverOp) NextProgress(ctx context.Context, _ *Engine[string], _ *OperationRef[string]) (ProgressUpdate, error) {
	<-ctx.Done() // never fires in this test; kept alive intentionally
	block := make(chan struct{})
	<-block
	return ProgressDone(), nil
}

func (foreverOp) Done(context.Context, *Engine[string], *OperationRef[string]) (string, error) {
	return "unreachable", nil
}

func TestCancellation(t *testing.T) {
	eng := New[string](nil, nil)
	go eng.Start()
	defer eng.Stop()

	h, err := eng.Enqueue("sleeper", foreverOp{})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond) // let the driver actually enter NextProgress
	eng.Cancel(h.ID())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = h.Wait(ctx)
	require.Error(t, err)
	assert.True(t, IsCancelled(err))

	// The record must be removed promptly.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(eng.Operations()) == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("operation record was not removed after cancellation")
}

func TestCancelUnknownIDIsNoop(t *testing.T) {
	eng := New[string](nil, nil)
	eng.Cancel(newOperation[string]("x", valueOp{val: "x"}).id) // not enqueued; must not panic
}

// countingService is the shared resource in the service-contention test.
type countingService struct {
	n int
}

type incrementOp struct {
	NopInit[string]
	ImmediateProgress[string]
}

func (incrementOp) Done(_ context.Context, eng *Engine[string], _ *OperationRef[string]) (string, error) {
	g, err := ServiceFor[*countingService](eng.Registry())
	if err != nil {
		return "", err
	}
	g.Value().n++
	g.Release()
	return "ok", nil
}

func TestServiceContention(t *testing.T) {
	svc := &countingService{}
	eng := New[string]([]any{svc}, nil)
	go eng.Start()
	defer eng.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.EnqueueAndWait(ctx, "inc", incrementOp{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, svc.n)
}

func TestServiceUnavailable(t *testing.T) {
	eng := New[string](nil, nil)
	_, err := ServiceFor[*countingService](eng.Registry())
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestEnqueueAfterStopRejected(t *testing.T) {
	eng := New[string](nil, nil)
	go eng.Start()
	eng.Stop()
	time.Sleep(10 * time.Millisecond)

	_, err := eng.Enqueue("late", valueOp{val: "x"})
	assert.ErrorIs(t, err, ErrShutdown)
}

// admissionOrderOp records the order in which its Done hook runs.
type admissionOrderOp struct {
	NopInit[string]
	ImmediateProgress[string]
	order *[]string
	mu    *sync.Mutex
	name  string
}

func (o admissionOrderOp) Done(context.Context, *Engine[string], *OperationRef[string]) (string, error) {
	o.mu.Lock()
	*o.order = append(*o.order, o.name)
	o.mu.Unlock()
	return o.name, nil
}

func TestAdmissionIsFIFO(t *testing.T) {
	eng := New[string](nil, nil)

	var mu sync.Mutex
	var order []string

	hA, err := eng.Enqueue("A", admissionOrderOp{order: &order, mu: &mu, name: "A"})
	require.NoError(t, err)
	hB, err := eng.Enqueue("B", admissionOrderOp{order: &order, mu: &mu, name: "B"})
	require.NoError(t, err)

	go eng.Start()
	defer eng.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = hA.Wait(ctx)
	require.NoError(t, err)
	_, err = hB.Wait(ctx)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 2)
	assert.Equal(t, "A", order[0])
	assert.Equal(t, "B", order[1])
}

func TestFailureIsTerminalOutcome(t *testing.T) {
	eng := New[string](nil, nil)
	go eng.Start()
	defer eng.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := eng.EnqueueAndWait(ctx, "boom", failingInitOp{})
	require.Error(t, err)
	var fe *FailureError
	assert.ErrorAs(t, err, &fe)
}

type failingInitOp struct {
	ImmediateProgress[string]
}

func (failingInitOp) Init(context.Context, *Engine[string], *OperationRef[string]) error {
	return NewFailure("setup failed", nil)
}

func (failingInitOp) Done(context.Context, *Engine[string], *OperationRef[string]) (string, error) {
	return "unreachable", nil
}

// TestProgressSubscriberPanicIsIsolated exercises the "subscriber panics are isolated" rule:
// the registered callback panics on every notification, but the engine
// must still deliver the outcome normally.
func TestProgressSubscriberPanicIsIsolated(t *testing.T) {
	eng := New[string](nil, nil)
	eng.RegisterProgressCallback(func(*Engine[string], OperationSnapshot) {
		panic("boom")
	})

	var delivered int32
	eng.RegisterProgressCallback(func(*Engine[string], OperationSnapshot) {
		atomic.AddInt32(&delivered, 1)
	})

	go eng.Start()
	defer eng.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := eng.EnqueueAndWait(ctx, "trivial", valueOp{val: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&delivered))
}
