package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// branchOutcome is the outcome type used across the combinator tests: a
// single leaf value, or the aggregate list a combinator's combine func
// builds from its children's outcomes.
type branchOutcome struct {
	value string
	many  []string
}

func combineBranches(results []branchOutcome) branchOutcome {
	vals := make([]string, len(results))
	for i, r := range results {
		vals[i] = r.value
	}
	return branchOutcome{many: vals}
}

// leafOp is a branch that records (via started) whether the driver ever ran
// it, and either succeeds with value or fails with failMsg.
type leafOp struct {
	ImmediateProgress[branchOutcome]
	value   string
	failMsg string
	started *int32
}

func (o leafOp) Init(context.Context, *Engine[branchOutcome], *OperationRef[branchOutcome]) error {
	if o.started != nil {
		atomic.AddInt32(o.started, 1)
	}
	return nil
}

func (o leafOp) Done(context.Context, *Engine[branchOutcome], *OperationRef[branchOutcome]) (branchOutcome, error) {
	if o.failMsg != "" {
		return branchOutcome{}, NewFailure(o.failMsg, nil)
	}
	return branchOutcome{value: o.value}, nil
}

func TestSequenceFailFastStopsBeforeLaterChildren(t *testing.T) {
	eng := New[branchOutcome](nil, nil)
	go eng.Start()
	defer eng.Stop()

	var startedA, startedB, startedC int32
	seq := NewSequence([]Child[branchOutcome]{
		{Name: "A", Impl: leafOp{value: "a", started: &startedA}},
		{Name: "B", Impl: leafOp{failMsg: "bad", started: &startedB}},
		{Name: "C", Impl: leafOp{value: "c", started: &startedC}},
	}, combineBranches)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := eng.EnqueueAndWait(ctx, "seq", seq)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	assert.Equal(t, int32(1), atomic.LoadInt32(&startedA))
	assert.Equal(t, int32(1), atomic.LoadInt32(&startedB))
	assert.Equal(t, int32(0), atomic.LoadInt32(&startedC), "C must never start once B has failed")
}

func TestSequenceAllSucceedPreservesOrder(t *testing.T) {
	eng := New[branchOutcome](nil, nil)
	go eng.Start()
	defer eng.Stop()

	seq := NewSequence([]Child[branchOutcome]{
		{Name: "A", Impl: leafOp{value: "a"}},
		{Name: "B", Impl: leafOp{value: "b"}},
		{Name: "C", Impl: leafOp{value: "c"}},
	}, combineBranches)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := eng.EnqueueAndWait(ctx, "seq", seq)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out.many)
}

func TestParallelFanOutJoinsInInputOrder(t *testing.T) {
	eng := New[branchOutcome](nil, nil)
	go eng.Start()
	defer eng.Stop()

	par := NewParallel([]Child[branchOutcome]{
		{Name: "A", Impl: leafOp{value: "A"}},
		{Name: "B", Impl: leafOp{value: "B"}},
		{Name: "C", Impl: leafOp{value: "C"}},
	}, combineBranches)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := eng.EnqueueAndWait(ctx, "par", par)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, out.many)
}

func TestParallelAllChildrenRunEvenThoughOrderOfSideEffectsIsUnspecified(t *testing.T) {
	eng := New[branchOutcome](nil, nil)
	go eng.Start()
	defer eng.Stop()

	var startedA, startedB, startedC int32
	par := NewParallel([]Child[branchOutcome]{
		{Name: "A", Impl: leafOp{value: "A", started: &startedA}},
		{Name: "B", Impl: leafOp{value: "B", started: &startedB}},
		{Name: "C", Impl: leafOp{value: "C", started: &startedC}},
	}, combineBranches)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := eng.EnqueueAndWait(ctx, "par", par)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&startedA))
	assert.Equal(t, int32(1), atomic.LoadInt32(&startedB))
	assert.Equal(t, int32(1), atomic.LoadInt32(&startedC))
}

func TestParallelFirstFailureCancelsSiblings(t *testing.T) {
	eng := New[branchOutcome](nil, nil)
	go eng.Start()
	defer eng.Stop()

	par := NewParallel([]Child[branchOutcome]{
		{Name: "A", Impl: leafOp{value: "a"}},
		{Name: "B", Impl: leafOp{failMsg: "bad"}},
		{Name: "C", Impl: leafOp{value: "c"}},
	}, combineBranches)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := eng.EnqueueAndWait(ctx, "par", par)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

// TestNestedCombinators proves combinators compose: a Sequence whose middle step is
// itself a Parallel.
func TestNestedCombinators(t *testing.T) {
	eng := New[branchOutcome](nil, nil)
	go eng.Start()
	defer eng.Stop()

	inner := NewParallel([]Child[branchOutcome]{
		{Name: "X", Impl: leafOp{value: "x"}},
		{Name: "Y", Impl: leafOp{value: "y"}},
	}, combineBranches)

	outer := NewSequence([]Child[branchOutcome]{
		{Name: "head", Impl: leafOp{value: "head"}},
		{Name: "inner", Impl: inner},
		{Name: "tail", Impl: leafOp{value: "tail"}},
	}, combineBranches)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := eng.EnqueueAndWait(ctx, "outer", outer)
	require.NoError(t, err)

	require.Len(t, out.many, 3)
	assert.Equal(t, "head", out.many[0])
	assert.Equal(t, "tail", out.many[2])
}
