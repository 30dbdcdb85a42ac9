package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Child names and implements one branch of a combinator.
type Child[T any] struct {
	Name string
	Impl OperationImpl[T]
}

// Sequence is an OperationImpl that runs its children one at a time, in
// input order, and aggregates their outcomes with Combine. A child failure
// short-circuits the remaining children. Cancelling the Sequence operation
// cancels the child currently running and prevents any further child from
// starting.
type Sequence[T any] struct {
	ImmediateProgress[T]

	children []Child[T]
	combine  func([]T) T

	mu        sync.Mutex
	cancelled bool
	enqueued  []uuid.UUID
}

// NewSequence builds a Sequence combinator. combine turns the ordered list
// of child outcomes into this operation's own outcome (the conventional
// "Many" encoding).
func NewSequence[T any](children []Child[T], combine func([]T) T) *Sequence[T] {
	return &Sequence[T]{children: children, combine: combine}
}

// Init spawns the cancellation fan-out watcher described in §4.4: on the
// Sequence's own cancel signal, every child enqueued so far is cancelled,
// and Done stops enqueuing further children.
func (s *Sequence[T]) Init(_ context.Context, eng *Engine[T], self *OperationRef[T]) error {
	go func() {
		<-self.Cancelled()
		s.mu.Lock()
		s.cancelled = true
		ids := append([]uuid.UUID(nil), s.enqueued...)
		s.mu.Unlock()
		for _, id := range ids {
			eng.Cancel(id)
		}
	}()
	return nil
}

// Done runs each child to completion in order, short-circuiting on the
// first failure.
func (s *Sequence[T]) Done(ctx context.Context, eng *Engine[T], _ *OperationRef[T]) (T, error) {
	var zero T
	results := make([]T, 0, len(s.children))

	for _, c := range s.children {
		s.mu.Lock()
		cancelled := s.cancelled
		s.mu.Unlock()
		if cancelled {
			return zero, Cancelled
		}

		h, err := eng.Enqueue(c.Name, c.Impl)
		if err != nil {
			return zero, err
		}

		s.mu.Lock()
		s.enqueued = append(s.enqueued, h.ID())
		s.mu.Unlock()

		val, err := h.Wait(ctx)
		if err != nil {
			return zero, err
		}
		results = append(results, val)
	}

	return s.combine(results), nil
}

// Parallel is an OperationImpl that runs its children concurrently and
// joins them, in input order, into an aggregate outcome. The first child
// failure cancels every other outstanding child; the combinator's own
// outcome is that first failure.
type Parallel[T any] struct {
	ImmediateProgress[T]

	children []Child[T]
	combine  func([]T) T

	mu        sync.Mutex
	cancelled bool
	enqueued  []uuid.UUID
}

// NewParallel builds a Parallel combinator. combine turns the
// input-ordered list of child outcomes into this operation's own outcome.
func NewParallel[T any](children []Child[T], combine func([]T) T) *Parallel[T] {
	return &Parallel[T]{children: children, combine: combine}
}

// Init spawns the same cancellation fan-out watcher as Sequence.
func (p *Parallel[T]) Init(_ context.Context, eng *Engine[T], self *OperationRef[T]) error {
	go func() {
		<-self.Cancelled()
		p.mu.Lock()
		p.cancelled = true
		ids := append([]uuid.UUID(nil), p.enqueued...)
		p.mu.Unlock()
		for _, id := range ids {
			eng.Cancel(id)
		}
	}()
	return nil
}

type parallelResult[T any] struct {
	index int
	value T
	err   error
}

// Done enqueues every child up front, then awaits all of them
// concurrently. Ordering among children's side effects is unspecified, as
// the design requires; only the final result slice is input-ordered.
func (p *Parallel[T]) Done(ctx context.Context, eng *Engine[T], _ *OperationRef[T]) (T, error) {
	var zero T

	p.mu.Lock()
	cancelled := p.cancelled
	p.mu.Unlock()
	if cancelled {
		return zero, Cancelled
	}

	handles := make([]Handle[T], 0, len(p.children))
	for _, c := range p.children {
		h, err := eng.Enqueue(c.Name, c.Impl)
		if err != nil {
			for _, prev := range handles {
				eng.Cancel(prev.ID())
			}
			return zero, err
		}
		handles = append(handles, h)

		p.mu.Lock()
		p.enqueued = append(p.enqueued, h.ID())
		alreadyCancelled := p.cancelled
		p.mu.Unlock()
		if alreadyCancelled {
			for _, hh := range handles {
				eng.Cancel(hh.ID())
			}
			return zero, Cancelled
		}
	}

	resultsCh := make(chan parallelResult[T], len(handles))
	for i, h := range handles {
		go func(i int, h Handle[T]) {
			val, err := h.Wait(ctx)
			resultsCh <- parallelResult[T]{index: i, value: val, err: err}
		}(i, h)
	}

	results := make([]T, len(handles))
	var firstErr error
	cancelledSiblings := false

	for range handles {
		r := <-resultsCh
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			if !cancelledSiblings {
				cancelledSiblings = true
				for _, h := range handles {
					eng.Cancel(h.ID())
				}
			}
			continue
		}
		results[r.index] = r.value
	}

	if firstErr != nil {
		return zero, firstErr
	}
	return p.combine(results), nil
}
