// Package blocking gives operation implementations a bounded pool to run
// genuinely blocking calls on, so the engine's cooperative driver
// goroutines are never stalled by e.g. a synchronous os/exec.Cmd.Run or a
// blocking syscall. This realizes the runtime requirement in spec §6(e):
// "optional blocking-pool offload".
package blocking

import "context"

// Pool bounds the number of concurrently outstanding blocking calls.
type Pool struct {
	sem chan struct{}
}

// NewPool creates a pool that allows at most size concurrent blocking
// calls. A size <= 0 means unbounded (no semaphore).
func NewPool(size int) *Pool {
	if size <= 0 {
		return &Pool{}
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Run executes fn on a dedicated goroutine, acquiring a pool slot first (if
// the pool is bounded). It blocks until fn returns or ctx is done; in the
// latter case fn's goroutine is abandoned to finish on its own, the same
// "stop waiting, don't forcibly kill" semantics the engine's driver uses
// when racing hooks against cancellation.
func Run[R any](ctx context.Context, p *Pool, fn func() R) (R, error) {
	if p.sem != nil {
		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
		case <-ctx.Done():
			var zero R
			return zero, ctx.Err()
		}
	}

	resultCh := make(chan R, 1)
	go func() { resultCh <- fn() }()

	select {
	case r := <-resultCh:
		return r, nil
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
