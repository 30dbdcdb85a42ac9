package blocking

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsValue(t *testing.T) {
	p := NewPool(1)
	out, err := Run(context.Background(), p, func() int { return 42 })
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestRunRespectsContextCancellation(t *testing.T) {
	p := NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})
	defer close(block)
	_, err := Run(ctx, p, func() int {
		<-block
		return 0
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(1)
	var inflight int32
	var maxSeen int32

	release := make(chan struct{})
	started := make(chan struct{}, 1)

	go func() {
		_, _ = Run(context.Background(), p, func() int {
			n := atomic.AddInt32(&inflight, 1)
			if n > atomic.LoadInt32(&maxSeen) {
				atomic.StoreInt32(&maxSeen, n)
			}
			started <- struct{}{}
			<-release
			atomic.AddInt32(&inflight, -1)
			return 0
		})
	}()

	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Run(ctx, p, func() int { return 1 })
	assert.ErrorIs(t, err, context.DeadlineExceeded, "second call must block on the bounded pool until the slot frees")

	close(release)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxSeen))
}

func TestUnboundedPoolAllowsConcurrentCalls(t *testing.T) {
	p := NewPool(0)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		_, _ = Run(ctx, p, func() int {
			<-done
			return 0
		})
	}()

	out, err := Run(ctx, p, func() int { return 7 })
	require.NoError(t, err)
	assert.Equal(t, 7, out)
	close(done)
}
