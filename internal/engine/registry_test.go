package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now int }

func TestServiceForResolvesRegisteredType(t *testing.T) {
	c := &fakeClock{now: 7}
	r := NewRegistry(c)

	g, err := ServiceFor[*fakeClock](r)
	require.NoError(t, err)
	assert.Equal(t, 7, g.Value().now)
	g.Release()
}

func TestServiceForUnregisteredTypeErrors(t *testing.T) {
	r := NewRegistry()
	_, err := ServiceFor[*fakeClock](r)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestNewRegistryPanicsOnDuplicateType(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry(&fakeClock{now: 1}, &fakeClock{now: 2})
	})
}

func TestGuardReleaseTwicePanics(t *testing.T) {
	r := NewRegistry(&fakeClock{})
	g, err := ServiceFor[*fakeClock](r)
	require.NoError(t, err)
	g.Release()
	assert.Panics(t, func() { g.Release() })
}

// TestServiceAccessIsMutuallyExclusive proves a Guard really does block a
// second acquirer until Release, not merely serialize by accident.
func TestServiceAccessIsMutuallyExclusive(t *testing.T) {
	r := NewRegistry(&fakeClock{})

	g1, err := ServiceFor[*fakeClock](r)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		g2, err := ServiceFor[*fakeClock](r)
		require.NoError(t, err)
		close(acquired)
		g2.Release()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquirer proceeded while first guard was still held")
	case <-time.After(20 * time.Millisecond):
	}

	g1.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquirer never proceeded after release")
	}
}

func TestServiceForConcurrentAcquireIsRaceFree(t *testing.T) {
	r := NewRegistry(&fakeClock{})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := ServiceFor[*fakeClock](r)
			require.NoError(t, err)
			g.Value().now++
			g.Release()
		}()
	}
	wg.Wait()

	g, err := ServiceFor[*fakeClock](r)
	require.NoError(t, err)
	defer g.Release()
	assert.Equal(t, 20, g.Value().now)
}
