package semaphore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireMax(t *testing.T) {
	sem := New(1024, 1024)

	p, err := sem.Acquire(context.Background(), 1024)
	require.NoError(t, err)
	require.NotNil(t, p)

	_, err = sem.Acquire(context.Background(), 1025)
	assert.ErrorIs(t, err, ErrImpossible)
}

func TestAcquireUnblocksOnRelease(t *testing.T) {
	sem := New(1024, 1024)

	p, err := sem.Acquire(context.Background(), 1)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := sem.Acquire(context.Background(), 1024)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	p.Release()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("acquire did not unblock after release")
	}
}

func TestAcquireTooManyWaiters(t *testing.T) {
	sem := New(1024, 1)

	_, err := sem.Acquire(context.Background(), 1)
	require.NoError(t, err)

	go func() {
		_, _ = sem.Acquire(context.Background(), 1024)
	}()
	time.Sleep(10 * time.Millisecond)

	_, err = sem.Acquire(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTooManyWaiters)
}

func TestReleaseIsIdempotent(t *testing.T) {
	sem := New(1024, 1024)
	p, err := sem.Acquire(context.Background(), 512)
	require.NoError(t, err)

	p.Release()
	p.Release()

	assert.Equal(t, uint64(1024), sem.Available())
}

func TestAcquireContextCancelled(t *testing.T) {
	sem := New(1024, 1024)
	_, err := sem.Acquire(context.Background(), 1024)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = sem.Acquire(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
