package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_WaitLimit(t *testing.T) {
	locker := NewLocalLocker(20 * time.Millisecond)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "order-1")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "order-1")
	assert.ErrorIs(t, err, ErrOrderLocked)

	other, err := locker.Lock(ctx, "order-2")
	require.NoError(t, err)
	other()

	unlock()
	unlock() // second call is a no-op

	again, err := locker.Lock(ctx, "order-1")
	require.NoError(t, err)
	again()
}

func TestLocalLocker_ContextCancelled(t *testing.T) {
	locker := NewLocalLocker(0)

	unlock, err := locker.Lock(context.Background(), "order-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "order-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func (l *LocalLocker) slots() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func TestLocalLocker_DropsIdleSlots(t *testing.T) {
	locker := NewLocalLocker(10 * time.Millisecond)
	ctx := context.Background()

	for _, id := range []string{"order-1", "order-2", "order-3"} {
		unlock, err := locker.Lock(ctx, id)
		require.NoError(t, err)
		unlock()
	}
	assert.Equal(t, 0, locker.slots())

	unlock, err := locker.Lock(ctx, "order-1")
	require.NoError(t, err)

	// A waiter that gives up must not leave its slot behind or free the holder's.
	_, err = locker.Lock(ctx, "order-1")
	assert.ErrorIs(t, err, ErrOrderLocked)
	assert.Equal(t, 1, locker.slots())

	_, err = locker.Lock(ctx, "order-1")
	assert.ErrorIs(t, err, ErrOrderLocked)

	unlock()
	assert.Equal(t, 0, locker.slots())
}
