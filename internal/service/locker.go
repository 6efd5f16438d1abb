package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"paygate/internal/redis"
)

// LocalLocker is an in-process per-order lock for single-instance deployments and tests.
// A slot lives only while some caller holds or waits for it.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*lockSlot
	wait  time.Duration
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker. A zero wait blocks until the context is done.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		locks: make(map[string]*lockSlot),
		wait:  wait,
	}
}

// Lock blocks until orderID is free, the wait limit passes, or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, orderID string) (func(), error) {
	slot := l.acquireSlot(orderID)

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.releaseSlot(orderID, slot)
			})
		}, nil
	case <-timeout:
		l.releaseSlot(orderID, slot)
		return nil, ErrOrderLocked
	case <-ctx.Done():
		l.releaseSlot(orderID, slot)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) acquireSlot(orderID string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.locks[orderID]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.locks[orderID] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalLocker) releaseSlot(orderID string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.locks, orderID)
	}
}

var _ redis.OrderLocker = (*LocalLocker)(nil)

// lockOrder acquires the per-order lock and normalizes contention errors.
func lockOrder(ctx context.Context, locker redis.OrderLocker, orderID string) (func(), error) {
	unlock, err := locker.Lock(ctx, orderID)
	if err == nil {
		return unlock, nil
	}
	if errors.Is(err, redis.ErrLockNotAcquired) || errors.Is(err, ErrOrderLocked) {
		return nil, fmt.Errorf("%w: %s", ErrOrderLocked, orderID)
	}
	return nil, fmt.Errorf("lock order %s: %w", orderID, err)
}
