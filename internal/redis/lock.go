package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when an order stays locked past the wait limit.
var ErrLockNotAcquired = errors.New("order lock not acquired")

const lockRetryInterval = 25 * time.Millisecond

// releaseScript deletes the lock only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OrderLockStore serializes operations on an order across processes.
type OrderLockStore struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewOrderLockStore creates a lock store. ttl bounds how long a crashed holder
// keeps the lock; wait bounds how long Lock polls for a busy order.
func NewOrderLockStore(client *redis.Client, ttl, wait time.Duration) *OrderLockStore {
	return &OrderLockStore{client: client, ttl: ttl, wait: wait}
}

func orderLockKey(orderID string) string {
	return fmt.Sprintf("lock:order:%s", orderID)
}

// AcquireOrderLock attempts to take the lock once.
// Returns the holder token, or "" if the lock is already held.
func (s *OrderLockStore) AcquireOrderLock(ctx context.Context, orderID string) (string, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, orderLockKey(orderID), token, s.ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	return token, nil
}

// ReleaseOrderLock releases the lock if token still owns it.
func (s *OrderLockStore) ReleaseOrderLock(ctx context.Context, orderID, token string) error {
	return releaseScript.Run(ctx, s.client, []string{orderLockKey(orderID)}, token).Err()
}

// Lock blocks until the order lock is acquired, the wait limit passes, or ctx is done.
func (s *OrderLockStore) Lock(ctx context.Context, orderID string) (func(), error) {
	deadline := time.Now().Add(s.wait)

	for {
		token, err := s.AcquireOrderLock(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if token != "" {
			return func() {
				// Release even if the operation's context was cancelled.
				_ = s.ReleaseOrderLock(context.Background(), orderID, token)
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}
