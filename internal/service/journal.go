package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"paygate/internal/domain"
	"paygate/internal/gateway"
	"paygate/internal/redis"
)

// LocalJournal is an in-memory operation journal for single-instance deployments and tests.
type LocalJournal struct {
	mu      sync.Mutex
	entries map[string]domain.PendingOperation
	now     func() time.Time
}

// NewLocalJournal creates an empty LocalJournal.
func NewLocalJournal() *LocalJournal {
	return &LocalJournal{
		entries: make(map[string]domain.PendingOperation),
		now:     time.Now,
	}
}

func journalKey(operation, orderID string) string {
	return operation + ":" + orderID
}

// Begin implements redis.Journal.
func (j *LocalJournal) Begin(ctx context.Context, operation, orderID string) (*domain.PendingOperation, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := journalKey(operation, orderID)
	if existing, ok := j.entries[key]; ok {
		return &existing, nil
	}

	j.entries[key] = domain.PendingOperation{
		Operation: operation,
		OrderID:   orderID,
		State:     domain.OperationInFlight,
		StartedAt: j.now().UTC(),
	}
	return nil, nil
}

// Complete implements redis.Journal.
func (j *LocalJournal) Complete(ctx context.Context, operation, orderID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	delete(j.entries, journalKey(operation, orderID))
	return nil
}

// MarkUnknown implements redis.Journal.
func (j *LocalJournal) MarkUnknown(ctx context.Context, operation, orderID string, cause error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := journalKey(operation, orderID)
	entry, ok := j.entries[key]
	if !ok {
		entry = domain.PendingOperation{Operation: operation, OrderID: orderID, StartedAt: j.now().UTC()}
	}
	entry.State = domain.OperationUnknown
	if cause != nil {
		entry.LastError = cause.Error()
	}
	j.entries[key] = entry
	return nil
}

// Resolve implements redis.Journal.
func (j *LocalJournal) Resolve(ctx context.Context, operation, orderID string) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := journalKey(operation, orderID)
	if _, ok := j.entries[key]; !ok {
		return false, nil
	}
	delete(j.entries, key)
	return true, nil
}

// Unresolved implements redis.Journal.
func (j *LocalJournal) Unresolved(ctx context.Context) ([]domain.PendingOperation, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]domain.PendingOperation, 0, len(j.entries))
	for _, entry := range j.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].StartedAt.Equal(out[b].StartedAt) {
			return out[a].StartedAt.Before(out[b].StartedAt)
		}
		return journalKey(out[a].Operation, out[a].OrderID) < journalKey(out[b].Operation, out[b].OrderID)
	})
	return out, nil
}

var _ redis.Journal = (*LocalJournal)(nil)

// journaledCall runs a processor call for op on orderID under the journal.
// A transport failure leaves the entry marked unknown and is returned as a *GatewayError.
// Any other outcome clears the entry.
func journaledCall(ctx context.Context, journal redis.Journal, logger *zap.Logger, op, orderID string, call func() error) error {
	existing, err := journal.Begin(ctx, op, orderID)
	if err != nil {
		return fmt.Errorf("journal %s for order %s: %w", op, orderID, err)
	}
	if existing != nil {
		return fmt.Errorf("%w: %s on order %s is %s since %s",
			ErrUnreconciled, op, orderID, existing.State, existing.StartedAt.Format(time.RFC3339))
	}

	callErr := call()

	// The caller's context may already be expired; the journal write must still land.
	bg := context.WithoutCancel(ctx)

	var te *gateway.TransportError
	if errors.As(callErr, &te) {
		if err := journal.MarkUnknown(bg, op, orderID, callErr); err != nil {
			logger.Error("failed to mark operation unknown",
				zap.String("op", op), zap.String("order_id", orderID), zap.Error(err))
		}
		return &GatewayError{Op: op, OrderID: orderID, Err: callErr}
	}

	if err := journal.Complete(bg, op, orderID); err != nil {
		logger.Error("failed to clear operation journal",
			zap.String("op", op), zap.String("order_id", orderID), zap.Error(err))
	}
	if callErr != nil {
		return &GatewayError{Op: op, OrderID: orderID, Err: callErr}
	}
	return nil
}
