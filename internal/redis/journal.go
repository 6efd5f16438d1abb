package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"paygate/internal/domain"
)

// Key layout
const (
	operationKeyPrefix = "op:"
	unresolvedSetKey   = "op:unresolved"
)

// OperationJournal records processor calls so a call with an unknown outcome
// is reconciled by an operator instead of being issued again.
type OperationJournal struct {
	client *redis.Client
	now    func() time.Time
}

// NewOperationJournal creates a new OperationJournal.
func NewOperationJournal(client *redis.Client) *OperationJournal {
	return &OperationJournal{client: client, now: time.Now}
}

func operationMember(operation, orderID string) string {
	return operation + ":" + orderID
}

// Begin records an in-flight call. If an entry already exists for the
// operation and order it is returned and nothing is recorded.
func (j *OperationJournal) Begin(ctx context.Context, operation, orderID string) (*domain.PendingOperation, error) {
	entry := domain.PendingOperation{
		Operation: operation,
		OrderID:   orderID,
		State:     domain.OperationInFlight,
		StartedAt: j.now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	member := operationMember(operation, orderID)
	ok, err := j.client.SetNX(ctx, operationKeyPrefix+member, data, 0).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		existing, err := j.get(ctx, member)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		// The entry vanished between SETNX and GET; report it as in flight.
		return &entry, nil
	}

	if err := j.client.SAdd(ctx, unresolvedSetKey, member).Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

// Complete clears the entry after the processor gave a definitive answer.
func (j *OperationJournal) Complete(ctx context.Context, operation, orderID string) error {
	member := operationMember(operation, orderID)

	pipe := j.client.TxPipeline()
	pipe.Del(ctx, operationKeyPrefix+member)
	pipe.SRem(ctx, unresolvedSetKey, member)
	_, err := pipe.Exec(ctx)
	return err
}

// MarkUnknown flags the call as having an unknown outcome.
func (j *OperationJournal) MarkUnknown(ctx context.Context, operation, orderID string, cause error) error {
	member := operationMember(operation, orderID)

	entry, err := j.get(ctx, member)
	if err != nil {
		return err
	}
	if entry == nil {
		entry = &domain.PendingOperation{Operation: operation, OrderID: orderID, StartedAt: j.now().UTC()}
	}
	entry.State = domain.OperationUnknown
	if cause != nil {
		entry.LastError = cause.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := j.client.TxPipeline()
	pipe.Set(ctx, operationKeyPrefix+member, data, 0)
	pipe.SAdd(ctx, unresolvedSetKey, member)
	_, err = pipe.Exec(ctx)
	return err
}

// Resolve removes an entry after an operator confirmed the outcome with the processor.
// Returns false if there was nothing to resolve.
func (j *OperationJournal) Resolve(ctx context.Context, operation, orderID string) (bool, error) {
	member := operationMember(operation, orderID)

	pipe := j.client.TxPipeline()
	del := pipe.Del(ctx, operationKeyPrefix+member)
	pipe.SRem(ctx, unresolvedSetKey, member)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return del.Val() > 0, nil
}

// Unresolved lists all entries that are in flight or unknown.
func (j *OperationJournal) Unresolved(ctx context.Context) ([]domain.PendingOperation, error) {
	members, err := j.client.SMembers(ctx, unresolvedSetKey).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	pipe := j.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(members))
	for _, member := range members {
		cmds[member] = pipe.Get(ctx, operationKeyPrefix+member)
	}
	// Missing keys surface as redis.Nil on individual commands.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	out := make([]domain.PendingOperation, 0, len(members))
	for _, member := range members {
		data, err := cmds[member].Bytes()
		if err != nil {
			continue
		}
		var entry domain.PendingOperation
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}

	sortOperations(out)
	return out, nil
}

func (j *OperationJournal) get(ctx context.Context, member string) (*domain.PendingOperation, error) {
	data, err := j.client.Get(ctx, operationKeyPrefix+member).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var entry domain.PendingOperation
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func sortOperations(ops []domain.PendingOperation) {
	// Oldest first, then by key for stable output.
	sort.Slice(ops, func(a, b int) bool {
		if !ops[a].StartedAt.Equal(ops[b].StartedAt) {
			return ops[a].StartedAt.Before(ops[b].StartedAt)
		}
		return operationMember(ops[a].Operation, ops[a].OrderID) < operationMember(ops[b].Operation, ops[b].OrderID)
	})
}
