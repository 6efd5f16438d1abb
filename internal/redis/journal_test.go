package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/domain"
)

func TestOperationJournal_BeginComplete(t *testing.T) {
	client, _ := newTestClient(t)
	journal := NewOperationJournal(client)
	ctx := context.Background()

	existing, err := journal.Begin(ctx, "refund", "order-1")
	require.NoError(t, err)
	assert.Nil(t, existing)

	pending, err := journal.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.OperationInFlight, pending[0].State)

	require.NoError(t, journal.Complete(ctx, "refund", "order-1"))

	pending, err = journal.Unresolved(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	existing, err = journal.Begin(ctx, "refund", "order-1")
	require.NoError(t, err)
	assert.Nil(t, existing)
}

func TestOperationJournal_UnknownBlocksUntilResolved(t *testing.T) {
	client, _ := newTestClient(t)
	journal := NewOperationJournal(client)
	ctx := context.Background()

	_, err := journal.Begin(ctx, "capture", "order-1")
	require.NoError(t, err)
	require.NoError(t, journal.MarkUnknown(ctx, "capture", "order-1", errors.New("read timeout")))

	existing, err := journal.Begin(ctx, "capture", "order-1")
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, domain.OperationUnknown, existing.State)
	assert.Equal(t, "read timeout", existing.LastError)

	// Other operations on the same order are tracked separately.
	other, err := journal.Begin(ctx, "refund", "order-1")
	require.NoError(t, err)
	assert.Nil(t, other)

	ok, err := journal.Resolve(ctx, "capture", "order-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = journal.Resolve(ctx, "capture", "order-1")
	require.NoError(t, err)
	assert.False(t, ok)

	existing, err = journal.Begin(ctx, "capture", "order-1")
	require.NoError(t, err)
	assert.Nil(t, existing)
}

func TestOperationJournal_UnresolvedOrdering(t *testing.T) {
	client, _ := newTestClient(t)
	journal := NewOperationJournal(client)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	journal.now = func() time.Time { return base.Add(time.Minute) }
	_, err := journal.Begin(ctx, "refund", "order-b")
	require.NoError(t, err)

	journal.now = func() time.Time { return base }
	_, err = journal.Begin(ctx, "authorize", "order-a")
	require.NoError(t, err)

	pending, err := journal.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "order-a", pending[0].OrderID)
	assert.Equal(t, "order-b", pending[1].OrderID)
}
