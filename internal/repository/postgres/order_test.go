package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/domain"
	"paygate/internal/repository"
)

func newMockRepo(t *testing.T) (*OrderRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewOrderRepository(db), mock
}

func testOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-1",
		Gateway:       "sample",
		TotalPrice:    domain.MustParseMoney("100.00", "USD"),
		TotalRefunded: domain.MustParseMoney("40.00", "USD"),
		Status:        domain.OrderStatusPartiallyRefunded,
		TransactionID: "txn-1",
		Token:         "tok-1",
		Captured:      true,
	}
}

func TestOrderRepository_SaveChanged(t *testing.T) {
	repo, mock := newMockRepo(t)
	order := testOrder()

	mock.ExpectExec("UPDATE orders").
		WithArgs(order.ID, order.Status, order.TransactionID, order.Token, order.Captured, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), order))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_SaveUnchangedIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, repo.Save(context.Background(), testOrder()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_SaveMissingOrder(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.Save(context.Background(), testOrder())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderRepository_GetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, gateway, currency").
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "gateway", "currency", "total_price", "total_refunded", "status", "transaction_id", "token", "captured", "updated_at",
		}).AddRow("order-1", "sample", "USD", "100.00", "40.00", "partially_refunded", "txn-1", "tok-1", true, now))
	mock.ExpectQuery("FROM order_notes").
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "text", "reason", "created_at"}).
			AddRow("n-1", "order-1", "Refunded 40.00 USD via Manual Refund", "damaged", now))

	order, err := repo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)

	assert.Equal(t, "sample", order.Gateway)
	assert.Equal(t, "100.00 USD", order.TotalPrice.String())
	assert.Equal(t, "40.00 USD", order.TotalRefunded.String())
	assert.Equal(t, domain.OrderStatusPartiallyRefunded, order.Status)
	assert.True(t, order.Captured)
	require.Len(t, order.Notes, 1)
	assert.Equal(t, "damaged", order.Notes[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, gateway, currency").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO orders").WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := repo.Create(context.Background(), testOrder())
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestOrderRepository_AppendNote(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO order_notes").
		WithArgs(sqlmock.AnyArg(), "order-1", "Refunded 10.00 USD via Manual Refund", "customer request", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_notes").WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

	require.NoError(t, repo.AppendNote(context.Background(), "order-1", "Refunded 10.00 USD via Manual Refund", "customer request"))
	assert.ErrorIs(t, repo.AppendNote(context.Background(), "missing", "x", ""), repository.ErrNotFound)
}
