package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"paygate/internal/domain"
	"paygate/internal/repository"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, gateway, currency, total_price, total_refunded, status, transaction_id, token, captured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		order.ID,
		order.Gateway,
		order.Currency(),
		order.TotalPrice.Amount(),
		order.TotalRefunded.Amount(),
		order.Status,
		order.TransactionID,
		order.Token,
		order.Captured,
	)
	if pqCode(err) == pqUniqueViolation {
		return repository.ErrAlreadyExists
	}

	return err
}

// GetByID retrieves an order and its notes.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, gateway, currency, total_price, total_refunded, status, transaction_id, token, captured, updated_at
		FROM orders WHERE id = $1
	`

	var (
		order         domain.Order
		currency      string
		totalPrice    decimal.Decimal
		totalRefunded decimal.Decimal
	)
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.Gateway,
		&currency,
		&totalPrice,
		&totalRefunded,
		&order.Status,
		&order.TransactionID,
		&order.Token,
		&order.Captured,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if order.TotalPrice, err = domain.NewMoney(totalPrice, currency); err != nil {
		return nil, err
	}
	if order.TotalRefunded, err = domain.NewMoney(totalRefunded, currency); err != nil {
		return nil, err
	}

	notes, err := r.notes(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Notes = notes

	return &order, nil
}

// Save writes the order's mutable fields. Rows whose state already matches are left untouched.
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $2, transaction_id = $3, token = $4, captured = $5, total_refunded = $6, updated_at = now()
		WHERE id = $1
		  AND (status, transaction_id, token, captured, total_refunded)
		      IS DISTINCT FROM ($2, $3, $4, $5, $6::numeric)
	`

	result, err := r.q.ExecContext(ctx, query,
		order.ID,
		order.Status,
		order.TransactionID,
		order.Token,
		order.Captured,
		order.TotalRefunded.Amount(),
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Either unchanged or missing.
		var exists bool
		if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
	}

	return nil
}

// AppendNote adds an entry to the order's note history.
func (r *OrderRepository) AppendNote(ctx context.Context, orderID, text, reason string) error {
	query := `
		INSERT INTO order_notes (id, order_id, text, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query, uuid.New(), orderID, text, reason, time.Now().UTC())
	if pqCode(err) == pqForeignKeyViolation {
		return repository.ErrNotFound
	}

	return err
}

func (r *OrderRepository) notes(ctx context.Context, orderID string) ([]domain.Note, error) {
	query := `
		SELECT id, order_id, text, reason, created_at
		FROM order_notes WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(&note.ID, &note.OrderID, &note.Text, &note.Reason, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	return notes, rows.Err()
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}
