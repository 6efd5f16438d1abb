package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"paygate/internal/domain"
	"paygate/internal/gateway"
	"paygate/internal/redis"
	"paygate/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	saves  []domain.Order

	// Counters for verification
	SaveCallCount       int32
	AppendNoteCallCount int32
	// WriteCount counts saves that changed stored state.
	WriteCount int32

	// Error injection
	GetError        error
	SaveError       error
	AppendNoteError error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order.Clone()
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; ok {
		return repository.ErrAlreadyExists
	}
	m.orders[order.ID] = order.Clone()
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	return order.Clone(), nil
}

func (m *MockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.SaveCallCount, 1)
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}

	next := stored.Clone()
	next.Status = order.Status
	next.TransactionID = order.TransactionID
	next.Token = order.Token
	next.Captured = order.Captured
	next.TotalRefunded = order.TotalRefunded

	if !sameState(stored, next) {
		atomic.AddInt32(&m.WriteCount, 1)
		next.UpdatedAt = time.Now()
		m.orders[order.ID] = next
	}
	m.saves = append(m.saves, *next.Clone())
	return nil
}

func (m *MockOrderRepository) AppendNote(ctx context.Context, orderID, text, reason string) error {
	atomic.AddInt32(&m.AppendNoteCallCount, 1)
	if m.AppendNoteError != nil {
		return m.AppendNoteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	order.Notes = append(order.Notes, domain.Note{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		Text:      text,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
	return nil
}

// GetOrder returns the stored order for test assertions.
func (m *MockOrderRepository) GetOrder(id string) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil
	}
	return order.Clone()
}

// Saves returns the stored state after each Save call, in order.
func (m *MockOrderRepository) Saves() []domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Order, len(m.saves))
	copy(out, m.saves)
	return out
}

func sameState(a, b *domain.Order) bool {
	return a.Status == b.Status &&
		a.TransactionID == b.TransactionID &&
		a.Token == b.Token &&
		a.Captured == b.Captured &&
		a.TotalRefunded.Equal(b.TotalRefunded)
}

// ──────────────────────────────────────────────
// MOCK PROCESSOR CLIENT
// ──────────────────────────────────────────────

// MockClient is a scripted payment processor.
type MockClient struct {
	mu sync.Mutex

	// Control behavior
	AuthorizeResult domain.TransactionResult
	AuthorizeError  error
	CaptureResult   domain.TransactionResult
	CaptureError    error
	// RefundConfirm builds the confirmation for a refund; nil means not confirmed.
	RefundConfirm func(amount domain.Money) *domain.RefundConfirmation
	RefundError   error
	// Delay is applied to every call before it returns.
	Delay time.Duration

	// Counters
	AuthorizeCallCount int32
	CaptureCallCount   int32
	RefundCallCount    int32

	// Recorded arguments
	LastToken       string
	LastCaptureArg  string
	RefundedAmounts []domain.Money
}

// NewMockClient creates a client that accepts every call.
func NewMockClient() *MockClient {
	return &MockClient{
		AuthorizeResult: domain.TransactionResult{Status: domain.TransactionAccepted, TransactionID: "auth-1"},
		CaptureResult:   domain.TransactionResult{Status: domain.TransactionAccepted, TransactionID: "cap-1"},
		RefundConfirm: func(amount domain.Money) *domain.RefundConfirmation {
			return &domain.RefundConfirmation{RefundID: "ref-" + uuid.New().String(), ConvertedAmount: amount}
		},
	}
}

func (m *MockClient) Authorize(ctx context.Context, token string, amount domain.Money) (domain.TransactionResult, error) {
	atomic.AddInt32(&m.AuthorizeCallCount, 1)
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastToken = token
	if m.AuthorizeError != nil {
		return domain.TransactionResult{}, m.AuthorizeError
	}
	return m.AuthorizeResult, nil
}

func (m *MockClient) Capture(ctx context.Context, tokenOrID string, amount domain.Money) (domain.TransactionResult, error) {
	atomic.AddInt32(&m.CaptureCallCount, 1)
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastCaptureArg = tokenOrID
	if m.CaptureError != nil {
		return domain.TransactionResult{}, m.CaptureError
	}
	return m.CaptureResult, nil
}

func (m *MockClient) Refund(ctx context.Context, transactionID string, amount domain.Money) (*domain.RefundConfirmation, error) {
	atomic.AddInt32(&m.RefundCallCount, 1)
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RefundError != nil {
		return nil, m.RefundError
	}
	m.RefundedAmounts = append(m.RefundedAmounts, amount)
	if m.RefundConfirm == nil {
		return nil, nil
	}
	return m.RefundConfirm(amount), nil
}

// TotalCalls returns the number of processor calls of any kind.
func (m *MockClient) TotalCalls() int32 {
	return atomic.LoadInt32(&m.AuthorizeCallCount) +
		atomic.LoadInt32(&m.CaptureCallCount) +
		atomic.LoadInt32(&m.RefundCallCount)
}

func (m *MockClient) wait() {
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
}

var _ gateway.Client = (*MockClient)(nil)

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of OrderLocker.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Counters
	LockCallCount    int32
	ReleaseCallCount int32

	// Error injection
	LockError error

	// Force lock failure
	ForceLockFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) Lock(ctx context.Context, orderID string) (func(), error) {
	atomic.AddInt32(&m.LockCallCount, 1)
	if m.LockError != nil {
		return nil, m.LockError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForceLockFailure || m.locks[orderID] {
		return nil, redis.ErrLockNotAcquired
	}
	m.locks[orderID] = true
	return func() {
		atomic.AddInt32(&m.ReleaseCallCount, 1)
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.locks, orderID)
	}, nil
}

// IsLocked checks if an order is locked (for test assertions).
func (m *MockLockStore) IsLocked(orderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[orderID]
}

var _ redis.OrderLocker = (*MockLockStore)(nil)

// ──────────────────────────────────────────────
// MOCK EVENT PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []domain.Event

	// Error injection
	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.PublishError
}

// Events returns the published events.
func (m *MockPublisher) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, len(m.events))
	copy(out, m.events)
	return out
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDB        = errors.New("mock: database unavailable")
	ErrMockTransport = &gateway.TransportError{Op: "mock", Err: errors.New("connection reset by peer")}
	ErrMockTimeout   = &gateway.TransportError{Op: "mock", Err: context.DeadlineExceeded}
)
