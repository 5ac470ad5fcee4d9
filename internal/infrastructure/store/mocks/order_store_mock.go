package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/pos-register/internal/domain/cart"
	"github.com/example/pos-register/internal/domain/order"
)

// MockOrderStore is an in-memory remote order store for testing
type MockOrderStore struct {
	mu     sync.Mutex
	nextID int
	orders map[string]*order.Persisted // idempotency key -> order

	// For tracking calls in tests
	InsertCalls    []order.Submission
	InsertErr      error
	InsertCallback func(ctx context.Context, sub order.Submission) (*order.Persisted, error)
}

// NewMockOrderStore creates a new MockOrderStore
func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		nextID:      1000,
		orders:      make(map[string]*order.Persisted),
		InsertCalls: make([]order.Submission, 0),
	}
}

// Insert records the submission and assigns a numeric server id
func (m *MockOrderStore) Insert(ctx context.Context, sub order.Submission) (*order.Persisted, error) {
	m.mu.Lock()
	m.InsertCalls = append(m.InsertCalls, sub)
	callback := m.InsertCallback
	insertErr := m.InsertErr
	m.mu.Unlock()

	// Use callback if provided
	if callback != nil {
		return callback(ctx, sub)
	}

	// Return error if set
	if insertErr != nil {
		return nil, insertErr
	}

	return m.Save(sub)
}

// Save persists a submission without recording a call. Callbacks use it to
// fall through to the default behaviour.
func (m *MockOrderStore) Save(sub order.Submission) (*order.Persisted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.orders[sub.IdempotencyKey]; ok {
		return existing, nil
	}

	m.nextID++
	id, err := order.RemoteID(fmt.Sprintf("%d", m.nextID))
	if err != nil {
		return nil, err
	}
	persisted := &order.Persisted{
		ID:             id,
		StoreID:        sub.StoreID,
		OrganizationID: sub.OrganizationID,
		Lines:          cart.CloneLines(sub.Lines),
		TotalAmount:    sub.TotalAmount,
		PaymentMethod:  sub.PaymentMethod,
		Status:         sub.Status,
		CreatedAt:      sub.CreatedAt,
		ReceivedAt:     time.Now(),
	}
	m.orders[sub.IdempotencyKey] = persisted
	return persisted, nil
}

// Count returns the number of distinct orders stored
func (m *MockOrderStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// Calls returns a copy of the recorded submissions
func (m *MockOrderStore) Calls() []order.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]order.Submission(nil), m.InsertCalls...)
}

// Reset clears stored orders and recorded calls
func (m *MockOrderStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = make(map[string]*order.Persisted)
	m.InsertCalls = make([]order.Submission, 0)
	m.InsertErr = nil
	m.InsertCallback = nil
}
