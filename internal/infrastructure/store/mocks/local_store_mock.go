package mocks

import (
	"context"
	"sync"
)

// MockLocalStore is an in-memory key/value slot for testing
type MockLocalStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	SetCalls int
	GetErr   error
	SetErr   error
}

// NewMockLocalStore creates a new MockLocalStore
func NewMockLocalStore() *MockLocalStore {
	return &MockLocalStore{data: make(map[string][]byte)}
}

func (m *MockLocalStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *MockLocalStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Raw returns the stored bytes for key, nil if absent
func (m *MockLocalStore) Raw(key string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key]
}

// Put sets bytes directly for testing
func (m *MockLocalStore) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Fail makes subsequent Set calls return err (nil restores success)
func (m *MockLocalStore) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetErr = err
}
