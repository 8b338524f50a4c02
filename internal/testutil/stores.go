package testutil

import (
	"context"
	"sync"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/order"
	"github.com/cassiomorais/cybersource-gateway/internal/repository/postgres"
)

// MockOrderRepository is an in-memory order.Repository.
type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*order.Order

	GetByIDFunc func(ctx context.Context, id string) (*order.Order, error)
}

// NewMockOrderRepository creates a repository pre-loaded with the given
// orders.
func NewMockOrderRepository(orders ...*order.Order) *MockOrderRepository {
	m := &MockOrderRepository{orders: make(map[string]*order.Order)}
	for _, ord := range orders {
		m.orders[ord.ID] = ord
	}
	return m
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ord, ok := m.orders[id]
	if !ok {
		return nil, postgres.ErrOrderNotFound
	}
	cp := *ord
	return &cp, nil
}

// PassthroughTxRunner runs the function without a real transaction.
type PassthroughTxRunner struct{}

func (PassthroughTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MemoryCaptureContextStore is an in-memory capture-context cache.
type MemoryCaptureContextStore struct {
	mu   sync.Mutex
	keys map[string]string
}

// NewMemoryCaptureContextStore creates an empty store.
func NewMemoryCaptureContextStore() *MemoryCaptureContextStore {
	return &MemoryCaptureContextStore{keys: make(map[string]string)}
}

func (s *MemoryCaptureContextStore) GetOrCreate(ctx context.Context, sessionID string, generate func(context.Context) (string, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keyID, ok := s.keys[sessionID]; ok {
		return keyID, nil
	}
	keyID, err := generate(ctx)
	if err != nil {
		return "", err
	}
	s.keys[sessionID] = keyID
	return keyID, nil
}

func (s *MemoryCaptureContextStore) Regenerate(ctx context.Context, sessionID string, generate func(context.Context) (string, error)) (string, error) {
	s.mu.Lock()
	delete(s.keys, sessionID)
	s.mu.Unlock()
	return s.GetOrCreate(ctx, sessionID, generate)
}
