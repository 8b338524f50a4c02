// Package testutil provides in-memory mocks and fixtures shared by tests.
package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cassiomorais/cybersource-gateway/internal/cybersource"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
)

// MockPaymentRepository is an in-memory payment.Repository. Individual
// methods can be overridden per test through the *Func fields.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment

	CreateFunc         func(ctx context.Context, p *payment.Payment) error
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	GetByOrderAndIDFunc func(ctx context.Context, orderID string, id uuid.UUID) (*payment.Payment, error)
	UpdateFunc         func(ctx context.Context, p *payment.Payment) error
	DeleteFunc         func(ctx context.Context, id uuid.UUID) error
}

// NewMockPaymentRepository creates an empty mock repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[uuid.UUID]*payment.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, errors.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) GetByOrderAndID(ctx context.Context, orderID string, id uuid.UUID) (*payment.Payment, error) {
	if m.GetByOrderAndIDFunc != nil {
		return m.GetByOrderAndIDFunc(ctx, orderID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.OrderID != orderID {
		return nil, errors.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ID]; !ok {
		return errors.ErrPaymentNotFound
	}
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[id]; !ok {
		return errors.ErrPaymentNotFound
	}
	delete(m.payments, id)
	return nil
}

// Stored returns the stored copy of a payment, or nil.
func (m *MockPaymentRepository) Stored(id uuid.UUID) *payment.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// Count returns how many payments are stored.
func (m *MockPaymentRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

// MockMethodRepository is an in-memory payment.MethodRepository.
type MockMethodRepository struct {
	mu      sync.Mutex
	methods map[uuid.UUID]*payment.Method

	CreateFunc func(ctx context.Context, pm *payment.Method) error
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*payment.Method, error)
	UpdateFunc func(ctx context.Context, pm *payment.Method) error
	DeleteFunc func(ctx context.Context, id uuid.UUID) error
}

// NewMockMethodRepository creates an empty mock repository.
func NewMockMethodRepository() *MockMethodRepository {
	return &MockMethodRepository{methods: make(map[uuid.UUID]*payment.Method)}
}

func (m *MockMethodRepository) Create(ctx context.Context, pm *payment.Method) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, pm)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pm
	m.methods[pm.ID] = &cp
	return nil
}

func (m *MockMethodRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Method, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pm, ok := m.methods[id]
	if !ok {
		return nil, errors.ErrPaymentMethodNotFound
	}
	cp := *pm
	return &cp, nil
}

func (m *MockMethodRepository) Update(ctx context.Context, pm *payment.Method) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, pm)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.methods[pm.ID]; !ok {
		return errors.ErrPaymentMethodNotFound
	}
	cp := *pm
	m.methods[pm.ID] = &cp
	return nil
}

func (m *MockMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.methods[id]; !ok {
		return errors.ErrPaymentMethodNotFound
	}
	delete(m.methods, id)
	return nil
}

// Stored returns the stored copy of a method, or nil.
func (m *MockMethodRepository) Stored(id uuid.UUID) *payment.Method {
	m.mu.Lock()
	defer m.mu.Unlock()
	pm, ok := m.methods[id]
	if !ok {
		return nil
	}
	cp := *pm
	return &cp
}

// MockOrderLog records order comments.
type MockOrderLog struct {
	mu       sync.Mutex
	comments map[string][]string

	AddCommentFunc func(ctx context.Context, orderID, comment string) error
}

// NewMockOrderLog creates an empty order log.
func NewMockOrderLog() *MockOrderLog {
	return &MockOrderLog{comments: make(map[string][]string)}
}

func (m *MockOrderLog) AddComment(ctx context.Context, orderID, comment string) error {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, orderID, comment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[orderID] = append(m.comments[orderID], comment)
	return nil
}

// Comments returns the comments recorded for an order.
func (m *MockOrderLog) Comments(orderID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.comments[orderID]...)
}

// MockAPIClient is a scriptable REST API client. Unset funcs return an
// authorized response so happy-path tests stay short.
type MockAPIClient struct {
	mu    sync.Mutex
	calls []string

	CreatePaymentFunc  func(ctx context.Context, req *cybersource.CreatePaymentRequest) (*cybersource.PaymentResponse, error)
	CapturePaymentFunc func(ctx context.Context, remoteID string, req *cybersource.CaptureRequest) (*cybersource.PaymentResponse, error)
	RefundPaymentFunc  func(ctx context.Context, remoteID string, req *cybersource.RefundRequest) (*cybersource.PaymentResponse, error)
	VoidPaymentFunc    func(ctx context.Context, remoteID string, req *cybersource.VoidRequest) (*cybersource.PaymentResponse, error)
	GenerateKeyFunc    func(ctx context.Context, format string, req *cybersource.GenerateKeyRequest) (*cybersource.KeyResponse, error)
}

func (m *MockAPIClient) recordCall(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// Calls returns the operations invoked, in order.
func (m *MockAPIClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockAPIClient) CreatePayment(ctx context.Context, req *cybersource.CreatePaymentRequest) (*cybersource.PaymentResponse, error) {
	m.recordCall("create_payment")
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, req)
	}
	return &cybersource.PaymentResponse{ID: "remote-1", Status: cybersource.StatusAuthorized}, nil
}

func (m *MockAPIClient) CapturePayment(ctx context.Context, remoteID string, req *cybersource.CaptureRequest) (*cybersource.PaymentResponse, error) {
	m.recordCall("capture_payment")
	if m.CapturePaymentFunc != nil {
		return m.CapturePaymentFunc(ctx, remoteID, req)
	}
	return &cybersource.PaymentResponse{ID: remoteID, Status: "PENDING"}, nil
}

func (m *MockAPIClient) RefundPayment(ctx context.Context, remoteID string, req *cybersource.RefundRequest) (*cybersource.PaymentResponse, error) {
	m.recordCall("refund_payment")
	if m.RefundPaymentFunc != nil {
		return m.RefundPaymentFunc(ctx, remoteID, req)
	}
	return &cybersource.PaymentResponse{ID: remoteID, Status: "PENDING"}, nil
}

func (m *MockAPIClient) VoidPayment(ctx context.Context, remoteID string, req *cybersource.VoidRequest) (*cybersource.PaymentResponse, error) {
	m.recordCall("void_payment")
	if m.VoidPaymentFunc != nil {
		return m.VoidPaymentFunc(ctx, remoteID, req)
	}
	return &cybersource.PaymentResponse{ID: remoteID, Status: "VOIDED"}, nil
}

func (m *MockAPIClient) GenerateKey(ctx context.Context, format string, req *cybersource.GenerateKeyRequest) (*cybersource.KeyResponse, error) {
	m.recordCall("generate_key")
	if m.GenerateKeyFunc != nil {
		return m.GenerateKeyFunc(ctx, format, req)
	}
	return &cybersource.KeyResponse{KeyID: "key-1"}, nil
}
