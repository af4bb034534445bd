package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/starva/storefront/internal/core/domain"
)

// fakeGateway implements port.Gateway with overridable behaviour per test.
type fakeGateway struct {
	initiateFn    func(orderID, phone string) (*domain.PaymentInitiation, error)
	statusFn      func(orderID, reference string) (string, error)
	createOrderFn func(req domain.OrderRequest) (*domain.OrderSummary, error)
	stockFn       func(ids []string, orgID string) ([]domain.StockSnapshot, error)

	likeErr   error
	followErr error

	statusCalls  atomic.Int32
	orderFetches atomic.Int32

	mu        sync.Mutex
	lastPhone string
	lastOrder domain.OrderRequest
}

func (f *fakeGateway) CreateOrder(_ context.Context, req domain.OrderRequest) (*domain.OrderSummary, error) {
	f.mu.Lock()
	f.lastOrder = req
	f.mu.Unlock()
	if f.createOrderFn != nil {
		return f.createOrderFn(req)
	}
	return &domain.OrderSummary{OrderID: "order-1", OrderNumber: 1}, nil
}

func (f *fakeGateway) GetOrder(context.Context, string) (*domain.Order, error) {
	f.orderFetches.Add(1)
	return &domain.Order{ID: "order-1", Status: domain.OrderStatusConfirmed, IsPaid: true}, nil
}

func (f *fakeGateway) CancelOrder(context.Context, string) error { return nil }

func (f *fakeGateway) InitiatePayment(_ context.Context, orderID, phone string) (*domain.PaymentInitiation, error) {
	f.mu.Lock()
	f.lastPhone = phone
	f.mu.Unlock()
	if f.initiateFn != nil {
		return f.initiateFn(orderID, phone)
	}
	return &domain.PaymentInitiation{PaymentID: "pay-1", Reference: "ref-1", Status: "pending"}, nil
}

func (f *fakeGateway) PaymentStatus(_ context.Context, orderID, reference string) (string, error) {
	f.statusCalls.Add(1)
	if f.statusFn != nil {
		return f.statusFn(orderID, reference)
	}
	return "pending", nil
}

func (f *fakeGateway) ProductStock(_ context.Context, ids []string, orgID string) ([]domain.StockSnapshot, error) {
	if f.stockFn != nil {
		return f.stockFn(ids, orgID)
	}
	return nil, nil
}

func (f *fakeGateway) LikeProduct(context.Context, string) error     { return f.likeErr }
func (f *fakeGateway) UnlikeProduct(context.Context, string) error   { return f.likeErr }
func (f *fakeGateway) FollowMerchant(context.Context, string) error  { return f.followErr }
func (f *fakeGateway) UnfollowMerchant(context.Context, string) error { return f.followErr }

// fakeJournal implements port.PaymentJournal in memory.
type fakeJournal struct {
	mu       sync.Mutex
	attempts []domain.PaymentAttempt
}

func (j *fakeJournal) Record(_ context.Context, attempt domain.PaymentAttempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts = append(j.attempts, attempt)
	return nil
}

func (j *fakeJournal) UpdateStatus(_ context.Context, attemptID string, status domain.PaymentStatus) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.attempts {
		if j.attempts[i].ID == attemptID {
			j.attempts[i].Status = status
		}
	}
	return nil
}

func (j *fakeJournal) ListUnresolved(context.Context) ([]domain.PaymentAttempt, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []domain.PaymentAttempt
	for _, a := range j.attempts {
		if !a.Status.Terminal() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (j *fakeJournal) all() []domain.PaymentAttempt {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.PaymentAttempt(nil), j.attempts...)
}
