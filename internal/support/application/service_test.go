package application

import (
	"context"
	"testing"
	"time"

	orderdomain "github.com/omnisales/omnisales/internal/order/domain"
	"github.com/omnisales/omnisales/internal/support/domain"
	userdomain "github.com/omnisales/omnisales/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memSupportRepo struct {
	returns []*domain.ReturnRequest
	refunds []*domain.Refund
	tickets []*domain.Ticket
	calls   []*domain.ScheduledCall
}

func (r *memSupportRepo) SaveReturn(ctx context.Context, ret *domain.ReturnRequest) error {
	r.returns = append(r.returns, ret)
	return nil
}

func (r *memSupportRepo) SaveRefund(ctx context.Context, refund *domain.Refund) error {
	r.refunds = append(r.refunds, refund)
	return nil
}

func (r *memSupportRepo) SaveTicket(ctx context.Context, ticket *domain.Ticket) error {
	r.tickets = append(r.tickets, ticket)
	return nil
}

func (r *memSupportRepo) SaveCall(ctx context.Context, call *domain.ScheduledCall) error {
	r.calls = append(r.calls, call)
	return nil
}

type stubOrders struct {
	orders   map[string]*orderdomain.Order
	statuses map[string]orderdomain.OrderStatus
}

func newStubOrders(orders ...*orderdomain.Order) *stubOrders {
	s := &stubOrders{orders: make(map[string]*orderdomain.Order), statuses: make(map[string]orderdomain.OrderStatus)}
	for _, o := range orders {
		s.orders[o.OrderID] = o
	}
	return s
}

func (s *stubOrders) Save(ctx context.Context, order *orderdomain.Order) error { return nil }

func (s *stubOrders) Get(ctx context.Context, orderID string) (*orderdomain.Order, error) {
	return s.orders[orderID], nil
}

func (s *stubOrders) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*orderdomain.Order, error) {
	return nil, nil
}

func (s *stubOrders) UpdateStatus(ctx context.Context, orderID string, status orderdomain.OrderStatus) error {
	s.statuses[orderID] = status
	return nil
}

func (s *stubOrders) UpdateSagaState(ctx context.Context, orderID string, state orderdomain.SagaState) error {
	return nil
}

func (s *stubOrders) MarkCancelled(ctx context.Context, orderID string) error { return nil }

type stubUsers struct {
	profiles map[string]*userdomain.UserProfile
}

func (s *stubUsers) GetByUserID(ctx context.Context, userID string) (*userdomain.UserProfile, error) {
	return s.profiles[userID], nil
}

func (s *stubUsers) Save(ctx context.Context, profile *userdomain.UserProfile) error { return nil }

func deliveredOrder(orderID string, updatedAt time.Time) *orderdomain.Order {
	return &orderdomain.Order{
		Model:   gorm.Model{UpdatedAt: updatedAt},
		OrderID: orderID,
		UserID:  "u1",
		Status:  orderdomain.StatusDelivered,
	}
}

func newTestService(orders *stubOrders, users *stubUsers) (*SupportService, *memSupportRepo) {
	repo := &memSupportRepo{}
	if users == nil {
		users = &stubUsers{profiles: map[string]*userdomain.UserProfile{}}
	}
	return NewSupportService(repo, orders, users), repo
}

func TestInitiateReturnWithinWindow(t *testing.T) {
	orders := newStubOrders(deliveredOrder("ORD-12345678", time.Now().Add(-5*24*time.Hour)))
	svc, repo := newTestService(orders, nil)

	result, err := svc.InitiateReturn(context.Background(), "ORD-12345678", "does not fit")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "RET-ORD-1234", result.ReturnID)
	require.Len(t, repo.returns, 1)
	assert.Equal(t, "initiated", repo.returns[0].Status)
}

func TestInitiateReturnWindowExpired(t *testing.T) {
	orders := newStubOrders(deliveredOrder("ORD-12345678", time.Now().Add(-40*24*time.Hour)))
	svc, repo := newTestService(orders, nil)

	result, err := svc.InitiateReturn(context.Background(), "ORD-12345678", "too late")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Return window expired (30 days)", result.Error)
	assert.Empty(t, repo.returns)
}

func TestInitiateReturnUnknownOrder(t *testing.T) {
	svc, _ := newTestService(newStubOrders(), nil)

	result, err := svc.InitiateReturn(context.Background(), "ORD-404", "missing")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Order not found", result.Error)
}

func TestRequestRefundPendingOrderCancels(t *testing.T) {
	orders := newStubOrders(&orderdomain.Order{OrderID: "ORD-12345678", Status: orderdomain.StatusPending, TotalAmount: 42.50})
	svc, repo := newTestService(orders, nil)

	result, err := svc.RequestRefund(context.Background(), "ORD-12345678")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "REF-ORD-1234", result.RefundID)
	assert.Contains(t, result.Message, "5-7 business days")
	require.Len(t, repo.refunds, 1)
	assert.InDelta(t, 42.50, repo.refunds[0].Amount, 0.001)
	assert.Equal(t, orderdomain.StatusCancelled, orders.statuses["ORD-12345678"])
}

func TestRequestRefundShippedOrderRejected(t *testing.T) {
	orders := newStubOrders(&orderdomain.Order{OrderID: "ORD-12345678", Status: orderdomain.StatusShipped})
	svc, repo := newTestService(orders, nil)

	result, err := svc.RequestRefund(context.Background(), "ORD-12345678")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "already shipped")
	assert.Empty(t, repo.refunds)
	assert.NotContains(t, orders.statuses, "ORD-12345678")
}

func TestReportIssueCreatesTicket(t *testing.T) {
	svc, repo := newTestService(newStubOrders(), nil)

	result, err := svc.ReportIssue(context.Background(), "ORD-12345678", "u1", "general", "arrived damaged")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.TicketID, "TKT-ORD-1234-")
	require.Len(t, repo.tickets, 1)
	assert.Equal(t, "open", repo.tickets[0].Status)
	assert.Equal(t, "normal", repo.tickets[0].Priority)
}

func TestScheduleFollowUpCallWithoutPhone(t *testing.T) {
	users := &stubUsers{profiles: map[string]*userdomain.UserProfile{
		"u1": {UserID: "u1"},
	}}
	svc, repo := newTestService(newStubOrders(), users)

	result, err := svc.ScheduleFollowUpCall(context.Background(), "u1", "cart reminder", nil)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "No phone number on file", result.Error)
	assert.Empty(t, repo.calls)
}

func TestScheduleFollowUpCallDefaultsTomorrow(t *testing.T) {
	users := &stubUsers{profiles: map[string]*userdomain.UserProfile{
		"u1": {UserID: "u1", Phone: "+15550001111"},
	}}
	svc, repo := newTestService(newStubOrders(), users)

	result, err := svc.ScheduleFollowUpCall(context.Background(), "u1", "cart reminder", nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, repo.calls, 1)
	assert.Equal(t, "+15550001111", repo.calls[0].Phone)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), repo.calls[0].ScheduledTime, time.Minute)
}
