package application

import (
	"context"
	"time"

	"github.com/omnisales/omnisales/internal/order/domain"
)

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	orders domain.OrderRepository
}

func NewOrderQueryService(orders domain.OrderRepository) *OrderQueryService {
	return &OrderQueryService{orders: orders}
}

func (s *OrderQueryService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.Get(ctx, orderID)
}

func (s *OrderQueryService) ListOrders(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.orders.ListByUser(ctx, userID, limit, offset)
}

// Tracking 订单跟踪视图
type Tracking struct {
	OrderID string             `json:"order_id"`
	Status  domain.OrderStatus `json:"status"`
	ETA     string             `json:"eta"`
	Items   []domain.OrderItem `json:"items"`
}

// 各状态的预计送达天数，未列出的状态按 0 天处理
var etaDays = map[domain.OrderStatus]int{
	domain.StatusPending:    1,
	domain.StatusProcessing: 3,
	domain.StatusShipped:    5,
	domain.StatusDelivered:  0,
}

// Track 查询订单状态与预计送达时间，未找到返回 (nil, nil)
func (s *OrderQueryService) Track(ctx context.Context, orderID string) (*Tracking, error) {
	if orderID == "" {
		return nil, nil
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}

	return &Tracking{
		OrderID: order.OrderID,
		Status:  order.Status,
		ETA:     order.CreatedAt.Add(time.Duration(etaDays[order.Status]) * 24 * time.Hour).Format(time.RFC3339),
		Items:   order.Items,
	}, nil
}
