package domain

import (
	"context"
	"time"
)

const (
	OrderCreatedEventType   = "order.created"
	OrderCancelledEventType = "order.cancelled"
)

// OrderCreatedEvent 订单提交成功事件
type OrderCreatedEvent struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	TotalAmount float64   `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// OrderCancelledEvent 订单补偿取消事件
type OrderCancelledEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
