package domain

import (
	"context"
	"time"
)

const (
	CartUpdatedEventType = "cart.updated"
	CartClearedEventType = "cart.cleared"
)

// CartUpdatedEvent 购物车变更事件
type CartUpdatedEvent struct {
	OwnerType OwnerType `json:"owner_type"`
	OwnerID   string    `json:"owner_id"`
	ProductID string    `json:"product_id,omitempty"`
	CartSize  int       `json:"cart_size"`
	Timestamp time.Time `json:"timestamp"`
}

// CartClearedEvent 购物车清空事件
type CartClearedEvent struct {
	OwnerType OwnerType `json:"owner_type"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
