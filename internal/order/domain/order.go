// Package domain 包含订单的领域模型
package domain

import (
	"context"

	"gorm.io/gorm"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

// SagaState 下单 saga 的持久化状态。
// 崩溃后可据此识别卡在 reserving 的订单并做对账。
type SagaState string

const (
	SagaValidating SagaState = "validating"
	SagaPricing    SagaState = "pricing"
	SagaPersisting SagaState = "persisting"
	SagaReserving  SagaState = "reserving"
	SagaCommitted  SagaState = "committed"
	SagaRolledBack SagaState = "rolled_back"
)

// Order 订单实体，行项目在创建后不可变
type Order struct {
	gorm.Model
	OrderID         string        `gorm:"column:order_id;type:varchar(32);uniqueIndex;not null" json:"order_id"`
	UserID          string        `gorm:"column:user_id;type:varchar(64);index;not null" json:"user_id"`
	Items           []OrderItem   `gorm:"foreignKey:OrderRef" json:"items"`
	TotalAmount     float64       `gorm:"column:total_amount;type:decimal(20,2);not null" json:"total_amount"`
	Status          OrderStatus   `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	PaymentStatus   PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null" json:"payment_status"`
	SagaState       SagaState     `gorm:"column:saga_state;type:varchar(20);index;not null" json:"saga_state"`
	ShippingAddress string        `gorm:"column:shipping_address;type:text" json:"shipping_address,omitempty"`
}

func (Order) TableName() string { return "orders" }

// OrderItem 订单行项目，价格为下单时的目录权威价
type OrderItem struct {
	gorm.Model
	OrderRef  uint    `gorm:"column:order_ref;index;not null" json:"-"`
	ProductID string  `gorm:"column:product_id;type:varchar(36);not null" json:"product_id"`
	Name      string  `gorm:"column:name;type:varchar(255)" json:"name"`
	Price     float64 `gorm:"column:price;type:decimal(20,2);not null" json:"price"`
	Quantity  int     `gorm:"column:quantity;not null" json:"quantity"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderRepository 订单仓储接口
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	// Get 未找到返回 (nil, nil)
	Get(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Order, error)
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error
	UpdateSagaState(ctx context.Context, orderID string, state SagaState) error
	// MarkCancelled 补偿终态：status=cancelled, payment_status=failed, saga_state=rolled_back
	MarkCancelled(ctx context.Context, orderID string) error
}
