package domain

import "time"

const (
	StockReservedEventType = "stock.reserved"
	StockRestoredEventType = "stock.restored"
)

// StockReservedEvent 库存预占事件
type StockReservedEvent struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	OrderID   string    `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

// StockRestoredEvent 库存回补事件（补偿）
type StockRestoredEvent struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	OrderID   string    `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}
