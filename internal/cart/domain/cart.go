// Package domain 包含购物车的领域模型
package domain

import (
	"context"

	"gorm.io/gorm"
)

// OwnerType 购物车归属者类型
type OwnerType string

const (
	OwnerUser  OwnerType = "user"
	OwnerGuest OwnerType = "guest"
)

// Cart 购物车聚合，按 (owner_type, owner_id) 唯一。
// 同一归属键的并发写入为 last-write-wins，购物车单人驱动，可接受。
type Cart struct {
	gorm.Model
	OwnerType OwnerType  `gorm:"column:owner_type;type:varchar(10);uniqueIndex:idx_cart_owner;not null" json:"owner_type"`
	OwnerID   string     `gorm:"column:owner_id;type:varchar(64);uniqueIndex:idx_cart_owner;not null" json:"owner_id"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

func (Cart) TableName() string { return "carts" }

// CartItem 购物车行项目，每个商品至多一行
type CartItem struct {
	gorm.Model
	CartID    uint    `gorm:"column:cart_id;index;not null" json:"-"`
	ProductID string  `gorm:"column:product_id;type:varchar(36);not null" json:"product_id"`
	Name      string  `gorm:"column:name;type:varchar(255)" json:"name"`
	Price     float64 `gorm:"column:price;type:decimal(20,2)" json:"price"`
	Quantity  int     `gorm:"column:quantity;not null" json:"quantity"`
}

func (CartItem) TableName() string { return "cart_items" }

// Total 购物车合计金额
func (c *Cart) Total() float64 {
	var t float64
	for _, item := range c.Items {
		t += item.Price * float64(item.Quantity)
	}
	return t
}

// AddItem 同商品累加数量，否则追加新行
func (c *Cart) AddItem(item CartItem) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// RemoveItem 移除指定商品行，不存在时静默无操作
func (c *Cart) RemoveItem(productID string) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// SetQuantity 数量 <= 0 等价于删除该行；数量不会以 <= 0 落库
func (c *Cart) SetQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// Contains 指定商品是否在购物车中
func (c *Cart) Contains(productID string) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return true
		}
	}
	return false
}

// CartRepository 购物车仓储接口。
// 每次写入持久化完整行集合而非增量，读-改-写由调用方负责。
type CartRepository interface {
	// GetByOwner 未找到返回 (nil, nil)，不作为错误
	GetByOwner(ctx context.Context, ownerType OwnerType, ownerID string) (*Cart, error)
	// Save 全量替换行集合（upsert-or-create）
	Save(ctx context.Context, cart *Cart) error
	// Delete 删除购物车及其行
	Delete(ctx context.Context, ownerType OwnerType, ownerID string) error
}
