// Package domain 包含商品目录的领域模型
package domain

import (
	"context"

	"gorm.io/gorm"
)

// Product 商品实体
type Product struct {
	gorm.Model
	// 商品 ID
	ProductID string `gorm:"column:product_id;type:varchar(36);uniqueIndex;not null" json:"product_id"`
	// 商品名称
	Name string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	// 商品描述
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`
	// 分类
	Category string `gorm:"column:category;type:varchar(100);index" json:"category"`
	// 单价
	Price float64 `gorm:"column:price;type:decimal(20,2);not null" json:"price"`
	// 库存
	Stock int `gorm:"column:stock;not null;default:0" json:"stock"`
	// 评分
	Rating float64 `gorm:"column:rating;type:decimal(3,1)" json:"rating,omitempty"`
	// 图片地址
	Image string `gorm:"column:image;type:varchar(512)" json:"image,omitempty"`
}

func (Product) TableName() string { return "products" }

// InStock 是否有库存
func (p *Product) InStock() bool { return p.Stock > 0 }

// Filter 商品查询条件
type Filter struct {
	Category string
	InStock  bool
	MaxPrice float64
}

// ProductRepository 商品仓储接口。
// 库存扣减通过单行条件更新实现，不依赖跨表事务。
type ProductRepository interface {
	// 按商品 ID 查询，未找到返回 (nil, nil)
	GetByID(ctx context.Context, productID string) (*Product, error)
	// 按名称关键词查询，未找到返回 (nil, nil)
	FindByName(ctx context.Context, name string) (*Product, error)
	// 按条件列出商品
	List(ctx context.Context, filter Filter, limit int) ([]*Product, error)
	// 保存商品
	Save(ctx context.Context, product *Product) error
	// ReserveStock 条件扣减库存：仅当 stock >= qty 时执行 stock -= qty。
	// 返回 false 表示库存不足（并发订单已消耗剩余库存）。
	ReserveStock(ctx context.Context, productID string, qty int) (bool, error)
	// RestoreStock 补偿性回补库存：stock += qty。
	RestoreStock(ctx context.Context, productID string, qty int) error
}
