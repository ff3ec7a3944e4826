package mysql

import (
	"context"
	"errors"
	"strings"

	"github.com/omnisales/omnisales/internal/catalog/domain"
	"gorm.io/gorm"
)

type productRepository struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindByName 先尝试整串子串匹配，再退化为全关键词匹配。
// "adidas shirt" 可以命中 "Adidas T-Shirt" 或 "Adidas Dress Shirt"。
func (r *productRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return nil, nil
	}

	var p domain.Product
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", "%"+name+"%").
		First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	keywords := strings.Fields(name)
	if len(keywords) < 2 {
		return nil, nil
	}
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	for _, kw := range keywords {
		q = q.Where("LOWER(name) LIKE ?", "%"+kw+"%")
	}
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, filter domain.Filter, limit int) ([]*domain.Product, error) {
	var products []*domain.Product
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.InStock {
		q = q.Where("stock > 0")
	}
	if filter.MaxPrice > 0 {
		q = q.Where("price <= ?", filter.MaxPrice)
	}
	if err := q.Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// ReserveStock 单条 UPDATE 完成检查加扣减，RowsAffected == 0 即库存竞争失败。
func (r *productRepository) ReserveStock(ctx context.Context, productID string, qty int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("product_id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *productRepository) RestoreStock(ctx context.Context, productID string, qty int) error {
	return r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("product_id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}
