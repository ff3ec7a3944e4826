package application

import (
	"context"

	"github.com/omnisales/omnisales/internal/catalog/domain"
)

// CatalogService 商品目录应用服务
type CatalogService struct{ repo domain.ProductRepository }

func NewCatalogService(repo domain.ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// SearchByName 按自由文本中提取出的名称查找商品，未命中返回 (nil, nil)
func (s *CatalogService) SearchByName(ctx context.Context, name string) (*domain.Product, error) {
	if name == "" {
		return nil, nil
	}
	return s.repo.FindByName(ctx, name)
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.Filter, limit int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.repo.List(ctx, filter, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	return s.repo.Save(ctx, p)
}
