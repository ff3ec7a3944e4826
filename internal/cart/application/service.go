package application

import (
	"context"
	"time"

	"github.com/omnisales/omnisales/internal/cart/domain"
	"github.com/wyfcoding/pkg/logging"
)

// CartService 购物车应用服务。
// 所有写操作对最终状态幂等（对调用次数不幂等，如重复 Add 会继续累加数量）。
type CartService struct {
	repo      domain.CartRepository
	publisher domain.EventPublisher
}

func NewCartService(repo domain.CartRepository, publisher domain.EventPublisher) *CartService {
	return &CartService{repo: repo, publisher: publisher}
}

// GetCart 不存在的购物车返回空车而非错误
func (s *CartService) GetCart(ctx context.Context, ownerType domain.OwnerType, ownerID string) (*domain.Cart, error) {
	cart, err := s.repo.GetByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return &domain.Cart{OwnerType: ownerType, OwnerID: ownerID, Items: []domain.CartItem{}}, nil
	}
	return cart, nil
}

// SetCart 全量替换行集合
func (s *CartService) SetCart(ctx context.Context, ownerType domain.OwnerType, ownerID string, items []domain.CartItem) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, cart, "")
	return cart, nil
}

// AddItem 同商品累加数量，返回完整购物车
func (s *CartService) AddItem(ctx context.Context, ownerType domain.OwnerType, ownerID string, item domain.CartItem) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	cart.AddItem(item)
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, cart, item.ProductID)
	return cart, nil
}

// RemoveItem 移除商品行；移除不存在的行是静默无操作，
// 调用方需自行校验移除是否发生。
func (s *CartService) RemoveItem(ctx context.Context, ownerType domain.OwnerType, ownerID string, productID string) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	cart.RemoveItem(productID)
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, cart, productID)
	return cart, nil
}

// UpdateQuantity 数量 <= 0 删除该行
func (s *CartService) UpdateQuantity(ctx context.Context, ownerType domain.OwnerType, ownerID string, productID string, quantity int) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	cart.SetQuantity(productID, quantity)
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, cart, productID)
	return cart, nil
}

// ClearCart 显式清空。只发 cart.cleared，不再附带 cart.updated。
func (s *CartService) ClearCart(ctx context.Context, ownerType domain.OwnerType, ownerID string) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	cart.Items = []domain.CartItem{}
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, domain.CartClearedEventType, ownerID, domain.CartClearedEvent{
			OwnerType: ownerType,
			OwnerID:   ownerID,
			Timestamp: time.Now(),
		}); err != nil {
			logging.Warn(ctx, "failed to publish cart cleared event", "owner_id", ownerID, "error", err)
		}
	}
	return cart, nil
}

// 事件发布尽力而为，失败不影响命令本身
func (s *CartService) publishUpdated(ctx context.Context, cart *domain.Cart, productID string) {
	if s.publisher == nil {
		return
	}
	event := domain.CartUpdatedEvent{
		OwnerType: cart.OwnerType,
		OwnerID:   cart.OwnerID,
		ProductID: productID,
		CartSize:  len(cart.Items),
		Timestamp: time.Now(),
	}
	if err := s.publisher.Publish(ctx, domain.CartUpdatedEventType, cart.OwnerID, event); err != nil {
		logging.Warn(ctx, "failed to publish cart updated event", "owner_id", cart.OwnerID, "error", err)
	}
}
