package mysql

import (
	"context"
	"errors"

	"github.com/omnisales/omnisales/internal/cart/domain"
	"gorm.io/gorm"
)

type cartRepository struct{ db *gorm.DB }

func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).Preload("Items").
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Save 全量替换：删除旧行后重写当前行集合，保证移除的行真正消失。
func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cart.ID == 0 {
			var existing domain.Cart
			err := tx.Where("owner_type = ? AND owner_id = ?", cart.OwnerType, cart.OwnerID).
				First(&existing).Error
			if err == nil {
				cart.ID = existing.ID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if cart.ID == 0 {
			items := cart.Items
			cart.Items = nil
			if err := tx.Create(cart).Error; err != nil {
				return err
			}
			cart.Items = items
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		for i := range cart.Items {
			cart.Items[i].ID = 0
			cart.Items[i].CartID = cart.ID
		}
		if len(cart.Items) > 0 {
			if err := tx.Create(&cart.Items).Error; err != nil {
				return err
			}
		}
		return tx.Model(&domain.Cart{}).Where("id = ?", cart.ID).
			UpdateColumn("updated_at", tx.NowFunc()).Error
	})
}

func (r *cartRepository) Delete(ctx context.Context, ownerType domain.OwnerType, ownerID string) error {
	var cart domain.Cart
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cart).Error
	})
}
