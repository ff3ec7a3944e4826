package mysql

import (
	"context"
	"errors"

	"github.com/omnisales/omnisales/internal/loyalty/domain"
	"gorm.io/gorm"
)

type loyaltyRepository struct{ db *gorm.DB }

func NewLoyaltyRepository(db *gorm.DB) domain.LoyaltyRepository {
	return &loyaltyRepository{db: db}
}

func (r *loyaltyRepository) GetByUserID(ctx context.Context, userID string) (*domain.LoyaltyAccount, error) {
	var account domain.LoyaltyAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *loyaltyRepository) Save(ctx context.Context, account *domain.LoyaltyAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// DeductPoints 条件扣减，RowsAffected == 0 即余额不足
func (r *loyaltyRepository) DeductPoints(ctx context.Context, userID string, points int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.LoyaltyAccount{}).
		Where("user_id = ? AND points >= ?", userID, points).
		UpdateColumn("points", gorm.Expr("points - ?", points))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *loyaltyRepository) ListActiveOffers(ctx context.Context, tier string, limit int) ([]*domain.Offer, error) {
	var offers []*domain.Offer
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("tier_required IS NULL OR tier_required <= ?", tier).
		Limit(limit).
		Find(&offers).Error
	return offers, err
}
