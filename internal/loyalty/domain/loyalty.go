// Package domain 包含会员积分与优惠的领域模型
package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// LoyaltyAccount 会员积分账户
type LoyaltyAccount struct {
	gorm.Model
	UserID        string  `gorm:"column:user_id;type:varchar(64);uniqueIndex;not null" json:"user_id"`
	Points        int     `gorm:"column:points;not null;default:0" json:"points"`
	Tier          string  `gorm:"column:tier;type:varchar(20);not null;default:'bronze'" json:"tier"`
	LifetimeValue float64 `gorm:"column:lifetime_value;type:decimal(20,2);default:0" json:"lifetime_value"`
}

func (LoyaltyAccount) TableName() string { return "loyalty_accounts" }

// Offer 优惠活动
type Offer struct {
	gorm.Model
	OfferID         string     `gorm:"column:offer_id;type:varchar(36);uniqueIndex;not null" json:"offer_id"`
	Title           string     `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description     string     `gorm:"column:description;type:text" json:"description,omitempty"`
	DiscountPercent float64    `gorm:"column:discount_percent;type:decimal(5,2)" json:"discount_percent"`
	Code            string     `gorm:"column:code;type:varchar(32)" json:"code,omitempty"`
	TierRequired    *string    `gorm:"column:tier_required;type:varchar(20)" json:"tier_required,omitempty"`
	Active          bool       `gorm:"column:active;not null;default:true" json:"active"`
	ExpiresAt       *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
}

func (Offer) TableName() string { return "offers" }

// LoyaltyRepository 会员仓储接口
type LoyaltyRepository interface {
	// GetByUserID 未找到返回 (nil, nil)
	GetByUserID(ctx context.Context, userID string) (*LoyaltyAccount, error)
	Save(ctx context.Context, account *LoyaltyAccount) error
	// DeductPoints 条件扣减积分：仅当 points >= points 参数时执行，
	// 返回 false 表示余额不足（含并发兑换竞争）。
	DeductPoints(ctx context.Context, userID string, points int) (bool, error)
	// ListActiveOffers 列出指定会员等级可见的活动优惠
	ListActiveOffers(ctx context.Context, tier string, limit int) ([]*Offer, error)
}
