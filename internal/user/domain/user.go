// Package domain 包含用户画像的领域模型
package domain

import (
	"context"

	"gorm.io/gorm"
)

// UserProfile 用户画像，驱动推荐与回访
type UserProfile struct {
	gorm.Model
	UserID            string  `gorm:"column:user_id;type:varchar(64);uniqueIndex;not null" json:"user_id"`
	Email             string  `gorm:"column:email;type:varchar(255)" json:"email,omitempty"`
	Name              string  `gorm:"column:name;type:varchar(255)" json:"name,omitempty"`
	Phone             string  `gorm:"column:phone;type:varchar(20)" json:"phone,omitempty"`
	PreferredCategory string  `gorm:"column:preferred_category;type:varchar(64)" json:"preferred_category,omitempty"`
	MaxPrice          float64 `gorm:"column:max_price;type:decimal(20,2)" json:"max_price,omitempty"`
}

func (UserProfile) TableName() string { return "user_profiles" }

// UserRepository 用户仓储接口
type UserRepository interface {
	// GetByUserID 未找到返回 (nil, nil)
	GetByUserID(ctx context.Context, userID string) (*UserProfile, error)
	Save(ctx context.Context, profile *UserProfile) error
}
