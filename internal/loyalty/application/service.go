package application

import (
	"context"
	"time"

	"github.com/omnisales/omnisales/internal/loyalty/domain"
	"github.com/wyfcoding/pkg/logging"
)

// 积分兑换比例：100 积分抵 1 美元
const pointsPerDollar = 100

// PointsInfo 积分余额视图
type PointsInfo struct {
	Points        int     `json:"points"`
	Tier          string  `json:"tier"`
	LifetimeValue float64 `json:"lifetime_value"`
}

// RedeemResult 积分兑换结果
type RedeemResult struct {
	Success         bool    `json:"success"`
	PointsRedeemed  int     `json:"points_redeemed,omitempty"`
	DiscountAmount  float64 `json:"discount_amount,omitempty"`
	RemainingPoints int     `json:"remaining_points,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

const PointsRedeemedEventType = "points.redeemed"

// PointsRedeemedEvent 积分兑换事件
type PointsRedeemedEvent struct {
	UserID    string    `json:"user_id"`
	Points    int       `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

// LoyaltyService 会员应用服务
type LoyaltyService struct {
	repo      domain.LoyaltyRepository
	publisher EventPublisher
}

func NewLoyaltyService(repo domain.LoyaltyRepository, publisher EventPublisher) *LoyaltyService {
	return &LoyaltyService{repo: repo, publisher: publisher}
}

// GetPoints 查询积分余额，账户不存在返回 (nil, nil)
func (s *LoyaltyService) GetPoints(ctx context.Context, userID string) (*PointsInfo, error) {
	account, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}
	return &PointsInfo{
		Points:        account.Points,
		Tier:          account.Tier,
		LifetimeValue: account.LifetimeValue,
	}, nil
}

// CheckOffers 查询当前等级可用的优惠，最多 5 条；无账户返回空
func (s *LoyaltyService) CheckOffers(ctx context.Context, userID string) ([]*domain.Offer, error) {
	account, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return []*domain.Offer{}, nil
	}
	return s.repo.ListActiveOffers(ctx, account.Tier, 5)
}

// Redeem 兑换积分换折扣。扣减走条件更新，余额不足（含并发兑换竞争）
// 返回结构化失败而非错误。
func (s *LoyaltyService) Redeem(ctx context.Context, userID string, points int) (*RedeemResult, error) {
	if points <= 0 {
		return &RedeemResult{Success: false, Error: "Invalid points amount"}, nil
	}
	account, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return &RedeemResult{Success: false, Error: "User not found"}, nil
	}

	ok, err := s.repo.DeductPoints(ctx, userID, points)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &RedeemResult{Success: false, Error: "Insufficient points"}, nil
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, PointsRedeemedEventType, userID, PointsRedeemedEvent{
			UserID:    userID,
			Points:    points,
			Timestamp: time.Now(),
		}); err != nil {
			logging.Warn(ctx, "failed to publish points redeemed event", "user_id", userID, "error", err)
		}
	}

	return &RedeemResult{
		Success:         true,
		PointsRedeemed:  points,
		DiscountAmount:  float64(points) / pointsPerDollar,
		RemainingPoints: account.Points - points,
	}, nil
}
