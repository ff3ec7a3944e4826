package mysql

import (
	"context"
	"errors"

	"github.com/omnisales/omnisales/internal/order/domain"
	"gorm.io/gorm"
)

type orderRepository struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Save(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error
}

func (r *orderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("order_id = ?", orderID).
		UpdateColumn("status", status).Error
}

func (r *orderRepository) UpdateSagaState(ctx context.Context, orderID string, state domain.SagaState) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("order_id = ?", orderID).
		UpdateColumn("saga_state", state).Error
}

func (r *orderRepository) MarkCancelled(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"status":         domain.StatusCancelled,
			"payment_status": domain.PaymentFailed,
			"saga_state":     domain.SagaRolledBack,
		}).Error
}
