package mysql

import (
	"context"

	"github.com/omnisales/omnisales/internal/support/domain"
	"gorm.io/gorm"
)

type supportRepository struct{ db *gorm.DB }

func NewSupportRepository(db *gorm.DB) domain.SupportRepository {
	return &supportRepository{db: db}
}

func (r *supportRepository) SaveReturn(ctx context.Context, ret *domain.ReturnRequest) error {
	return r.db.WithContext(ctx).Save(ret).Error
}

func (r *supportRepository) SaveRefund(ctx context.Context, refund *domain.Refund) error {
	return r.db.WithContext(ctx).Save(refund).Error
}

func (r *supportRepository) SaveTicket(ctx context.Context, ticket *domain.Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *supportRepository) SaveCall(ctx context.Context, call *domain.ScheduledCall) error {
	return r.db.WithContext(ctx).Save(call).Error
}
