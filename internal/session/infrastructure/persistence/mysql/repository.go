package mysql

import (
	"context"
	"errors"

	"github.com/omnisales/omnisales/internal/session/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) domain.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) ensure(tx *gorm.DB, sessionID string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoNothing: true,
	}).Create(&domain.Session{SessionID: sessionID}).Error
}

func (r *sessionRepository) AppendMessage(ctx context.Context, sessionID, role, text string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensure(tx, sessionID); err != nil {
			return err
		}

		// 与最后一条完全相同则跳过，避免渠道重投造成重复
		var last domain.Message
		err := tx.Where("session_id = ?", sessionID).Order("id DESC").First(&last).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && last.Role == role && last.Text == text {
			return nil
		}

		if err := tx.Create(&domain.Message{SessionID: sessionID, Role: role, Text: text}).Error; err != nil {
			return err
		}

		// 裁剪到最近 ArchiveLimit 条
		var ids []uint
		if err := tx.Model(&domain.Message{}).
			Where("session_id = ?", sessionID).
			Order("id DESC").
			Limit(domain.ArchiveLimit).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == domain.ArchiveLimit {
			if err := tx.Where("session_id = ? AND id < ?", sessionID, ids[len(ids)-1]).
				Delete(&domain.Message{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sessionRepository) Recent(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(domain.RecentWindow).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// 升序返回，便于直接拼接上下文
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *sessionRepository) UpdateSummary(ctx context.Context, sessionID, summary string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensure(tx, sessionID); err != nil {
			return err
		}
		return tx.Model(&domain.Session{}).
			Where("session_id = ?", sessionID).
			Update("summary", summary).Error
	})
}

func (r *sessionRepository) BindUser(ctx context.Context, sessionID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensure(tx, sessionID); err != nil {
			return err
		}
		return tx.Model(&domain.Session{}).
			Where("session_id = ?", sessionID).
			Update("user_id", userID).Error
	})
}
