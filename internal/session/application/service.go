package application

import (
	"context"

	"github.com/omnisales/omnisales/internal/session/domain"
)

// SessionService 会话应用服务，封装消息窗口与摘要的读写
type SessionService struct {
	repo domain.SessionRepository
}

func NewSessionService(repo domain.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) RecordTurn(ctx context.Context, sessionID, role, text string) error {
	return s.repo.AppendMessage(ctx, sessionID, role, text)
}

func (s *SessionService) Recent(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	return s.repo.Recent(ctx, sessionID)
}

func (s *SessionService) Summary(ctx context.Context, sessionID string) (string, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", nil
	}
	return session.Summary, nil
}

func (s *SessionService) UpdateSummary(ctx context.Context, sessionID, summary string) error {
	return s.repo.UpdateSummary(ctx, sessionID, summary)
}

func (s *SessionService) BindUser(ctx context.Context, sessionID, userID string) error {
	return s.repo.BindUser(ctx, sessionID, userID)
}
