// Package domain 包含会话与最近消息窗口的领域模型
package domain

import (
	"context"

	"gorm.io/gorm"
)

// RecentWindow 注入 Prompt 的最近消息条数
const RecentWindow = 5

// ArchiveLimit 每个会话保留的消息上限，超出后裁掉最旧的
const ArchiveLimit = 50

// Session 会话，按渠道外部 ID 标识
type Session struct {
	gorm.Model
	SessionID string `gorm:"column:session_id;type:varchar(64);uniqueIndex;not null" json:"session_id"`
	UserID    string `gorm:"column:user_id;type:varchar(64);index" json:"user_id,omitempty"`
	Summary   string `gorm:"column:summary;type:text" json:"summary,omitempty"`
}

func (Session) TableName() string { return "sessions" }

// Message 会话内单条消息
type Message struct {
	gorm.Model
	SessionID string `gorm:"column:session_id;type:varchar(64);index;not null" json:"session_id"`
	Role      string `gorm:"column:role;type:varchar(16);not null" json:"role"`
	Text      string `gorm:"column:text;type:text;not null" json:"text"`
}

func (Message) TableName() string { return "session_messages" }

// SessionRepository 会话仓储接口
type SessionRepository interface {
	// Get 未找到返回 (nil, nil)
	Get(ctx context.Context, sessionID string) (*Session, error)
	// AppendMessage 追加消息。与最后一条 role+text 完全相同则跳过，
	// 之后把历史裁剪到最近 ArchiveLimit 条。
	AppendMessage(ctx context.Context, sessionID, role, text string) error
	// Recent 返回最近消息，按时间升序，最多 RecentWindow 条
	Recent(ctx context.Context, sessionID string) ([]*Message, error)
	UpdateSummary(ctx context.Context, sessionID, summary string) error
	BindUser(ctx context.Context, sessionID, userID string) error
}
