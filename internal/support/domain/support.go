// Package domain 包含售后与主动触达的领域模型
package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// ReturnRequest 退货申请
type ReturnRequest struct {
	gorm.Model
	ReturnID string `gorm:"column:return_id;type:varchar(32);uniqueIndex;not null" json:"return_id"`
	OrderID  string `gorm:"column:order_id;type:varchar(32);index;not null" json:"order_id"`
	UserID   string `gorm:"column:user_id;type:varchar(64);index" json:"user_id"`
	Reason   string `gorm:"column:reason;type:text" json:"reason"`
	Status   string `gorm:"column:status;type:varchar(20);not null" json:"status"`
}

func (ReturnRequest) TableName() string { return "returns" }

// Refund 退款单
type Refund struct {
	gorm.Model
	RefundID string  `gorm:"column:refund_id;type:varchar(32);uniqueIndex;not null" json:"refund_id"`
	OrderID  string  `gorm:"column:order_id;type:varchar(32);index;not null" json:"order_id"`
	Amount   float64 `gorm:"column:amount;type:decimal(20,2)" json:"amount"`
	Status   string  `gorm:"column:status;type:varchar(20);not null" json:"status"`
}

func (Refund) TableName() string { return "refunds" }

// Ticket 客服工单
type Ticket struct {
	gorm.Model
	TicketID    string `gorm:"column:ticket_id;type:varchar(48);uniqueIndex;not null" json:"ticket_id"`
	OrderID     string `gorm:"column:order_id;type:varchar(32);index" json:"order_id"`
	UserID      string `gorm:"column:user_id;type:varchar(64);index" json:"user_id"`
	IssueType   string `gorm:"column:issue_type;type:varchar(32)" json:"issue_type"`
	Description string `gorm:"column:description;type:text" json:"description"`
	Status      string `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Priority    string `gorm:"column:priority;type:varchar(10);not null" json:"priority"`
}

func (Ticket) TableName() string { return "tickets" }

// ScheduledCall 预约回访电话
type ScheduledCall struct {
	gorm.Model
	CallID        string    `gorm:"column:call_id;type:varchar(32);uniqueIndex;not null" json:"call_id"`
	UserID        string    `gorm:"column:user_id;type:varchar(64);index;not null" json:"user_id"`
	Phone         string    `gorm:"column:phone;type:varchar(20);not null" json:"phone"`
	Reason        string    `gorm:"column:reason;type:text" json:"reason"`
	ScheduledTime time.Time `gorm:"column:scheduled_time;not null" json:"scheduled_time"`
	Status        string    `gorm:"column:status;type:varchar(20);not null" json:"status"`
}

func (ScheduledCall) TableName() string { return "scheduled_calls" }

// SupportRepository 售后仓储接口
type SupportRepository interface {
	SaveReturn(ctx context.Context, r *ReturnRequest) error
	SaveRefund(ctx context.Context, r *Refund) error
	SaveTicket(ctx context.Context, t *Ticket) error
	SaveCall(ctx context.Context, c *ScheduledCall) error
}
