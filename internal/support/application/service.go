// Package application 实现售后流程：退货、退款、工单与回访电话。
package application

import (
	"context"
	"fmt"
	"time"

	orderdomain "github.com/omnisales/omnisales/internal/order/domain"
	"github.com/omnisales/omnisales/internal/support/domain"
	userdomain "github.com/omnisales/omnisales/internal/user/domain"
	"github.com/wyfcoding/pkg/logging"
)

// 退货窗口：发货妥投后 30 天
const returnWindow = 30 * 24 * time.Hour

// SupportResult 售后操作的统一结果
type SupportResult struct {
	Success  bool   `json:"success"`
	ReturnID string `json:"return_id,omitempty"`
	RefundID string `json:"refund_id,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`
	CallID   string `json:"call_id,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SupportService 售后应用服务
type SupportService struct {
	repo   domain.SupportRepository
	orders orderdomain.OrderRepository
	users  userdomain.UserRepository
	now    func() time.Time
}

func NewSupportService(repo domain.SupportRepository, orders orderdomain.OrderRepository, users userdomain.UserRepository) *SupportService {
	return &SupportService{repo: repo, orders: orders, users: users, now: time.Now}
}

// orderIDPrefix 取订单号前 8 位作为售后单号片段
func orderIDPrefix(orderID string) string {
	if len(orderID) > 8 {
		return orderID[:8]
	}
	return orderID
}

// InitiateReturn 发起退货。妥投超过 30 天拒绝。
func (s *SupportService) InitiateReturn(ctx context.Context, orderID, reason string) (*SupportResult, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return &SupportResult{Success: false, Error: "Order not found"}, nil
	}
	if order.Status == orderdomain.StatusDelivered {
		if s.now().Sub(order.UpdatedAt) > returnWindow {
			return &SupportResult{Success: false, Error: "Return window expired (30 days)"}, nil
		}
	}

	ret := &domain.ReturnRequest{
		ReturnID: fmt.Sprintf("RET-%s", orderIDPrefix(orderID)),
		OrderID:  orderID,
		UserID:   order.UserID,
		Reason:   reason,
		Status:   "initiated",
	}
	if err := s.repo.SaveReturn(ctx, ret); err != nil {
		return nil, err
	}
	logging.Info(ctx, "return initiated", "return_id", ret.ReturnID, "order_id", orderID)
	return &SupportResult{
		Success:  true,
		ReturnID: ret.ReturnID,
		Message:  "Return initiated. A shipping label will be emailed to you.",
	}, nil
}

// RequestRefund 申请退款。仅限尚未发货的订单（pending/processing），
// 成功后订单转为取消态。
func (s *SupportService) RequestRefund(ctx context.Context, orderID string) (*SupportResult, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return &SupportResult{Success: false, Error: "Order not found"}, nil
	}
	if order.Status != orderdomain.StatusPending && order.Status != orderdomain.StatusProcessing {
		return &SupportResult{Success: false, Error: "Order already shipped. Please initiate a return instead."}, nil
	}

	refund := &domain.Refund{
		RefundID: fmt.Sprintf("REF-%s", orderIDPrefix(orderID)),
		OrderID:  orderID,
		Amount:   order.TotalAmount,
		Status:   "processing",
	}
	if err := s.repo.SaveRefund(ctx, refund); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, orderID, orderdomain.StatusCancelled); err != nil {
		return nil, err
	}
	logging.Info(ctx, "refund requested", "refund_id", refund.RefundID, "order_id", orderID, "amount", refund.Amount)
	return &SupportResult{
		Success:  true,
		RefundID: refund.RefundID,
		Message:  "Refund is processing. Expect the amount back in 5-7 business days.",
	}, nil
}

// ReportIssue 报告订单问题，创建工单。
func (s *SupportService) ReportIssue(ctx context.Context, orderID, userID, issueType, description string) (*SupportResult, error) {
	ticket := &domain.Ticket{
		TicketID:    fmt.Sprintf("TKT-%s-%s", orderIDPrefix(orderID), s.now().Format("150405")),
		OrderID:     orderID,
		UserID:      userID,
		IssueType:   issueType,
		Description: description,
		Status:      "open",
		Priority:    "normal",
	}
	if err := s.repo.SaveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	logging.Info(ctx, "support ticket created", "ticket_id", ticket.TicketID, "order_id", orderID)
	return &SupportResult{
		Success:  true,
		TicketID: ticket.TicketID,
		Message:  "A support agent will reach out within 24 hours.",
	}, nil
}

// ScheduleFollowUpCall 预约回访电话。用户未留电话则失败；
// 未指定时间默认 24 小时后。
func (s *SupportService) ScheduleFollowUpCall(ctx context.Context, userID, reason string, at *time.Time) (*SupportResult, error) {
	profile, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.Phone == "" {
		return &SupportResult{Success: false, Error: "No phone number on file"}, nil
	}

	scheduled := s.now().Add(24 * time.Hour)
	if at != nil {
		scheduled = *at
	}
	call := &domain.ScheduledCall{
		CallID:        fmt.Sprintf("CALL-%s", s.now().Format("20060102150405")),
		UserID:        userID,
		Phone:         profile.Phone,
		Reason:        reason,
		ScheduledTime: scheduled,
		Status:        "scheduled",
	}
	if err := s.repo.SaveCall(ctx, call); err != nil {
		return nil, err
	}
	logging.Info(ctx, "follow-up call scheduled", "call_id", call.CallID, "user_id", userID, "scheduled_time", scheduled)
	return &SupportResult{
		Success: true,
		CallID:  call.CallID,
		Message: fmt.Sprintf("Call scheduled for %s.", scheduled.Format("Jan 2 3:04 PM")),
	}, nil
}
