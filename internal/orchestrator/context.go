package orchestrator

import (
	"context"
	"fmt"
	"strings"

	cartdomain "github.com/omnisales/omnisales/internal/cart/domain"
	loyaltyapp "github.com/omnisales/omnisales/internal/loyalty/application"
	orderapp "github.com/omnisales/omnisales/internal/order/application"
	sessiondomain "github.com/omnisales/omnisales/internal/session/domain"
	supportapp "github.com/omnisales/omnisales/internal/support/application"
	userdomain "github.com/omnisales/omnisales/internal/user/domain"
)

const systemPrompt = "You are an AI sales assistant for OmniSales."

// ContextBuilder 把会话摘要、偏好、购物车、最近对话与当前消息
// 拼成单个生成 Prompt。
type ContextBuilder struct {
	sessions sessiondomain.SessionRepository
	users    userdomain.UserRepository
	carts    CartManager
}

func NewContextBuilder(sessions sessiondomain.SessionRepository, users userdomain.UserRepository, carts CartManager) *ContextBuilder {
	return &ContextBuilder{sessions: sessions, users: users, carts: carts}
}

func (b *ContextBuilder) Build(ctx context.Context, userID, sessionID string, ownerType cartdomain.OwnerType, ownerID, message string) (string, error) {
	var sb strings.Builder
	sb.WriteString(systemPrompt)

	session, err := b.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session != nil && session.Summary != "" {
		sb.WriteString("\n\n=== SUMMARY ===\n")
		sb.WriteString(session.Summary)
	}

	profile, err := b.users.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if profile != nil && (profile.PreferredCategory != "" || profile.MaxPrice > 0) {
		sb.WriteString("\n\n=== PREFERENCES ===")
		if profile.PreferredCategory != "" {
			sb.WriteString(fmt.Sprintf("\n- category: %s", profile.PreferredCategory))
		}
		if profile.MaxPrice > 0 {
			sb.WriteString(fmt.Sprintf("\n- max_price: %.2f", profile.MaxPrice))
		}
	}

	cart, err := b.carts.GetCart(ctx, ownerType, ownerID)
	if err != nil {
		return "", err
	}
	if cart != nil && len(cart.Items) > 0 {
		sb.WriteString("\n\n=== CART ===")
		for _, item := range cart.Items {
			sb.WriteString(fmt.Sprintf("\n- %s x%d", item.Name, item.Quantity))
		}
	}

	recent, err := b.sessions.Recent(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if len(recent) > 0 {
		sb.WriteString("\n\n=== RECENT ===")
		for _, m := range recent {
			sb.WriteString(fmt.Sprintf("\n%s: %s", strings.ToUpper(m.Role), m.Text))
		}
	}

	sb.WriteString("\n\n=== CURRENT ===\nUSER: ")
	sb.WriteString(message)
	return sb.String(), nil
}

// productSummary 进入 Prompt 与 Action 数据的商品视图
type productSummary struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image,omitempty"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
}

// stockInfo 单品库存查询视图
type stockInfo struct {
	Product productSummary `json:"product"`
	Stock   int            `json:"stock"`
}

// cartView 购物车视图
type cartView struct {
	Items []cartdomain.CartItem `json:"items"`
	Total float64               `json:"total"`
}

// formatResult 按结果类型为生成 Prompt 追加结构化段落，
// 并告诉生成端该用什么口吻复述。
func formatResult(result any) string {
	switch r := result.(type) {
	case nil:
		return ""
	case []productSummary:
		if len(r) == 0 {
			return ""
		}
		var sb strings.Builder
		sb.WriteString("\n\n=== AVAILABLE PRODUCTS ===\n")
		for _, p := range r {
			sb.WriteString(fmt.Sprintf("- %s ($%.2f) - Stock: %d\n", p.Name, p.Price, p.Stock))
		}
		sb.WriteString("\nDescribe these products to the customer naturally.")
		return sb.String()
	case *orderapp.Tracking:
		var sb strings.Builder
		sb.WriteString("\n\n=== ORDER INFORMATION ===\n")
		sb.WriteString(fmt.Sprintf("Order ID: %s\n", r.OrderID))
		sb.WriteString(fmt.Sprintf("Status: %s\n", r.Status))
		if r.ETA != "" {
			sb.WriteString(fmt.Sprintf("ETA: %s\n", r.ETA))
		}
		sb.WriteString("\nExplain this order status to the customer in a friendly way.")
		return sb.String()
	case *loyaltyapp.PointsInfo:
		var sb strings.Builder
		sb.WriteString("\n\n=== LOYALTY INFORMATION ===\n")
		sb.WriteString(fmt.Sprintf("Points Balance: %d\n", r.Points))
		sb.WriteString(fmt.Sprintf("Tier: %s\n", titleCase(r.Tier)))
		if r.LifetimeValue > 0 {
			sb.WriteString(fmt.Sprintf("Lifetime Value: $%.2f\n", r.LifetimeValue))
		}
		sb.WriteString("\nShare this loyalty information with the customer positively.")
		return sb.String()
	case *loyaltyapp.RedeemResult:
		return formatActionResult(r.Success, r.Success, r.Error, map[string]any{
			"points_redeemed":  r.PointsRedeemed,
			"discount_amount":  r.DiscountAmount,
			"remaining_points": r.RemainingPoints,
		})
	case *supportapp.SupportResult:
		details := map[string]any{}
		if r.ReturnID != "" {
			details["return_id"] = r.ReturnID
		}
		if r.RefundID != "" {
			details["refund_id"] = r.RefundID
		}
		if r.TicketID != "" {
			details["ticket_id"] = r.TicketID
		}
		if r.CallID != "" {
			details["call_id"] = r.CallID
		}
		if r.Message != "" {
			details["message"] = r.Message
		}
		return formatActionResult(r.Success, r.Success, r.Error, details)
	case *Outcome:
		return formatActionResult(r.Success, r.Verified, r.Error, r.Details)
	default:
		return fmt.Sprintf("\n\n=== AGENT RESULT ===\n%v", result)
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatActionResult(success, verified bool, errText string, details map[string]any) string {
	var sb strings.Builder
	switch {
	case success && verified:
		sb.WriteString("\n\n=== ACTION COMPLETED ===\n")
	case success:
		sb.WriteString("\n\n=== ACTION PENDING CONFIRMATION ===\n")
	default:
		sb.WriteString("\n\n=== ACTION FAILED ===\n")
		if errText == "" {
			errText = "Unknown error"
		}
		sb.WriteString(fmt.Sprintf("Error: %s\n", errText))
		sb.WriteString("\nPolitely explain why this action failed and suggest alternatives.")
		return sb.String()
	}
	for k, v := range details {
		sb.WriteString(fmt.Sprintf("%s: %v\n", titleCase(strings.ReplaceAll(k, "_", " ")), v))
	}
	if success && verified {
		sb.WriteString("\nConfirm this action to the customer positively.")
	} else {
		sb.WriteString("\nDo NOT confirm completion. Ask the user to verify in the app.")
	}
	return sb.String()
}
