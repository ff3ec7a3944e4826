package orchestrator

import (
	"context"
	"strconv"
	"strings"
	"time"

	cartdomain "github.com/omnisales/omnisales/internal/cart/domain"
	catalogdomain "github.com/omnisales/omnisales/internal/catalog/domain"
	"github.com/omnisales/omnisales/internal/llm"
	loyaltyapp "github.com/omnisales/omnisales/internal/loyalty/application"
	loyaltydomain "github.com/omnisales/omnisales/internal/loyalty/domain"
	orderapp "github.com/omnisales/omnisales/internal/order/application"
	"github.com/omnisales/omnisales/internal/pos"
	supportapp "github.com/omnisales/omnisales/internal/support/application"
	userdomain "github.com/omnisales/omnisales/internal/user/domain"
	"github.com/wyfcoding/pkg/logging"
)

// 未核验动作的固定回复模板，防止生成端把未确认的副作用说成已完成
const pendingTemplate = "I have received your request. The action is pending backend confirmation, and I will update you once it succeeds."

const apologyReply = "I'm sorry, I couldn't process your request."

const confirmGuardReply = "I cannot confirm or revert changes until the backend verifies the action. " +
	"Please specify the exact cart change you want me to perform."

// CatalogDirectory 路由侧消费的目录读接口
type CatalogDirectory interface {
	SearchByName(ctx context.Context, name string) (*catalogdomain.Product, error)
	ListProducts(ctx context.Context, filter catalogdomain.Filter, limit int) ([]*catalogdomain.Product, error)
}

// CartManager 路由侧消费的购物车接口
type CartManager interface {
	GetCart(ctx context.Context, ownerType cartdomain.OwnerType, ownerID string) (*cartdomain.Cart, error)
	AddItem(ctx context.Context, ownerType cartdomain.OwnerType, ownerID string, item cartdomain.CartItem) (*cartdomain.Cart, error)
	RemoveItem(ctx context.Context, ownerType cartdomain.OwnerType, ownerID string, productID string) (*cartdomain.Cart, error)
	ClearCart(ctx context.Context, ownerType cartdomain.OwnerType, ownerID string) (*cartdomain.Cart, error)
}

// OrderTracker 订单跟踪查询接口
type OrderTracker interface {
	Track(ctx context.Context, orderID string) (*orderapp.Tracking, error)
}

// LoyaltyDesk 会员查询与兑换接口
type LoyaltyDesk interface {
	GetPoints(ctx context.Context, userID string) (*loyaltyapp.PointsInfo, error)
	CheckOffers(ctx context.Context, userID string) ([]*loyaltydomain.Offer, error)
	Redeem(ctx context.Context, userID string, points int) (*loyaltyapp.RedeemResult, error)
}

// SupportDesk 售后接口
type SupportDesk interface {
	InitiateReturn(ctx context.Context, orderID, reason string) (*supportapp.SupportResult, error)
	RequestRefund(ctx context.Context, orderID string) (*supportapp.SupportResult, error)
	ReportIssue(ctx context.Context, orderID, userID, issueType, description string) (*supportapp.SupportResult, error)
	ScheduleFollowUpCall(ctx context.Context, userID, reason string, at *time.Time) (*supportapp.SupportResult, error)
}

// POSGateway 门店库存接口
type POSGateway interface {
	Inventory(ctx context.Context, locationID string) *pos.InventorySnapshot
}

// Router 请求编排器：分类 -> 处理器 -> 拼上下文 -> 生成 -> 核验门控
type Router struct {
	catalog  CatalogDirectory
	carts    CartManager
	tracker  OrderTracker
	loyalty  LoyaltyDesk
	support  SupportDesk
	posAPI   POSGateway
	users    userdomain.UserRepository
	builder  *ContextBuilder
	generate llm.Generator
}

func NewRouter(
	catalog CatalogDirectory,
	carts CartManager,
	tracker OrderTracker,
	loyalty LoyaltyDesk,
	support SupportDesk,
	posAPI POSGateway,
	users userdomain.UserRepository,
	builder *ContextBuilder,
	generate llm.Generator,
) *Router {
	return &Router{
		catalog:  catalog,
		carts:    carts,
		tracker:  tracker,
		loyalty:  loyalty,
		support:  support,
		posAPI:   posAPI,
		users:    users,
		builder:  builder,
		generate: generate,
	}
}

// resolveOwner 带 guest_ 前缀或空 user_id 的请求按访客处理，
// 购物车落到会话维度。
func resolveOwner(userID, sessionID string) (cartdomain.OwnerType, string) {
	if userID != "" && !strings.HasPrefix(userID, "guest_") {
		return cartdomain.OwnerUser, userID
	}
	return cartdomain.OwnerGuest, sessionID
}

// Route 处理单条入站消息。处理器内部失败降级为道歉回复而非向上传播。
func (r *Router) Route(ctx context.Context, userID, sessionID, message string) (*Reply, error) {
	intent := Classify(message)
	lower := strings.ToLower(message)
	logging.Info(ctx, "routing request", "intent", intent, "user_id", userID, "session_id", sessionID)

	if intent == IntentGeneral && containsAny(lower, []string{"confirm", "revert", "adjustment", "approve"}) {
		return &Reply{Reply: confirmGuardReply, AgentUsed: IntentGeneral}, nil
	}

	ownerType, ownerID := resolveOwner(userID, sessionID)

	result, actions, err := r.dispatch(ctx, intent, lower, message, userID, ownerType, ownerID)
	if err != nil {
		logging.Error(ctx, "handler failed", "intent", intent, "user_id", userID, "error", err)
		return &Reply{Reply: apologyReply, AgentUsed: intent}, nil
	}

	prompt, err := r.builder.Build(ctx, userID, sessionID, ownerType, ownerID, message)
	if err != nil {
		logging.Error(ctx, "context build failed", "session_id", sessionID, "error", err)
		return &Reply{Reply: apologyReply, AgentUsed: intent, Actions: actions}, nil
	}
	prompt += formatResult(result)

	text, err := r.generate.Generate(ctx, prompt)
	if err != nil {
		logging.Warn(ctx, "generation failed", "intent", intent, "error", err)
		text = ""
	}
	text = sanitizeReply(text, actions)
	if text == "" {
		text = apologyReply
	}

	logging.Info(ctx, "agent completed", "agent_used", intent, "user_id", userID, "session_id", sessionID, "actions", len(actions))
	return &Reply{Reply: text, AgentUsed: intent, Actions: actions}, nil
}

// sanitizeReply 门控律：动作列表里任何一个 Verified=false，
// 整条回复替换为固定的待确认模板。
func sanitizeReply(reply string, actions []Action) string {
	if reply == "" || len(actions) == 0 {
		return reply
	}
	for _, a := range actions {
		if !a.Verified {
			return pendingTemplate
		}
	}
	return reply
}

// dispatch 按意图分发到处理器。switch 穷举全部意图变体。
func (r *Router) dispatch(ctx context.Context, intent Intent, lower, message, userID string, ownerType cartdomain.OwnerType, ownerID string) (any, []Action, error) {
	switch intent {
	case IntentRecommendation:
		return r.handleRecommendation(ctx, userID)
	case IntentInventory:
		return r.handleInventory(ctx, message)
	case IntentCart:
		return r.handleCart(ctx, lower, message, ownerType, ownerID)
	case IntentPayment:
		return r.handlePayment(ctx, ownerType, ownerID)
	case IntentTracking:
		return r.handleTracking(ctx, message)
	case IntentLoyalty:
		return r.handleLoyalty(ctx, lower, message, userID)
	case IntentPostPurchase:
		return r.handlePostPurchase(ctx, lower, message, userID)
	case IntentProactive:
		return r.handleProactive(ctx, lower, message, userID)
	case IntentPOSSync:
		return r.handlePOSSync(ctx, lower)
	case IntentGeneral:
		return nil, nil, nil
	default:
		return nil, nil, nil
	}
}

func toSummaries(products []*catalogdomain.Product) []productSummary {
	summaries := make([]productSummary, 0, len(products))
	for _, p := range products {
		summaries = append(summaries, productSummary{
			ProductID:   p.ProductID,
			Name:        p.Name,
			Price:       p.Price,
			Category:    p.Category,
			Stock:       p.Stock,
			Image:       p.Image,
			Description: p.Description,
			Rating:      p.Rating,
		})
	}
	return summaries
}

// handleRecommendation 按用户偏好筛有货商品，不足 5 个时放宽条件补齐
func (r *Router) handleRecommendation(ctx context.Context, userID string) (any, []Action, error) {
	filter := catalogdomain.Filter{InStock: true}
	profile, err := r.users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if profile != nil {
		filter.Category = profile.PreferredCategory
		filter.MaxPrice = profile.MaxPrice
	}

	products, err := r.catalog.ListProducts(ctx, filter, 5)
	if err != nil {
		return nil, nil, err
	}
	if len(products) < 5 {
		more, err := r.catalog.ListProducts(ctx, catalogdomain.Filter{InStock: true}, 5-len(products))
		if err != nil {
			return nil, nil, err
		}
		products = append(products, more...)
	}

	if len(products) == 0 {
		return nil, nil, nil
	}
	summaries := toSummaries(products)
	return summaries, []Action{{Type: ActionShowProducts, Data: summaries, Verified: true}}, nil
}

func (r *Router) handleInventory(ctx context.Context, message string) (any, []Action, error) {
	if category := ExtractCategory(message); category != "" {
		products, err := r.catalog.ListProducts(ctx, catalogdomain.Filter{Category: category}, 10)
		if err != nil {
			return nil, nil, err
		}
		if len(products) == 0 {
			return nil, nil, nil
		}
		summaries := toSummaries(products)
		return summaries, []Action{{Type: ActionShowProducts, Data: summaries, Verified: true}}, nil
	}

	if name := ExtractProductName(message); name != "" {
		product, err := r.catalog.SearchByName(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		if product == nil {
			return nil, nil, nil
		}
		info := &stockInfo{
			Product: productSummary{
				ProductID: product.ProductID,
				Name:      product.Name,
				Category:  product.Category,
				Price:     product.Price,
			},
			Stock: product.Stock,
		}
		return info, []Action{{Type: ActionShowStock, Data: info, Verified: true}}, nil
	}

	products, err := r.catalog.ListProducts(ctx, catalogdomain.Filter{}, 10)
	if err != nil {
		return nil, nil, err
	}
	if len(products) == 0 {
		return nil, nil, nil
	}
	summaries := toSummaries(products)
	return summaries, []Action{{Type: ActionShowProducts, Data: summaries, Verified: true}}, nil
}

// handleCart 按子关键词分流查看/删除/清空/加购。
// 写操作的 Verified 以写后读回的实际状态为准，不信任调用返回值。
func (r *Router) handleCart(ctx context.Context, lower, message string, ownerType cartdomain.OwnerType, ownerID string) (any, []Action, error) {
	switch {
	case strings.Contains(lower, "view") || strings.Contains(lower, "show") || strings.Contains(lower, "my cart"):
		cart, err := r.carts.GetCart(ctx, ownerType, ownerID)
		if err != nil {
			return nil, nil, err
		}
		view := &cartView{Items: cart.Items, Total: cart.Total()}
		if view.Items == nil {
			view.Items = []cartdomain.CartItem{}
		}
		return view, []Action{{Type: ActionShowCart, Data: view, Verified: true}}, nil

	case strings.Contains(lower, "remove") || strings.Contains(lower, "delete"):
		name := ExtractProductName(message)
		if name == "" {
			return &Outcome{Success: false, Error: "Product name not found"}, nil, nil
		}
		cart, err := r.carts.GetCart(ctx, ownerType, ownerID)
		if err != nil {
			return nil, nil, err
		}
		var target *cartdomain.CartItem
		for i := range cart.Items {
			if strings.Contains(strings.ToLower(cart.Items[i].Name), name) {
				target = &cart.Items[i]
				break
			}
		}
		var outcome *Outcome
		if target == nil {
			outcome = &Outcome{Success: false, Error: "Item not found in cart"}
		} else {
			updated, err := r.carts.RemoveItem(ctx, ownerType, ownerID, target.ProductID)
			if err != nil {
				return nil, nil, err
			}
			removed := !updated.Contains(target.ProductID)
			action := "removed"
			if !removed {
				action = "remove_failed"
			}
			outcome = &Outcome{
				Success:  removed,
				Verified: removed,
				Details:  map[string]any{"action": action, "cart_size": len(updated.Items)},
			}
		}
		return outcome, []Action{{Type: ActionCartUpdated, Data: outcome, Verified: outcome.Verified}}, nil

	case strings.Contains(lower, "clear") || strings.Contains(lower, "empty"):
		updated, err := r.carts.ClearCart(ctx, ownerType, ownerID)
		if err != nil {
			return nil, nil, err
		}
		cleared := len(updated.Items) == 0
		action := "cleared"
		if !cleared {
			action = "clear_failed"
		}
		outcome := &Outcome{
			Success:  cleared,
			Verified: cleared,
			Details:  map[string]any{"action": action, "cart_size": len(updated.Items), "total": 0},
		}
		return outcome, []Action{{Type: ActionCartUpdated, Data: outcome, Verified: outcome.Verified}}, nil

	default:
		name := ExtractProductName(message)
		if name == "" {
			return nil, nil, nil
		}
		product, err := r.catalog.SearchByName(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		logging.Info(ctx, "cart product lookup", "product_name", name, "found", product != nil)
		if product == nil {
			return &Outcome{Success: false, Error: "Product not found"}, nil, nil
		}
		if product.Stock <= 0 {
			outcome := &Outcome{Success: false, Error: "Product is out of stock"}
			return outcome, []Action{{Type: ActionCartUpdated, Data: outcome, Verified: false}}, nil
		}

		updated, err := r.carts.AddItem(ctx, ownerType, ownerID, cartdomain.CartItem{
			ProductID: product.ProductID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  1,
		})
		if err != nil {
			return nil, nil, err
		}
		verified := updated.Contains(product.ProductID)
		outcome := &Outcome{
			Success:  verified,
			Verified: verified,
			Details: map[string]any{
				"product":   product.Name,
				"cart_size": len(updated.Items),
				"total":     updated.Total(),
			},
		}
		return outcome, []Action{{Type: ActionCartUpdated, Data: outcome, Verified: verified}}, nil
	}
}

// handlePayment 聊天通道不执行支付，引导走结账接口。
// 动作保持 Verified=false，让门控模板接管回复。
func (r *Router) handlePayment(ctx context.Context, ownerType cartdomain.OwnerType, ownerID string) (any, []Action, error) {
	cart, err := r.carts.GetCart(ctx, ownerType, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if len(cart.Items) == 0 {
		return nil, nil, nil
	}
	outcome := &Outcome{Success: false, Error: "Payment must be completed via checkout"}
	return outcome, []Action{{Type: ActionOrderCreated, Data: outcome, Verified: false}}, nil
}

func (r *Router) handleTracking(ctx context.Context, message string) (any, []Action, error) {
	orderID := ExtractOrderID(message)
	if orderID == "" {
		return nil, nil, nil
	}
	tracking, err := r.tracker.Track(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if tracking == nil {
		return nil, nil, nil
	}
	return tracking, []Action{{Type: ActionOrderStatus, Data: tracking, Verified: true}}, nil
}

// handleLoyalty 查积分/查优惠/兑换。loyalty_info 动作无条件 Verified=true，
// 即便底层账户查询未命中。
func (r *Router) handleLoyalty(ctx context.Context, lower, message, userID string) (any, []Action, error) {
	var result any
	switch {
	case strings.Contains(lower, "points") || strings.Contains(lower, "balance"):
		info, err := r.loyalty.GetPoints(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		if info != nil {
			result = info
		}
	case strings.Contains(lower, "offer") || strings.Contains(lower, "deal"):
		offers, err := r.loyalty.CheckOffers(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		if len(offers) > 0 {
			result = offers
		}
	case strings.Contains(lower, "redeem"):
		points := digitsIn(message)
		if points > 0 {
			redeemed, err := r.loyalty.Redeem(ctx, userID, points)
			if err != nil {
				return nil, nil, err
			}
			result = redeemed
		} else {
			info, err := r.loyalty.GetPoints(ctx, userID)
			if err != nil {
				return nil, nil, err
			}
			if info != nil {
				result = info
			}
		}
	}

	if result == nil {
		return nil, nil, nil
	}
	return result, []Action{{Type: ActionLoyaltyInfo, Data: result, Verified: true}}, nil
}

// digitsIn 把消息里出现的全部数字拼起来解析，对话里够用
func digitsIn(message string) int {
	var sb strings.Builder
	for _, r := range message {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(sb.String())
	if err != nil {
		return 0
	}
	return n
}

func (r *Router) handlePostPurchase(ctx context.Context, lower, message, userID string) (any, []Action, error) {
	orderID := ExtractOrderID(message)
	if orderID == "" {
		return nil, nil, nil
	}

	var result *supportapp.SupportResult
	var err error
	switch {
	case strings.Contains(lower, "return"):
		result, err = r.support.InitiateReturn(ctx, orderID, message)
	case strings.Contains(lower, "refund"):
		result, err = r.support.RequestRefund(ctx, orderID)
	case strings.Contains(lower, "issue") || strings.Contains(lower, "problem"):
		result, err = r.support.ReportIssue(ctx, orderID, userID, "general", message)
	}
	if err != nil {
		return nil, nil, err
	}
	if result == nil {
		return nil, nil, nil
	}
	return result, []Action{{Type: ActionSupportTicket, Data: result, Verified: result.Success}}, nil
}

func (r *Router) handleProactive(ctx context.Context, lower, message, userID string) (any, []Action, error) {
	if !strings.Contains(lower, "call me") {
		return nil, nil, nil
	}
	result, err := r.support.ScheduleFollowUpCall(ctx, userID, message, nil)
	if err != nil {
		return nil, nil, err
	}
	if result == nil {
		return nil, nil, nil
	}
	return result, []Action{{Type: ActionCallScheduled, Data: result, Verified: result.Success}}, nil
}

func (r *Router) handlePOSSync(ctx context.Context, lower string) (any, []Action, error) {
	if !strings.Contains(lower, "inventory") && !strings.Contains(lower, "stock") {
		return nil, nil, nil
	}
	snapshot := r.posAPI.Inventory(ctx, "")
	outcome := &Outcome{Success: snapshot.Success, Verified: snapshot.Success, Error: snapshot.Error}
	if snapshot.Success {
		outcome.Details = map[string]any{"data": snapshot.Data}
	}
	return outcome, []Action{{Type: ActionPOSSync, Data: outcome, Verified: outcome.Verified}}, nil
}
