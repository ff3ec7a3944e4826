package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	cartdomain "github.com/omnisales/omnisales/internal/cart/domain"
	catalogdomain "github.com/omnisales/omnisales/internal/catalog/domain"
	loyaltyapp "github.com/omnisales/omnisales/internal/loyalty/application"
	loyaltydomain "github.com/omnisales/omnisales/internal/loyalty/domain"
	orderapp "github.com/omnisales/omnisales/internal/order/application"
	orderdomain "github.com/omnisales/omnisales/internal/order/domain"
	"github.com/omnisales/omnisales/internal/pos"
	sessiondomain "github.com/omnisales/omnisales/internal/session/domain"
	supportapp "github.com/omnisales/omnisales/internal/support/application"
	userdomain "github.com/omnisales/omnisales/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	byName map[string]*catalogdomain.Product
	lists  [][]*catalogdomain.Product
}

func (f *fakeCatalog) SearchByName(ctx context.Context, name string) (*catalogdomain.Product, error) {
	return f.byName[name], nil
}

func (f *fakeCatalog) ListProducts(ctx context.Context, filter catalogdomain.Filter, limit int) ([]*catalogdomain.Product, error) {
	if len(f.lists) == 0 {
		return nil, nil
	}
	list := f.lists[0]
	f.lists = f.lists[1:]
	return list, nil
}

type fakeCarts struct {
	carts map[string]*cartdomain.Cart
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{carts: make(map[string]*cartdomain.Cart)}
}

func (f *fakeCarts) cartOf(ownerType cartdomain.OwnerType, ownerID string) *cartdomain.Cart {
	k := string(ownerType) + "/" + ownerID
	cart, ok := f.carts[k]
	if !ok {
		cart = &cartdomain.Cart{OwnerType: ownerType, OwnerID: ownerID}
		f.carts[k] = cart
	}
	return cart
}

func (f *fakeCarts) GetCart(ctx context.Context, ownerType cartdomain.OwnerType, ownerID string) (*cartdomain.Cart, error) {
	return f.cartOf(ownerType, ownerID), nil
}

func (f *fakeCarts) AddItem(ctx context.Context, ownerType cartdomain.OwnerType, ownerID string, item cartdomain.CartItem) (*cartdomain.Cart, error) {
	cart := f.cartOf(ownerType, ownerID)
	cart.AddItem(item)
	return cart, nil
}

func (f *fakeCarts) RemoveItem(ctx context.Context, ownerType cartdomain.OwnerType, ownerID string, productID string) (*cartdomain.Cart, error) {
	cart := f.cartOf(ownerType, ownerID)
	cart.RemoveItem(productID)
	return cart, nil
}

func (f *fakeCarts) ClearCart(ctx context.Context, ownerType cartdomain.OwnerType, ownerID string) (*cartdomain.Cart, error) {
	cart := f.cartOf(ownerType, ownerID)
	cart.Items = nil
	return cart, nil
}

type fakeTracker struct {
	tracking map[string]*orderapp.Tracking
}

func (f *fakeTracker) Track(ctx context.Context, orderID string) (*orderapp.Tracking, error) {
	return f.tracking[orderID], nil
}

type fakeLoyalty struct {
	points *loyaltyapp.PointsInfo
	offers []*loyaltydomain.Offer
	redeem *loyaltyapp.RedeemResult
}

func (f *fakeLoyalty) GetPoints(ctx context.Context, userID string) (*loyaltyapp.PointsInfo, error) {
	return f.points, nil
}

func (f *fakeLoyalty) CheckOffers(ctx context.Context, userID string) ([]*loyaltydomain.Offer, error) {
	return f.offers, nil
}

func (f *fakeLoyalty) Redeem(ctx context.Context, userID string, points int) (*loyaltyapp.RedeemResult, error) {
	return f.redeem, nil
}

type fakeSupport struct {
	result *supportapp.SupportResult
}

func (f *fakeSupport) InitiateReturn(ctx context.Context, orderID, reason string) (*supportapp.SupportResult, error) {
	return f.result, nil
}

func (f *fakeSupport) RequestRefund(ctx context.Context, orderID string) (*supportapp.SupportResult, error) {
	return f.result, nil
}

func (f *fakeSupport) ReportIssue(ctx context.Context, orderID, userID, issueType, description string) (*supportapp.SupportResult, error) {
	return f.result, nil
}

func (f *fakeSupport) ScheduleFollowUpCall(ctx context.Context, userID, reason string, at *time.Time) (*supportapp.SupportResult, error) {
	return f.result, nil
}

type fakePOS struct {
	snapshot *pos.InventorySnapshot
}

func (f *fakePOS) Inventory(ctx context.Context, locationID string) *pos.InventorySnapshot {
	return f.snapshot
}

type fakeUsers struct {
	profiles map[string]*userdomain.UserProfile
}

func (f *fakeUsers) GetByUserID(ctx context.Context, userID string) (*userdomain.UserProfile, error) {
	return f.profiles[userID], nil
}

func (f *fakeUsers) Save(ctx context.Context, profile *userdomain.UserProfile) error {
	f.profiles[profile.UserID] = profile
	return nil
}

type fakeSessions struct {
	sessions map[string]*sessiondomain.Session
	messages map[string][]*sessiondomain.Message
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		sessions: make(map[string]*sessiondomain.Session),
		messages: make(map[string][]*sessiondomain.Message),
	}
}

func (f *fakeSessions) Get(ctx context.Context, sessionID string) (*sessiondomain.Session, error) {
	return f.sessions[sessionID], nil
}

func (f *fakeSessions) AppendMessage(ctx context.Context, sessionID, role, text string) error {
	f.messages[sessionID] = append(f.messages[sessionID], &sessiondomain.Message{SessionID: sessionID, Role: role, Text: text})
	return nil
}

func (f *fakeSessions) Recent(ctx context.Context, sessionID string) ([]*sessiondomain.Message, error) {
	msgs := f.messages[sessionID]
	if len(msgs) > sessiondomain.RecentWindow {
		msgs = msgs[len(msgs)-sessiondomain.RecentWindow:]
	}
	return msgs, nil
}

func (f *fakeSessions) UpdateSummary(ctx context.Context, sessionID, summary string) error {
	s, ok := f.sessions[sessionID]
	if !ok {
		s = &sessiondomain.Session{SessionID: sessionID}
		f.sessions[sessionID] = s
	}
	s.Summary = summary
	return nil
}

func (f *fakeSessions) BindUser(ctx context.Context, sessionID, userID string) error {
	return nil
}

type stubGenerator struct {
	text    string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}

func (g *stubGenerator) Name() string { return "stub" }

type routerFixture struct {
	catalog *fakeCatalog
	carts   *fakeCarts
	tracker *fakeTracker
	loyalty *fakeLoyalty
	support *fakeSupport
	posAPI  *fakePOS
	users   *fakeUsers
	gen     *stubGenerator
	router  *Router
}

func newFixture() *routerFixture {
	f := &routerFixture{
		catalog: &fakeCatalog{byName: make(map[string]*catalogdomain.Product)},
		carts:   newFakeCarts(),
		tracker: &fakeTracker{tracking: make(map[string]*orderapp.Tracking)},
		loyalty: &fakeLoyalty{},
		support: &fakeSupport{},
		posAPI:  &fakePOS{snapshot: &pos.InventorySnapshot{Success: false, Error: "POS not configured"}},
		users:   &fakeUsers{profiles: make(map[string]*userdomain.UserProfile)},
		gen:     &stubGenerator{text: "Sure, all done!"},
	}
	sessions := newFakeSessions()
	builder := NewContextBuilder(sessions, f.users, f.carts)
	f.router = NewRouter(f.catalog, f.carts, f.tracker, f.loyalty, f.support, f.posAPI, f.users, builder, f.gen)
	return f
}

func TestRouteConfirmGuard(t *testing.T) {
	f := newFixture()

	reply, err := f.router.Route(context.Background(), "u1", "s1", "can you confirm the adjustment")

	require.NoError(t, err)
	assert.Equal(t, IntentGeneral, reply.AgentUsed)
	assert.Equal(t, confirmGuardReply, reply.Reply)
	assert.Empty(t, reply.Actions)
}

func TestRouteCartAddVerified(t *testing.T) {
	f := newFixture()
	f.catalog.byName["adidas shirt"] = &catalogdomain.Product{ProductID: "P1", Name: "Adidas Shirt", Price: 29.99, Stock: 3}

	reply, err := f.router.Route(context.Background(), "u1", "s1", "Add the Adidas shirt to cart")

	require.NoError(t, err)
	assert.Equal(t, IntentCart, reply.AgentUsed)
	assert.Equal(t, "Sure, all done!", reply.Reply)
	require.Len(t, reply.Actions, 1)
	assert.Equal(t, ActionCartUpdated, reply.Actions[0].Type)
	assert.True(t, reply.Actions[0].Verified)
	assert.True(t, f.carts.cartOf(cartdomain.OwnerUser, "u1").Contains("P1"))
}

// 门控律：任一动作 Verified=false，整条回复必须是固定模板原文
func TestRouteGatingLawOutOfStock(t *testing.T) {
	f := newFixture()
	f.catalog.byName["adidas shirt"] = &catalogdomain.Product{ProductID: "P1", Name: "Adidas Shirt", Price: 29.99, Stock: 0}
	f.gen.text = "Great news, I added it to your cart!"

	reply, err := f.router.Route(context.Background(), "u1", "s1", "Add the Adidas shirt to cart")

	require.NoError(t, err)
	assert.Equal(t, pendingTemplate, reply.Reply)
	require.Len(t, reply.Actions, 1)
	assert.False(t, reply.Actions[0].Verified)
	assert.False(t, f.carts.cartOf(cartdomain.OwnerUser, "u1").Contains("P1"))
}

func TestRouteCartRemoveMissingItemGated(t *testing.T) {
	f := newFixture()

	reply, err := f.router.Route(context.Background(), "u1", "s1", "remove the hat from my cart")

	require.NoError(t, err)
	require.Len(t, reply.Actions, 1)
	assert.False(t, reply.Actions[0].Verified)
	assert.Equal(t, pendingTemplate, reply.Reply)
}

func TestRoutePaymentRedirectGated(t *testing.T) {
	f := newFixture()
	cart := f.carts.cartOf(cartdomain.OwnerUser, "u1")
	cart.AddItem(cartdomain.CartItem{ProductID: "P1", Name: "Shirt", Price: 10, Quantity: 1})
	f.gen.text = "Your order has been placed!"

	reply, err := f.router.Route(context.Background(), "u1", "s1", "checkout now please")

	require.NoError(t, err)
	assert.Equal(t, IntentPayment, reply.AgentUsed)
	require.Len(t, reply.Actions, 1)
	assert.Equal(t, ActionOrderCreated, reply.Actions[0].Type)
	assert.False(t, reply.Actions[0].Verified)
	assert.Equal(t, pendingTemplate, reply.Reply)
}

func TestRouteTrackingVerified(t *testing.T) {
	f := newFixture()
	f.tracker.tracking["123"] = &orderapp.Tracking{OrderID: "123", Status: orderdomain.StatusShipped, ETA: "2026-09-02T00:00:00Z"}

	reply, err := f.router.Route(context.Background(), "u1", "s1", "track order 123")

	require.NoError(t, err)
	assert.Equal(t, IntentTracking, reply.AgentUsed)
	require.Len(t, reply.Actions, 1)
	assert.Equal(t, ActionOrderStatus, reply.Actions[0].Type)
	assert.True(t, reply.Actions[0].Verified)
	assert.Equal(t, "Sure, all done!", reply.Reply)
	assert.Contains(t, f.gen.prompts[0], "=== ORDER INFORMATION ===")
	assert.Contains(t, f.gen.prompts[0], "Order ID: 123")
}

// loyalty_info 动作无条件 Verified=true，即便兑换本身失败
func TestRouteLoyaltyRedeemVerifiedUnconditionally(t *testing.T) {
	f := newFixture()
	f.loyalty.redeem = &loyaltyapp.RedeemResult{Success: false, Error: "Insufficient points"}

	reply, err := f.router.Route(context.Background(), "u1", "s1", "redeem 500 with my coupon")

	require.NoError(t, err)
	assert.Equal(t, IntentLoyalty, reply.AgentUsed)
	require.Len(t, reply.Actions, 1)
	assert.Equal(t, ActionLoyaltyInfo, reply.Actions[0].Type)
	assert.True(t, reply.Actions[0].Verified)
	assert.Equal(t, "Sure, all done!", reply.Reply)
	assert.Contains(t, f.gen.prompts[0], "=== ACTION FAILED ===")
}

func TestRouteRecommendationShowsProducts(t *testing.T) {
	f := newFixture()
	f.catalog.lists = [][]*catalogdomain.Product{
		{
			{ProductID: "P1", Name: "Runner", Price: 59.99, Stock: 4, Category: "shoes"},
			{ProductID: "P2", Name: "Walker", Price: 39.99, Stock: 2, Category: "shoes"},
		},
		{
			{ProductID: "P3", Name: "Cap", Price: 9.99, Stock: 9, Category: "accessories"},
		},
	}

	reply, err := f.router.Route(context.Background(), "u1", "s1", "recommend something for me")

	require.NoError(t, err)
	require.Len(t, reply.Actions, 1)
	assert.Equal(t, ActionShowProducts, reply.Actions[0].Type)
	assert.True(t, reply.Actions[0].Verified)
	prompt := f.gen.prompts[0]
	assert.Contains(t, prompt, "=== AVAILABLE PRODUCTS ===")
	assert.Contains(t, prompt, "Runner ($59.99) - Stock: 4")
	assert.Contains(t, prompt, "Cap ($9.99) - Stock: 9")
}

func TestRouteGenerationFailureApology(t *testing.T) {
	f := newFixture()
	f.gen.err = errors.New("all providers down")
	f.gen.text = ""

	reply, err := f.router.Route(context.Background(), "u1", "s1", "hello there")

	require.NoError(t, err)
	assert.Equal(t, apologyReply, reply.Reply)
}

func TestRouteGuestOwnerResolution(t *testing.T) {
	f := newFixture()
	f.catalog.byName["adidas shirt"] = &catalogdomain.Product{ProductID: "P1", Name: "Adidas Shirt", Price: 29.99, Stock: 3}

	_, err := f.router.Route(context.Background(), "guest_42", "sess-9", "Add the Adidas shirt to cart")

	require.NoError(t, err)
	assert.True(t, f.carts.cartOf(cartdomain.OwnerGuest, "sess-9").Contains("P1"))
	assert.False(t, f.carts.cartOf(cartdomain.OwnerUser, "guest_42").Contains("P1"))
}

func TestRouteCartViewIncludesCartSection(t *testing.T) {
	f := newFixture()
	cart := f.carts.cartOf(cartdomain.OwnerUser, "u1")
	cart.AddItem(cartdomain.CartItem{ProductID: "P1", Name: "Adidas Shirt", Price: 29.99, Quantity: 2})

	reply, err := f.router.Route(context.Background(), "u1", "s1", "show my cart")

	require.NoError(t, err)
	require.Len(t, reply.Actions, 1)
	assert.Equal(t, ActionShowCart, reply.Actions[0].Type)
	assert.True(t, reply.Actions[0].Verified)
	assert.Contains(t, f.gen.prompts[0], "=== CART ===")
	assert.Contains(t, f.gen.prompts[0], "- Adidas Shirt x2")
}

func TestRoutePOSSyncNotConfiguredGated(t *testing.T) {
	f := newFixture()

	reply, err := f.router.Route(context.Background(), "u1", "s1", "pos inventory status")

	require.NoError(t, err)
	assert.Equal(t, IntentPOSSync, reply.AgentUsed)
	require.Len(t, reply.Actions, 1)
	assert.False(t, reply.Actions[0].Verified)
	assert.Equal(t, pendingTemplate, reply.Reply)
}

func TestContextBuilderSections(t *testing.T) {
	sessions := newFakeSessions()
	users := &fakeUsers{profiles: map[string]*userdomain.UserProfile{
		"u1": {UserID: "u1", PreferredCategory: "shoes", MaxPrice: 100},
	}}
	carts := newFakeCarts()
	carts.cartOf(cartdomain.OwnerUser, "u1").AddItem(cartdomain.CartItem{ProductID: "P1", Name: "Runner", Quantity: 1})
	require.NoError(t, sessions.UpdateSummary(context.Background(), "s1", "customer likes running shoes"))
	require.NoError(t, sessions.AppendMessage(context.Background(), "s1", "user", "hi"))
	require.NoError(t, sessions.AppendMessage(context.Background(), "s1", "assistant", "hello!"))

	builder := NewContextBuilder(sessions, users, carts)
	prompt, err := builder.Build(context.Background(), "u1", "s1", cartdomain.OwnerUser, "u1", "any shoes?")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, systemPrompt))
	assert.Contains(t, prompt, "=== SUMMARY ===\ncustomer likes running shoes")
	assert.Contains(t, prompt, "- category: shoes")
	assert.Contains(t, prompt, "- max_price: 100.00")
	assert.Contains(t, prompt, "- Runner x1")
	assert.Contains(t, prompt, "USER: hi")
	assert.Contains(t, prompt, "ASSISTANT: hello!")
	assert.Contains(t, prompt, "=== CURRENT ===\nUSER: any shoes?")

	// 段落按 摘要 -> 偏好 -> 购物车 -> 最近 -> 当前 排列
	idxSummary := strings.Index(prompt, "=== SUMMARY ===")
	idxPrefs := strings.Index(prompt, "=== PREFERENCES ===")
	idxCart := strings.Index(prompt, "=== CART ===")
	idxRecent := strings.Index(prompt, "=== RECENT ===")
	idxCurrent := strings.Index(prompt, "=== CURRENT ===")
	assert.True(t, idxSummary < idxPrefs && idxPrefs < idxCart && idxCart < idxRecent && idxRecent < idxCurrent)
}
