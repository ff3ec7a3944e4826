// Package orchestrator 实现对话式导购的核心编排：意图分类、实体抽取、
// 按意图分发处理器、上下文拼装、生成回复与核验门控。
package orchestrator

import "strings"

// Intent 消息意图，封闭枚举
type Intent string

const (
	IntentRecommendation Intent = "recommendation"
	IntentInventory      Intent = "inventory"
	IntentCart           Intent = "cart"
	IntentPayment        Intent = "payment"
	IntentTracking       Intent = "tracking"
	IntentLoyalty        Intent = "loyalty"
	IntentPostPurchase   Intent = "post_purchase"
	IntentProactive      Intent = "proactive"
	IntentPOSSync        Intent = "pos_sync"
	IntentGeneral        Intent = "general"
)

// 关键词规则表，按声明顺序扫描，首个命中即定意图。
// cart 与 loyalty 在前置优先规则中单独处理，不走这张表。
var intentRules = []struct {
	intent   Intent
	keywords []string
}{
	{IntentRecommendation, []string{"suggest", "recommend", "best", "top", "popular", "help me find", "looking for", "show me"}},
	{IntentInventory, []string{"available", "stock", "in stock", "do you have", "any left", "check stock"}},
	{IntentPayment, []string{"buy", "purchase", "checkout", "pay", "complete order", "place order", "proceed to payment"}},
	{IntentTracking, []string{"track", "where is", "delivery", "shipped", "order status", "when will", "arrive"}},
	{IntentPostPurchase, []string{"return", "refund", "exchange", "cancel", "complaint", "issue", "problem", "defect", "broken", "wrong", "damaged"}},
	{IntentProactive, []string{"call me", "phone", "follow up", "remind", "schedule", "abandoned cart"}},
	{IntentPOSSync, []string{"pos", "store system", "sync inventory", "in-store"}},
}

var cartKeywords = []string{
	"cart", "add this", "i want this", "i'll take", "put in",
	"view cart", "my cart", "show cart", "remove from cart", "clear cart",
}

var cartQualifiers = []string{"too", "also", "another", "as well"}

var cartVerbs = []string{"add", "put", "remove", "delete", "clear", "empty"}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// Classify 把消息分类到意图。纯函数、首个规则命中即返回：
//  1. offer/coupon/deal 先于一切判为 loyalty（否则会被 recommendation 抢走）
//  2. 购物车系列谓词的析取判为 cart
//  3. 其余意图按规则表声明顺序扫描
//  4. 无命中判为 general
func Classify(message string) Intent {
	if strings.TrimSpace(message) == "" {
		return IntentGeneral
	}
	lower := strings.ToLower(message)

	if containsAny(lower, []string{"offer", "coupon", "deal"}) {
		return IntentLoyalty
	}

	if containsAny(lower, cartKeywords) {
		return IntentCart
	}
	if strings.Contains(lower, "i want") && containsAny(lower, cartQualifiers) {
		return IntentCart
	}
	if strings.Contains(lower, "add ") && containsAny(lower, cartQualifiers) {
		return IntentCart
	}
	if containsAny(lower, []string{"cart", "basket"}) && containsAny(lower, cartVerbs) {
		return IntentCart
	}

	// loyalty 只由前置的 offer/coupon/deal 规则触发，
	// 其余 loyalty 关键词不参与扫描
	for _, rule := range intentRules {
		if containsAny(lower, rule.keywords) {
			return rule.intent
		}
	}

	return IntentGeneral
}
