package orchestrator

// Action 回复附带的副作用记录。
// Verified=true 表示后端已确认持久化成功；false 表示已尝试但未确认。
type Action struct {
	Type     string `json:"type"`
	Data     any    `json:"data"`
	Verified bool   `json:"verified"`
}

// Action.Type 取值
const (
	ActionShowProducts  = "show_products"
	ActionShowStock     = "show_stock"
	ActionShowCart      = "show_cart"
	ActionCartUpdated   = "cart_updated"
	ActionOrderCreated  = "order_created"
	ActionOrderStatus   = "order_status"
	ActionLoyaltyInfo   = "loyalty_info"
	ActionSupportTicket = "support_ticket"
	ActionCallScheduled = "call_scheduled"
	ActionPOSSync       = "pos_sync"
)

// Reply 路由处理的最终输出
type Reply struct {
	Reply     string   `json:"reply"`
	AgentUsed Intent   `json:"agent_used"`
	Actions   []Action `json:"actions,omitempty"`
}

// Outcome 动作类处理器的结构化结果，进入 Prompt 与 Action.Data
type Outcome struct {
	Success  bool           `json:"success"`
	Verified bool           `json:"verified"`
	Error    string         `json:"error,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}
