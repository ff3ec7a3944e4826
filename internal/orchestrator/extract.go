package orchestrator

import (
	"regexp"
	"strings"
	"unicode"
)

// 从消息中剔除的动作词与填充词，按声明顺序整词替换
var productStopWords = []string{
	"add", "put", "place", "to", "the", "a", "an", "my", "in", "into",
	"cart", "shopping cart", "basket", "available", "stock", "check",
	"is there", "do you have", "show me", "find", "search", "for",
	"i want", "i need", "i'll take", "give me", "get me", "this", "that",
}

var (
	stopWordPatterns []*regexp.Regexp
	spaceCollapse    = regexp.MustCompile(`\s+`)
)

func init() {
	for _, w := range productStopWords {
		stopWordPatterns = append(stopWordPatterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
}

// ExtractProductName 从自由文本中剥出商品名。
// "Add the Adidas shirt to cart" -> "adidas shirt"。
// 剥完为空返回空串。
func ExtractProductName(message string) string {
	cleaned := strings.ToLower(message)
	for _, p := range stopWordPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(spaceCollapse.ReplaceAllString(cleaned, " "))
}

// 订单号识别模式，按顺序尝试，首个命中即返回
var orderIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)order[:\s#-]+([a-zA-Z0-9\-]{3,})`), // "order 123" / "order #123" / "order: ABC-123"
	regexp.MustCompile(`(?i)#([a-zA-Z0-9\-]{3,})`),             // "#12345" / "#ORD-123"
	regexp.MustCompile(`(?i)\b([a-fA-F0-9\-]{30,})\b`),         // UUID 形态
	regexp.MustCompile(`(?i)\b(ORD-\d+)\b`),
	regexp.MustCompile(`(?i)\b(ORDER\d+)\b`),
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ExtractOrderID 从消息中识别订单号，统一转大写。
// 模式全部未命中时退化为找 3 位以上的独立数字 token。
// 歧义输入按首个模式命中解析，不做更合理性的猜测。
func ExtractOrderID(message string) string {
	message = strings.TrimSpace(message)

	for _, p := range orderIDPatterns {
		if m := p.FindStringSubmatch(message); m != nil {
			return strings.ToUpper(m[1])
		}
	}

	for _, word := range strings.Fields(message) {
		cleaned := strings.Trim(word, "#:")
		if isAllDigits(cleaned) && len(cleaned) >= 3 {
			return cleaned
		}
	}
	return ""
}

var knownCategories = []string{"shirts", "jeans", "shoes", "electronics", "accessories"}

// ExtractCategory 识别消息中提到的商品类目，单复数都认
func ExtractCategory(message string) string {
	lower := strings.ToLower(message)
	for _, category := range knownCategories {
		if strings.Contains(lower, category) || strings.Contains(lower, category[:len(category)-1]) {
			return category
		}
	}
	return ""
}
