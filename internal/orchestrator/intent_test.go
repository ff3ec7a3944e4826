package orchestrator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		message string
		want    Intent
	}{
		{"", IntentGeneral},
		{"   ", IntentGeneral},
		{"12345", IntentGeneral},
		{"!!!", IntentGeneral},
		{"hello there", IntentGeneral},

		{"Suggest something for me", IntentRecommendation},
		{"What are your top sellers?", IntentRecommendation},
		{"I'm looking for a gift", IntentRecommendation},

		{"Do you have any left?", IntentInventory},
		{"Is this in stock?", IntentInventory},

		{"Add the Adidas shirt to cart", IntentCart},
		{"view cart", IntentCart},
		{"I want this", IntentCart},
		{"I'll take it", IntentCart},
		{"i want that one too", IntentCart},
		{"add a charger as well", IntentCart},
		{"put it in my basket", IntentCart},
		{"empty my basket", IntentCart},

		{"I'd like to checkout", IntentPayment},
		{"proceed to payment", IntentPayment},

		{"Where is my package? track it", IntentTracking},
		{"when will it arrive", IntentTracking},

		{"this item is broken", IntentPostPurchase},
		{"I need a refund for order 123", IntentPostPurchase},

		{"please call me tomorrow", IntentProactive},

		{"sync inventory with the store system", IntentPOSSync},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.message), "message: %q", tc.message)
	}
}

// offer/coupon/deal 必须压过 recommendation 关键词
func TestClassifyOffersBeatRecommendation(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, IntentLoyalty, Classify("Show me available offers"))
	}
	assert.Equal(t, IntentLoyalty, Classify("any deals today?"))
	assert.Equal(t, IntentLoyalty, Classify("do you have a coupon"))
}

// 规则表扫描跳过 loyalty 行，纯积分查询落到 general
func TestClassifyPointsFallsThrough(t *testing.T) {
	assert.Equal(t, IntentGeneral, Classify("how many points do I have"))
}

func TestClassifyCaseInsensitive(t *testing.T) {
	assert.Equal(t, IntentCart, Classify("VIEW CART"))
	assert.Equal(t, IntentLoyalty, Classify("Any OFFERS?"))
}

func TestClassifyLongMessage(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 10000) + "view cart"
	assert.Equal(t, IntentCart, Classify(long))
}
