package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omnisales/omnisales/internal/cart/application"
	"github.com/omnisales/omnisales/internal/cart/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

const (
	userHeader  = "X-User-ID"
	guestHeader = "X-Guest-Session"

	ownerTypeKey = "cart_owner_type"
	ownerIDKey   = "cart_owner_id"
)

// OwnerResolver 解析购物车归属者：认证用户头与访客会话头必须恰好出现一个，
// 且与请求声明的归属一致。令牌签发本身由上游网关负责。
func OwnerResolver() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userHeader)
		guestID := c.GetHeader(guestHeader)
		if (userID == "") == (guestID == "") {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "exactly one of user token or guest session is required", "")
			c.Abort()
			return
		}
		if userID != "" {
			c.Set(ownerTypeKey, domain.OwnerUser)
			c.Set(ownerIDKey, userID)
		} else {
			c.Set(ownerTypeKey, domain.OwnerGuest)
			c.Set(ownerIDKey, guestID)
		}
		c.Next()
	}
}

func ownerOf(c *gin.Context) (domain.OwnerType, string) {
	return c.MustGet(ownerTypeKey).(domain.OwnerType), c.MustGet(ownerIDKey).(string)
}

// CartHandler 购物车 HTTP 处理器
type CartHandler struct {
	svc *application.CartService
}

func NewCartHandler(svc *application.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/cart", OwnerResolver())
	{
		api.GET("", h.GetCart)
		api.POST("/items", h.AddItem)
		api.PUT("/items/:product_id", h.UpdateQuantity)
		api.DELETE("/items/:product_id", h.RemoveItem)
		api.DELETE("", h.ClearCart)
	}
}

// CartView 购物车响应体
type CartView struct {
	Items []domain.CartItem `json:"items"`
	Total float64           `json:"total"`
}

func view(cart *domain.Cart) CartView {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartView{Items: items, Total: cart.Total()}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	ownerType, ownerID := ownerOf(c)
	cart, err := h.svc.GetCart(c.Request.Context(), ownerType, ownerID)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to get cart", "owner_id", ownerID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, view(cart))
}

// AddItemRequest 加购请求
type AddItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	ownerType, ownerID := ownerOf(c)
	cart, err := h.svc.AddItem(c.Request.Context(), ownerType, ownerID, domain.CartItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Quantity:  req.Quantity,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "failed to add cart item", "owner_id", ownerID, "product_id", req.ProductID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, view(cart))
}

// UpdateQuantityRequest 改量请求，quantity <= 0 删除该行
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	ownerType, ownerID := ownerOf(c)
	cart, err := h.svc.UpdateQuantity(c.Request.Context(), ownerType, ownerID, c.Param("product_id"), req.Quantity)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to update cart quantity", "owner_id", ownerID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, view(cart))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	ownerType, ownerID := ownerOf(c)
	cart, err := h.svc.RemoveItem(c.Request.Context(), ownerType, ownerID, c.Param("product_id"))
	if err != nil {
		logging.Error(c.Request.Context(), "failed to remove cart item", "owner_id", ownerID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, view(cart))
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	ownerType, ownerID := ownerOf(c)
	cart, err := h.svc.ClearCart(c.Request.Context(), ownerType, ownerID)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to clear cart", "owner_id", ownerID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, view(cart))
}
