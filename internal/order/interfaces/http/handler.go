package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omnisales/omnisales/internal/order/application"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

const userHeader = "X-User-ID"

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	checkout *application.CheckoutService
	query    *application.OrderQueryService
}

func NewOrderHandler(checkout *application.CheckoutService, query *application.OrderQueryService) *OrderHandler {
	return &OrderHandler{checkout: checkout, query: query}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/orders")
	{
		api.POST("", h.CreateOrder)
		api.GET("/:id", h.GetOrder)
		api.GET("/:id/tracking", h.TrackOrder)
	}
}

// CreateOrderRequest 创建订单请求。
// 行内 name/price 来自客户端仅作展示，计价以目录价为准。
type CreateOrderRequest struct {
	Items []struct {
		ProductID string  `json:"product_id" binding:"required"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Quantity  int     `json:"quantity" binding:"required"`
	} `json:"items" binding:"required"`
	TotalAmount     float64        `json:"total_amount" binding:"required"`
	ShippingAddress map[string]any `json:"shipping_address"`
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID := c.GetHeader(userHeader)
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "authentication required", "")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.PlaceOrderCommand{
		UserID:      userID,
		TotalAmount: req.TotalAmount,
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, application.OrderLineInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	if req.ShippingAddress != nil {
		addr, _ := json.Marshal(req.ShippingAddress)
		cmd.ShippingAddress = string(addr)
	}

	order, err := h.checkout.PlaceOrder(c.Request.Context(), cmd)
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}
	response.Success(c, order)
}

func (h *OrderHandler) writeCheckoutError(c *gin.Context, err error) {
	var validationErr *application.ValidationError
	var notFoundErr *application.ProductNotFoundError
	switch {
	case errors.Is(err, application.ErrStockConflict):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, application.ErrTotalMismatch):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.As(err, &validationErr):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.As(err, &notFoundErr):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "order creation failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.query.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		logging.Error(c.Request.Context(), "failed to get order", "order_id", c.Param("id"), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if order == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "order not found", "")
		return
	}
	response.Success(c, order)
}

func (h *OrderHandler) TrackOrder(c *gin.Context) {
	tracking, err := h.query.Track(c.Request.Context(), c.Param("id"))
	if err != nil {
		logging.Error(c.Request.Context(), "failed to track order", "order_id", c.Param("id"), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if tracking == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "order not found", "")
		return
	}
	response.Success(c, tracking)
}
