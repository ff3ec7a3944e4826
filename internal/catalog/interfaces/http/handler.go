package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/omnisales/omnisales/internal/catalog/application"
	"github.com/omnisales/omnisales/internal/catalog/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// CatalogHandler 商品目录 HTTP 处理器
type CatalogHandler struct {
	svc *application.CatalogService
}

func NewCatalogHandler(svc *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/products")
	{
		api.GET("", h.ListProducts)
		api.GET("/:id", h.GetProduct)
	}
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	filter := domain.Filter{
		Category: c.Query("category"),
		InStock:  c.Query("in_stock") == "true",
	}

	products, err := h.svc.ListProducts(c.Request.Context(), filter, limit)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to list products", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, products)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.svc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		logging.Error(c.Request.Context(), "failed to get product", "product_id", c.Param("id"), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if product == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "")
		return
	}
	response.Success(c, product)
}
