package handler

import (
	catalogapp "github.com/erp/procurement/internal/application/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CatalogHandler exposes the commerce catalog to the purchase order screens
type CatalogHandler struct {
	BaseHandler
	catalogService *catalogapp.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *catalogapp.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// CreateProductRequest quick-creates a single-variant product
// @Description Request body for creating a catalog product
type CreateProductRequest struct {
	Title    string          `json:"title" binding:"required,max=255" example:"Walnut desk organizer"`
	SKU      string          `json:"sku" binding:"max=100" example:"ORG-WAL-01"`
	Price    decimal.Decimal `json:"price" swaggertype:"string" example:"24.00"`
	Quantity int             `json:"quantity" binding:"gte=0" example:"0"`
}

// InventoryQuery holds the inventory page parameters
type InventoryQuery struct {
	After  string `form:"after"`
	Before string `form:"before"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// AdjustInventoryRequest changes available stock by a signed delta
// @Description Request body for an inventory correction
type AdjustInventoryRequest struct {
	InventoryItemID string `json:"inventory_item_id" binding:"required" example:"gid://shopify/InventoryItem/301"`
	LocationID      string `json:"location_id" binding:"required" example:"gid://shopify/Location/1"`
	Delta           int    `json:"delta" binding:"required" example:"-2"`
}

// SearchVariants godoc
// @ID           searchCatalogVariants
// @Summary      Search catalog variants
// @Description  Queries shorter than two characters return an empty blocked result
// @Tags         catalog
// @Produce      json
// @Param        q query string true "Product title or SKU"
// @Success      200 {object} dto.Response{data=catalogapp.VariantSearchResult}
// @Failure      502 {object} dto.Response
// @Router       /catalog/variants [get]
func (h *CatalogHandler) SearchVariants(c *gin.Context) {
	result, err := h.catalogService.SearchVariants(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CreateProduct godoc
// @ID           createCatalogProduct
// @Summary      Create a catalog product
// @Description  Creates a single-variant product with initial stock at the first location
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=catalogapp.Variant}
// @Failure      400 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /catalog/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	variant, err := h.catalogService.CreateProduct(c.Request.Context(), catalogapp.CreateProductRequest{
		Title:    req.Title,
		SKU:      req.SKU,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, variant)
}

// ListInventory godoc
// @ID           listInventory
// @Summary      List inventory levels
// @Description  Cursor paginated stock levels per variant
// @Tags         inventory
// @Produce      json
// @Param        after query string false "Cursor to page forward from"
// @Param        before query string false "Cursor to page back from"
// @Param        limit query int false "Page size" default(10) maximum(50)
// @Success      200 {object} dto.Response{data=catalogapp.InventoryPage}
// @Failure      400 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /inventory [get]
func (h *CatalogHandler) ListInventory(c *gin.Context) {
	var query InventoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.catalogService.ListInventory(c.Request.Context(), catalogapp.InventoryQuery{
		After:  query.After,
		Before: query.Before,
		Limit:  query.Limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, page)
}

// AdjustInventory godoc
// @ID           adjustInventory
// @Summary      Correct available stock
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body AdjustInventoryRequest true "Adjustment"
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /inventory/adjust [post]
func (h *CatalogHandler) AdjustInventory(c *gin.Context) {
	var req AdjustInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	err := h.catalogService.AdjustInventory(c.Request.Context(), catalogapp.AdjustInventoryRequest{
		InventoryItemID: req.InventoryItemID,
		LocationID:      req.LocationID,
		Delta:           req.Delta,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
