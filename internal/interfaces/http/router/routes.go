package router

import (
	"github.com/erp/procurement/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// PurchaseOrderRoutesConfig carries the per-route middleware of the
// purchase order group
type PurchaseOrderRoutesConfig struct {
	// PaymentGuard runs before RecordPayment, typically the idempotency middleware
	PaymentGuard gin.HandlerFunc
	// AttachmentLimit replaces the global body limit on attachment uploads
	AttachmentLimit gin.HandlerFunc
}

// NewPurchaseOrderRoutes builds the /purchase-orders route group
func NewPurchaseOrderRoutes(h *handler.PurchaseOrderHandler, cfg PurchaseOrderRoutesConfig) *DomainGroup {
	g := NewDomainGroup("purchase-orders", "/purchase-orders")

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.UpdateDetails)
	g.DELETE("/:id", h.Delete)
	g.PUT("/:id/status", h.UpdateStatus)
	g.PUT("/:id/shipping", h.UpdateShipping)
	g.PUT("/:id/due-date", h.UpdateDueDate)
	g.PUT("/:id/note", h.UpdateNote)
	g.POST("/:id/attachment", withPrefix(cfg.AttachmentLimit, h.UploadAttachment)...)
	g.GET("/:id/attachment-url", h.GetAttachmentURL)

	g.POST("/:id/items", h.AddItem)
	g.PUT("/:id/items/:item_id", h.UpdateItem)
	g.DELETE("/:id/items/:item_id", h.RemoveItem)
	g.POST("/:id/items/:item_id/receive", h.ReceiveItem)

	g.POST("/:id/payments", withPrefix(cfg.PaymentGuard, h.RecordPayment)...)
	g.PUT("/:id/payments/:payment_id/date", h.UpdatePaymentDate)

	return g
}

// NewCatalogRoutes builds the catalog and inventory routes. Both are
// registered at the API root since they share no prefix.
func NewCatalogRoutes(h *handler.CatalogHandler) *DomainGroup {
	g := NewDomainGroup("catalog", "")

	catalog := g.Group("catalog", "/catalog")
	catalog.GET("/variants", h.SearchVariants)
	catalog.POST("/products", h.CreateProduct)

	inventory := g.Group("inventory", "/inventory")
	inventory.GET("", h.ListInventory)
	inventory.POST("/adjust", h.AdjustInventory)

	return g
}

func withPrefix(mw gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if mw == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{mw, h}
}
