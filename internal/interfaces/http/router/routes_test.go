package router

import (
	"net/http"
	"testing"

	"github.com/erp/procurement/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewPurchaseOrderRoutes(t *testing.T) {
	g := NewPurchaseOrderRoutes(handler.NewPurchaseOrderHandler(nil, 0), PurchaseOrderRoutesConfig{})

	routes := g.Routes()
	assert.Len(t, routes, 17)
	for _, want := range []Route{
		{http.MethodPost, "/purchase-orders"},
		{http.MethodGet, "/purchase-orders"},
		{http.MethodPut, "/purchase-orders/:id"},
		{http.MethodPost, "/purchase-orders/:id/attachment"},
		{http.MethodGet, "/purchase-orders/:id/attachment-url"},
		{http.MethodPost, "/purchase-orders/:id/items/:item_id/receive"},
		{http.MethodPost, "/purchase-orders/:id/payments"},
		{http.MethodPut, "/purchase-orders/:id/payments/:payment_id/date"},
	} {
		assert.Contains(t, routes, want)
	}
}

func TestNewPurchaseOrderRoutes_PerRouteMiddleware(t *testing.T) {
	var guarded, limited []string
	cfg := PurchaseOrderRoutesConfig{
		PaymentGuard: func(c *gin.Context) {
			guarded = append(guarded, c.FullPath())
			c.AbortWithStatus(http.StatusConflict)
		},
		AttachmentLimit: func(c *gin.Context) {
			limited = append(limited, c.FullPath())
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
		},
	}

	engine := gin.New()
	r := NewRouter(engine)
	r.Register(NewPurchaseOrderRoutes(handler.NewPurchaseOrderHandler(nil, 0), cfg)).Setup()

	id := "6f1c2a9e-5b7d-4c1e-9a3f-2d8e4b6c0a11"
	assert.Equal(t, http.StatusConflict, serve(engine, http.MethodPost, "/api/v1/purchase-orders/"+id+"/payments").Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(engine, http.MethodPost, "/api/v1/purchase-orders/"+id+"/attachment").Code)

	assert.Equal(t, []string{"/api/v1/purchase-orders/:id/payments"}, guarded)
	assert.Equal(t, []string{"/api/v1/purchase-orders/:id/attachment"}, limited)
}

func TestNewCatalogRoutes(t *testing.T) {
	g := NewCatalogRoutes(handler.NewCatalogHandler(nil))

	assert.ElementsMatch(t, []Route{
		{http.MethodGet, "/catalog/variants"},
		{http.MethodPost, "/catalog/products"},
		{http.MethodGet, "/inventory"},
		{http.MethodPost, "/inventory/adjust"},
	}, g.Routes())
}
