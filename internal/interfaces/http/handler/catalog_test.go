package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	catalogapp "github.com/erp/procurement/internal/application/catalog"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	variants []catalogapp.Variant
	query    catalogapp.InventoryQuery
	adjusted *catalogapp.AdjustInventoryRequest
	err      error
}

func (g *stubGateway) SearchVariants(_ context.Context, _ string, _ int) ([]catalogapp.Variant, error) {
	return g.variants, g.err
}

func (g *stubGateway) CreateProduct(_ context.Context, req catalogapp.CreateProductRequest) (*catalogapp.Variant, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &catalogapp.Variant{ID: "gid://shopify/ProductVariant/9", SKU: req.SKU, Price: req.Price, ProductTitle: req.Title}, nil
}

func (g *stubGateway) ListInventory(_ context.Context, query catalogapp.InventoryQuery) (*catalogapp.InventoryPage, error) {
	g.query = query
	if g.err != nil {
		return nil, g.err
	}
	return &catalogapp.InventoryPage{Rows: []catalogapp.InventoryRow{{VariantID: "v1", Available: 3}}}, nil
}

func (g *stubGateway) AdjustInventory(_ context.Context, req catalogapp.AdjustInventoryRequest) error {
	g.adjusted = &req
	return g.err
}

func newCatalogAPI(gw *stubGateway) *gin.Engine {
	h := NewCatalogHandler(catalogapp.NewCatalogService(gw))
	engine := gin.New()
	engine.GET("/catalog/variants", h.SearchVariants)
	engine.POST("/catalog/products", h.CreateProduct)
	engine.GET("/inventory", h.ListInventory)
	engine.POST("/inventory/adjust", h.AdjustInventory)
	return engine
}

func serveJSON(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCatalogHandler_SearchVariants(t *testing.T) {
	gw := &stubGateway{variants: []catalogapp.Variant{{ID: "v1", ProductTitle: "Desk lamp", Price: decimal.NewFromInt(19)}}}
	engine := newCatalogAPI(gw)

	w := serveJSON(engine, http.MethodGet, "/catalog/variants?q=lamp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	result := decodeData[catalogapp.VariantSearchResult](t, env)
	assert.False(t, result.Blocked)
	assert.Len(t, result.Variants, 1)

	w = serveJSON(engine, http.MethodGet, "/catalog/variants?q=l", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	result = decodeData[catalogapp.VariantSearchResult](t, env)
	assert.True(t, result.Blocked)
	assert.Empty(t, result.Variants)
}

func TestCatalogHandler_UpstreamFailure(t *testing.T) {
	gw := &stubGateway{err: shared.NewUpstreamError("catalog", errors.New("HTTP 503"))}
	engine := newCatalogAPI(gw)

	w := serveJSON(engine, http.MethodGet, "/catalog/variants?q=lamp", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, dto.ErrCodeUpstream, env.Error.Code)
	assert.Equal(t, "catalog request failed", env.Error.Message)
}

func TestCatalogHandler_CreateProduct(t *testing.T) {
	engine := newCatalogAPI(&stubGateway{})

	w := serveJSON(engine, http.MethodPost, "/catalog/products", map[string]any{"title": "Walnut shelf", "sku": "SHF-1", "price": "80", "quantity": 2})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = serveJSON(engine, http.MethodPost, "/catalog/products", map[string]any{"sku": "SHF-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serveJSON(engine, http.MethodPost, "/catalog/products", map[string]any{"title": "Shelf", "price": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogHandler_ListInventory(t *testing.T) {
	gw := &stubGateway{}
	engine := newCatalogAPI(gw)

	w := serveJSON(engine, http.MethodGet, "/inventory?after=c1&before=c0&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, catalogapp.InventoryQuery{Before: "c0", Limit: 5}, gw.query)

	w = serveJSON(engine, http.MethodGet, "/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, gw.query.Limit)

	w = serveJSON(engine, http.MethodGet, "/inventory?limit=51", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogHandler_AdjustInventory(t *testing.T) {
	gw := &stubGateway{}
	engine := newCatalogAPI(gw)

	w := serveJSON(engine, http.MethodPost, "/inventory/adjust", map[string]any{
		"inventory_item_id": "gid://shopify/InventoryItem/1", "location_id": "gid://shopify/Location/1", "delta": -2,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, gw.adjusted)
	assert.Equal(t, -2, gw.adjusted.Delta)

	w = serveJSON(engine, http.MethodPost, "/inventory/adjust", map[string]any{"location_id": "loc", "delta": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
