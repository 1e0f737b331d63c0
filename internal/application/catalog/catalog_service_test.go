package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway records the calls that reach the catalog
type fakeGateway struct {
	searches    []string
	searchLimit int
	variants    []Variant
	created     *CreateProductRequest
	inventory   *InventoryQuery
	adjusted    *AdjustInventoryRequest
	err         error
}

func (g *fakeGateway) SearchVariants(_ context.Context, query string, limit int) ([]Variant, error) {
	g.searches = append(g.searches, query)
	g.searchLimit = limit
	return g.variants, g.err
}

func (g *fakeGateway) CreateProduct(_ context.Context, req CreateProductRequest) (*Variant, error) {
	g.created = &req
	if g.err != nil {
		return nil, g.err
	}
	return &Variant{ID: "gid://shopify/ProductVariant/77", Title: "Default Title", SKU: req.SKU, Price: req.Price, ProductTitle: req.Title}, nil
}

func (g *fakeGateway) ListInventory(_ context.Context, query InventoryQuery) (*InventoryPage, error) {
	g.inventory = &query
	if g.err != nil {
		return nil, g.err
	}
	return &InventoryPage{Rows: []InventoryRow{{VariantID: "v1", Available: 4}}}, nil
}

func (g *fakeGateway) AdjustInventory(_ context.Context, req AdjustInventoryRequest) error {
	g.adjusted = &req
	return g.err
}

func TestCatalogService_SearchVariants(t *testing.T) {
	gw := &fakeGateway{variants: []Variant{{ID: "gid://shopify/ProductVariant/1", ProductTitle: "Desk lamp"}}}
	svc := NewCatalogService(gw)

	result, err := svc.SearchVariants(context.Background(), "  lamp ")
	require.NoError(t, err)
	assert.False(t, result.Blocked)
	assert.Len(t, result.Variants, 1)
	assert.Equal(t, []string{"lamp"}, gw.searches)
	assert.Equal(t, 20, gw.searchLimit)
}

func TestCatalogService_SearchVariantsShortQuery(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewCatalogService(gw)

	for _, q := range []string{"", " ", "a", " é "} {
		result, err := svc.SearchVariants(context.Background(), q)
		require.NoError(t, err)
		assert.True(t, result.Blocked, "query %q", q)
		assert.NotNil(t, result.Variants)
		assert.Empty(t, result.Variants)
	}
	assert.Empty(t, gw.searches)

	result, err := svc.SearchVariants(context.Background(), "éé")
	require.NoError(t, err)
	assert.False(t, result.Blocked, "two runes are enough")
	assert.NotNil(t, result.Variants)
}

func TestCatalogService_SearchVariantsUpstreamError(t *testing.T) {
	gw := &fakeGateway{err: shared.NewUpstreamError("shopify", errors.New("throttled"))}

	_, err := NewCatalogService(gw).SearchVariants(context.Background(), "lamp")
	assert.True(t, shared.IsCode(err, shared.CodeUpstream))
}

func TestCatalogService_CreateProduct(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewCatalogService(gw)

	variant, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Title: "  Walnut shelf ", SKU: " WS-1 ", Price: decimal.NewFromInt(80), Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Walnut shelf", gw.created.Title)
	assert.Equal(t, "WS-1", gw.created.SKU)
	assert.Equal(t, "Walnut shelf", variant.ProductTitle)
}

func TestCatalogService_CreateProductValidation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateProductRequest
		msg  string
	}{
		{"blank title", CreateProductRequest{Title: "  "}, "Product title is required"},
		{"negative price", CreateProductRequest{Title: "Shelf", Price: decimal.NewFromInt(-1)}, "Price cannot be negative"},
		{"negative quantity", CreateProductRequest{Title: "Shelf", Quantity: -2}, "Quantity cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			_, err := NewCatalogService(gw).CreateProduct(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, shared.IsCode(err, shared.CodeValidation))
			assert.Equal(t, tt.msg, err.Error())
			assert.Nil(t, gw.created)
		})
	}
}

func TestCatalogService_ListInventory(t *testing.T) {
	tests := []struct {
		name  string
		query InventoryQuery
		want  InventoryQuery
	}{
		{"default limit", InventoryQuery{}, InventoryQuery{Limit: 10}},
		{"capped limit", InventoryQuery{Limit: 500, After: "c1"}, InventoryQuery{Limit: 50, After: "c1"}},
		{"before wins", InventoryQuery{Limit: 5, After: "c1", Before: "c0"}, InventoryQuery{Limit: 5, Before: "c0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			page, err := NewCatalogService(gw).ListInventory(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Len(t, page.Rows, 1)
			assert.Equal(t, tt.want, *gw.inventory)
		})
	}
}

func TestCatalogService_AdjustInventory(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewCatalogService(gw)

	req := AdjustInventoryRequest{InventoryItemID: "gid://shopify/InventoryItem/1", LocationID: "gid://shopify/Location/1", Delta: -2}
	require.NoError(t, svc.AdjustInventory(context.Background(), req))
	assert.Equal(t, req, *gw.adjusted)

	err := svc.AdjustInventory(context.Background(), AdjustInventoryRequest{LocationID: "loc", Delta: 1})
	assert.Equal(t, "Invalid payload", err.Error())

	err = svc.AdjustInventory(context.Background(), AdjustInventoryRequest{InventoryItemID: "item", LocationID: "loc"})
	assert.True(t, shared.IsCode(err, shared.CodeValidation))
}
