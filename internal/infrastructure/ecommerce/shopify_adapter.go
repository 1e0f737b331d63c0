package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/erp/procurement/internal/application/catalog"
	"github.com/erp/procurement/internal/domain/shared"
	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed response size from the Admin API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Errors returned (wrapped in an upstream DomainError) by the adapter
var (
	ErrShopifyUnavailable   = errors.New("shopify: platform unavailable")
	ErrShopifyRequestFailed = errors.New("shopify: request failed")
	ErrShopifyNoLocation    = errors.New("shopify: shop has no inventory location")
)

const (
	searchVariantsQuery = `query ($query: String!, $first: Int!) {
  products(first: $first, query: $query) {
    edges { node { variants(first: 20) { edges { node { id title sku price product { title } } } } } }
  }
}`

	firstLocationQuery = `query { locations(first: 1) { nodes { id } } }`

	productSetMutation = `mutation CreateProduct($input: ProductSetInput!) {
  productSet(synchronous: true, input: $input) {
    product { id variants(first: 1) { nodes { id title sku price product { title } } } }
    userErrors { field message }
  }
}`

	inventoryListQuery = `query ($first: Int, $last: Int, $after: String, $before: String) {
  products(first: $first, last: $last, after: $after, before: $before) {
    pageInfo { hasNextPage hasPreviousPage startCursor endCursor }
    edges { node {
      title
      featuredImage { url }
      variants(first: 100) { edges { node {
        id sku
        inventoryItem { id inventoryLevels(first: 1) { edges { node {
          location { id }
          quantities(names: ["available", "incoming"]) { name quantity }
        } } } }
      } } }
    } }
  }
}`

	inventoryAdjustMutation = `mutation inventoryAdjust($input: InventoryAdjustQuantitiesInput!) {
  inventoryAdjustQuantities(input: $input) { userErrors { field message } }
}`
)

// ShopifyAdapter implements catalog.Gateway over the Shopify Admin GraphQL API
type ShopifyAdapter struct {
	config     *ShopifyConfig
	httpClient *http.Client
	logger     *zap.Logger
}

var _ catalog.Gateway = (*ShopifyAdapter)(nil)

// NewShopifyAdapter creates a new adapter with the given configuration
func NewShopifyAdapter(config *ShopifyConfig, logger *zap.Logger) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ShopifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// SearchVariants returns the variants of products matching query
func (a *ShopifyAdapter) SearchVariants(ctx context.Context, query string, limit int) ([]catalog.Variant, error) {
	var data variantSearchData
	if err := a.do(ctx, searchVariantsQuery, map[string]any{"query": query, "first": limit}, &data); err != nil {
		return nil, err
	}

	variants := make([]catalog.Variant, 0)
	for _, p := range data.Products.Edges {
		for _, v := range p.Node.Variants.Edges {
			variants = append(variants, toCatalogVariant(v.Node))
		}
	}
	return variants, nil
}

// CreateProduct creates a one-variant product stocked at the shop's first location
func (a *ShopifyAdapter) CreateProduct(ctx context.Context, req catalog.CreateProductRequest) (*catalog.Variant, error) {
	var locations locationsData
	if err := a.do(ctx, firstLocationQuery, nil, &locations); err != nil {
		return nil, err
	}
	if len(locations.Locations.Nodes) == 0 {
		return nil, shared.NewUpstreamError("catalog", ErrShopifyNoLocation)
	}
	locationID := locations.Locations.Nodes[0].ID

	input := map[string]any{
		"title": req.Title,
		"productOptions": []map[string]any{
			{"name": "Title", "values": []map[string]any{{"name": "Default"}}},
		},
		"variants": []map[string]any{{
			"sku":          req.SKU,
			"price":        req.Price.String(),
			"optionValues": []map[string]any{{"optionName": "Title", "name": "Default"}},
			"inventoryQuantities": []map[string]any{
				{"locationId": locationID, "name": "available", "quantity": req.Quantity},
			},
		}},
	}

	var data productSetData
	if err := a.do(ctx, productSetMutation, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}
	if errs := data.ProductSet.UserErrors; len(errs) > 0 {
		return nil, shared.NewValidationError("%s", errs[0].Message)
	}
	if data.ProductSet.Product == nil || len(data.ProductSet.Product.Variants.Nodes) == 0 {
		return nil, shared.NewUpstreamError("catalog", fmt.Errorf("%w: product created without variant", ErrShopifyRequestFailed))
	}

	variant := toCatalogVariant(data.ProductSet.Product.Variants.Nodes[0])
	a.logger.Info("Created catalog product",
		zap.String("variant_id", variant.ID),
		zap.String("location_id", locationID),
		zap.Int("quantity", req.Quantity),
	)
	return &variant, nil
}

// ListInventory returns a page of variants with available and incoming stock
func (a *ShopifyAdapter) ListInventory(ctx context.Context, query catalog.InventoryQuery) (*catalog.InventoryPage, error) {
	vars := map[string]any{"first": query.Limit, "last": nil, "after": nil, "before": nil}
	if query.Before != "" {
		vars["first"] = nil
		vars["last"] = query.Limit
		vars["before"] = query.Before
	} else if query.After != "" {
		vars["after"] = query.After
	}

	var data inventoryListData
	if err := a.do(ctx, inventoryListQuery, vars, &data); err != nil {
		return nil, err
	}

	rows := make([]catalog.InventoryRow, 0)
	for _, p := range data.Products.Edges {
		image := ""
		if p.Node.FeaturedImage != nil {
			image = p.Node.FeaturedImage.URL
		}
		for _, v := range p.Node.Variants.Edges {
			row := catalog.InventoryRow{
				VariantID:    v.Node.ID,
				ProductTitle: p.Node.Title,
				SKU:          v.Node.SKU,
				ImageURL:     image,
			}
			if row.SKU == "" {
				row.SKU = "-"
			}
			if item := v.Node.InventoryItem; item != nil {
				row.InventoryItemID = item.ID
				if len(item.InventoryLevels.Edges) > 0 {
					level := item.InventoryLevels.Edges[0].Node
					row.LocationID = level.Location.ID
					row.Available = quantityNamed(level.Quantities, "available")
					row.Incoming = quantityNamed(level.Quantities, "incoming")
				}
			}
			rows = append(rows, row)
		}
	}

	pi := data.Products.PageInfo
	return &catalog.InventoryPage{
		Rows: rows,
		PageInfo: catalog.PageInfo{
			HasNextPage:     pi.HasNextPage,
			HasPreviousPage: pi.HasPreviousPage,
			StartCursor:     pi.StartCursor,
			EndCursor:       pi.EndCursor,
		},
	}, nil
}

// AdjustInventory applies a correction delta to the available quantity
func (a *ShopifyAdapter) AdjustInventory(ctx context.Context, req catalog.AdjustInventoryRequest) error {
	input := map[string]any{
		"name":   "available",
		"reason": "correction",
		"changes": []map[string]any{{
			"inventoryItemId": req.InventoryItemID,
			"locationId":      req.LocationID,
			"delta":           req.Delta,
		}},
	}

	var data inventoryAdjustData
	if err := a.do(ctx, inventoryAdjustMutation, map[string]any{"input": input}, &data); err != nil {
		return err
	}
	if errs := data.InventoryAdjustQuantities.UserErrors; len(errs) > 0 {
		return shared.NewValidationError("%s", errs[0].Message)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// do sends one GraphQL operation and decodes its data into out
func (a *ShopifyAdapter) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := a.doRequest(ctx, graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return shared.NewUpstreamError("catalog", err)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return shared.NewUpstreamError("catalog", fmt.Errorf("shopify: failed to decode response: %w", err))
	}
	if len(envelope.Errors) > 0 {
		return shared.NewUpstreamError("catalog", fmt.Errorf("%w: %s", ErrShopifyRequestFailed, envelope.Errors[0].Message))
	}
	if len(envelope.Data) == 0 {
		return shared.NewUpstreamError("catalog", fmt.Errorf("%w: empty data", ErrShopifyRequestFailed))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return shared.NewUpstreamError("catalog", fmt.Errorf("shopify: failed to decode data: %w", err))
	}
	return nil
}

// doRequest performs an HTTP request to the Admin API
func (a *ShopifyAdapter) doRequest(ctx context.Context, payload graphQLRequest) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.GraphQLURL(), bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShopifyUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		a.logger.Warn("Catalog API returned error status", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: HTTP %d", ErrShopifyRequestFailed, resp.StatusCode)
	}

	return body, nil
}

func toCatalogVariant(v shopifyVariant) catalog.Variant {
	return catalog.Variant{
		ID:           v.ID,
		Title:        v.Title,
		SKU:          v.SKU,
		Price:        v.Price,
		ProductTitle: v.Product.Title,
	}
}

func quantityNamed(quantities []inventoryQuantity, name string) int {
	for _, q := range quantities {
		if q.Name == name {
			return q.Quantity
		}
	}
	return 0
}
