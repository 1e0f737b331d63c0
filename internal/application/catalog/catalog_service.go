package catalog

import (
	"context"
	"strings"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
)

// MinSearchLength is the shortest variant query forwarded to the catalog
const MinSearchLength = 2

// Inventory page size bounds
const (
	DefaultInventoryPageSize = 10
	MaxInventoryPageSize     = 50
)

// Gateway is the remote commerce catalog
type Gateway interface {
	// SearchVariants returns variants whose product matches query
	SearchVariants(ctx context.Context, query string, limit int) ([]Variant, error)

	// CreateProduct creates a single-variant product and returns that variant
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Variant, error)

	// ListInventory returns a page of variants with stock levels
	ListInventory(ctx context.Context, query InventoryQuery) (*InventoryPage, error)

	// AdjustInventory applies a delta to the available quantity
	AdjustInventory(ctx context.Context, req AdjustInventoryRequest) error
}

// CatalogService validates catalog requests before they reach the gateway
type CatalogService struct {
	gateway Gateway
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(gateway Gateway) *CatalogService {
	return &CatalogService{gateway: gateway}
}

// SearchVariants searches the catalog. Queries shorter than
// MinSearchLength return an empty, blocked result without an upstream call.
func (s *CatalogService) SearchVariants(ctx context.Context, query string) (*VariantSearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchLength {
		return &VariantSearchResult{Variants: []Variant{}, Blocked: true}, nil
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "search_variants")
	defer span.End()

	variants, err := s.gateway.SearchVariants(ctx, query, 20)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if variants == nil {
		variants = []Variant{}
	}
	return &VariantSearchResult{Variants: variants}, nil
}

// CreateProduct quick-creates a product so it can be added to an order
func (s *CatalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*Variant, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.SKU = strings.TrimSpace(req.SKU)
	if req.Title == "" {
		return nil, shared.NewValidationError("Product title is required")
	}
	if req.Price.IsNegative() {
		return nil, shared.NewValidationError("Price cannot be negative")
	}
	if req.Quantity < 0 {
		return nil, shared.NewValidationError("Quantity cannot be negative")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_product")
	defer span.End()

	variant, err := s.gateway.CreateProduct(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return variant, nil
}

// ListInventory returns a page of variant stock levels
func (s *CatalogService) ListInventory(ctx context.Context, query InventoryQuery) (*InventoryPage, error) {
	if query.Limit <= 0 {
		query.Limit = DefaultInventoryPageSize
	}
	if query.Limit > MaxInventoryPageSize {
		query.Limit = MaxInventoryPageSize
	}
	if query.Before != "" {
		query.After = ""
	}
	return s.gateway.ListInventory(ctx, query)
}

// AdjustInventory corrects the available stock of an inventory item
func (s *CatalogService) AdjustInventory(ctx context.Context, req AdjustInventoryRequest) error {
	if strings.TrimSpace(req.InventoryItemID) == "" || strings.TrimSpace(req.LocationID) == "" {
		return shared.NewValidationError("Invalid payload")
	}
	if req.Delta == 0 {
		return shared.NewValidationError("Delta cannot be zero")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "adjust_inventory")
	defer span.End()
	telemetry.SetAttributes(span, "inventory_item_id", req.InventoryItemID, "delta", req.Delta)

	if err := s.gateway.AdjustInventory(ctx, req); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}
