package catalog

import "github.com/shopspring/decimal"

// Variant is a purchasable catalog variant, used to seed line items
type Variant struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	SKU          string          `json:"sku"`
	Price        decimal.Decimal `json:"price"`
	ProductTitle string          `json:"product_title"`
}

// VariantSearchResult is the answer to a variant search. Blocked is true
// when the query was too short to be sent upstream.
type VariantSearchResult struct {
	Variants []Variant `json:"variants"`
	Blocked  bool      `json:"blocked"`
}

// CreateProductRequest describes a single-variant product to create with
// initial stock at the shop's first location
type CreateProductRequest struct {
	Title    string
	SKU      string
	Price    decimal.Decimal
	Quantity int
}

// InventoryRow is one variant's stock at its first inventory location
type InventoryRow struct {
	VariantID       string `json:"variant_id"`
	InventoryItemID string `json:"inventory_item_id"`
	LocationID      string `json:"location_id,omitempty"`
	ProductTitle    string `json:"product_title"`
	SKU             string `json:"sku"`
	ImageURL        string `json:"image_url,omitempty"`
	Available       int    `json:"available"`
	Incoming        int    `json:"incoming"`
}

// PageInfo carries cursor pagination state from the catalog API
type PageInfo struct {
	HasNextPage     bool   `json:"has_next_page"`
	HasPreviousPage bool   `json:"has_previous_page"`
	StartCursor     string `json:"start_cursor,omitempty"`
	EndCursor       string `json:"end_cursor,omitempty"`
}

// InventoryQuery selects a page of inventory. At most one of After and
// Before is honoured; Before wins.
type InventoryQuery struct {
	After  string
	Before string
	Limit  int
}

// InventoryPage is one page of inventory rows
type InventoryPage struct {
	Rows     []InventoryRow `json:"rows"`
	PageInfo PageInfo       `json:"page_info"`
}

// AdjustInventoryRequest changes the available quantity of an item at a location by Delta
type AdjustInventoryRequest struct {
	InventoryItemID string
	LocationID      string
	Delta           int
}
