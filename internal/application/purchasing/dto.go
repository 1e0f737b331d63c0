package purchasing

import (
	"time"

	"github.com/erp/procurement/internal/domain/purchasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Requests ====================

// LineItemInput describes one line item in create/add requests.
// An empty VariantID means a manually entered item.
type LineItemInput struct {
	VariantID string
	Title     string
	SKU       string
	Quantity  int
	UnitCost  decimal.Decimal
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	OrderNumber    string
	VendorName     string
	OrderDate      *time.Time
	ReadyDate      *time.Time
	DueDate        *time.Time
	ShippingCost   decimal.Decimal
	Note           string
	Items          []LineItemInput
	InitialPayment decimal.Decimal
}

// UpdateDetailsRequest is a partial header update; nil fields are untouched
type UpdateDetailsRequest struct {
	OrderNumber *string
	VendorName  *string
	Status      *string
	OrderDate   *time.Time
	ReadyDate   *time.Time
}

// UpdateItemRequest sets a line item's quantity and unit cost
type UpdateItemRequest struct {
	Quantity int
	UnitCost decimal.Decimal
}

// RecordPaymentRequest represents a payment submission
type RecordPaymentRequest struct {
	Amount decimal.Decimal
	PaidAt *time.Time
}

// AttachmentUpload is a file to be stored and referenced from the order
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// ListFilter represents filter options for the purchase order list
type ListFilter struct {
	Page     int
	PageSize int
	Status   string
	Search   string
}

// ==================== Responses ====================

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	Source           string          `json:"source"`
	VariantID        *string         `json:"variant_id,omitempty"`
	Title            string          `json:"title"`
	SKU              string          `json:"sku"`
	Quantity         int             `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	ReceivedQuantity int             `json:"received_quantity"`
	Outstanding      int             `json:"outstanding"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paid_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// TotalsResponse carries the figures derived from items, payments and shipping
type TotalsResponse struct {
	TotalQuantity    int             `json:"total_quantity"`
	ReceivedQuantity int             `json:"received_quantity"`
	OnOrder          int             `json:"on_order"`
	ItemsTotal       decimal.Decimal `json:"items_total"`
	ShippingCost     decimal.Decimal `json:"shipping_cost"`
	GrandTotal       decimal.Decimal `json:"grand_total"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	Balance          decimal.Decimal `json:"balance"`
}

// PurchaseOrderResponse represents a purchase order in API responses.
// DerivedStatus is computed from totals and payments; it differs from
// Status while a manual override stands.
type PurchaseOrderResponse struct {
	ID            uuid.UUID          `json:"id"`
	TenantID      uuid.UUID          `json:"tenant_id"`
	OrderNumber   string             `json:"order_number"`
	VendorName    string             `json:"vendor_name"`
	OrderDate     time.Time          `json:"order_date"`
	ReadyDate     time.Time          `json:"ready_date"`
	DueDate       *time.Time         `json:"due_date,omitempty"`
	Note          string             `json:"note,omitempty"`
	Attachment    string             `json:"attachment,omitempty"`
	Status        string             `json:"status"`
	DerivedStatus string             `json:"derived_status"`
	Totals        TotalsResponse     `json:"totals"`
	Items         []LineItemResponse `json:"items"`
	Payments      []PaymentResponse  `json:"payments"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Version       int                `json:"version"`
}

// PurchaseOrderListItemResponse represents a purchase order in list responses (less detail)
type PurchaseOrderListItemResponse struct {
	ID            uuid.UUID      `json:"id"`
	OrderNumber   string         `json:"order_number"`
	VendorName    string         `json:"vendor_name"`
	OrderDate     time.Time      `json:"order_date"`
	ReadyDate     time.Time      `json:"ready_date"`
	DueDate       *time.Time     `json:"due_date,omitempty"`
	Status        string         `json:"status"`
	DerivedStatus string         `json:"derived_status"`
	ItemCount     int            `json:"item_count"`
	Totals        TotalsResponse `json:"totals"`
	CreatedAt     time.Time      `json:"created_at"`
}

// PurchaseOrderPage is one page of the purchase order list
type PurchaseOrderPage struct {
	Orders      []PurchaseOrderListItemResponse
	CurrentPage int
	PageSize    int
	TotalCount  int64
	TotalPages  int
}

// AttachmentURLResponse is a time-limited download link for an order attachment
type AttachmentURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ==================== Converters ====================

// ToTotalsResponse converts a derived summary to its response DTO
func ToTotalsResponse(s purchasing.Summary) TotalsResponse {
	return TotalsResponse{
		TotalQuantity:    s.TotalQuantity,
		ReceivedQuantity: s.ReceivedQuantity,
		OnOrder:          s.OnOrder,
		ItemsTotal:       s.ItemsTotal,
		ShippingCost:     s.ShippingCost,
		GrandTotal:       s.GrandTotal,
		TotalPaid:        s.TotalPaid,
		Balance:          s.Balance,
	}
}

// ToLineItemResponse converts a domain LineItem to its response DTO
func ToLineItemResponse(item *purchasing.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:               item.ID,
		Source:           string(item.Source.Kind()),
		VariantID:        purchasing.VariantIDOf(item.Source),
		Title:            item.Title,
		SKU:              item.SKU,
		Quantity:         item.Quantity,
		UnitCost:         item.UnitCost,
		Subtotal:         item.Subtotal,
		ReceivedQuantity: item.ReceivedQuantity,
		Outstanding:      item.Outstanding(),
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

// ToPaymentResponse converts a domain Payment to its response DTO
func ToPaymentResponse(p *purchasing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		Amount:    p.Amount,
		PaidAt:    p.PaidAt,
		CreatedAt: p.CreatedAt,
	}
}

// ToPurchaseOrderResponse converts domain PurchaseOrder to response DTO.
// Totals are always recomputed from the aggregate's rows.
func ToPurchaseOrderResponse(order *purchasing.PurchaseOrder) PurchaseOrderResponse {
	items := make([]LineItemResponse, len(order.Items))
	for i := range order.Items {
		items[i] = ToLineItemResponse(&order.Items[i])
	}
	payments := make([]PaymentResponse, len(order.Payments))
	for i := range order.Payments {
		payments[i] = ToPaymentResponse(&order.Payments[i])
	}
	summary := order.Summarize()

	return PurchaseOrderResponse{
		ID:            order.ID,
		TenantID:      order.TenantID,
		OrderNumber:   order.OrderNumber,
		VendorName:    order.VendorName,
		OrderDate:     order.OrderDate,
		ReadyDate:     order.ReadyDate,
		DueDate:       order.DueDate,
		Note:          order.Note,
		Attachment:    order.Attachment,
		Status:        string(order.Status),
		DerivedStatus: string(purchasing.DeriveStatus(summary.GrandTotal, summary.TotalPaid)),
		Totals:        ToTotalsResponse(summary),
		Items:         items,
		Payments:      payments,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		Version:       order.Version,
	}
}

// ToPurchaseOrderListItemResponse converts domain PurchaseOrder to list response DTO
func ToPurchaseOrderListItemResponse(order *purchasing.PurchaseOrder) PurchaseOrderListItemResponse {
	summary := order.Summarize()
	return PurchaseOrderListItemResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		VendorName:    order.VendorName,
		OrderDate:     order.OrderDate,
		ReadyDate:     order.ReadyDate,
		DueDate:       order.DueDate,
		Status:        string(order.Status),
		DerivedStatus: string(purchasing.DeriveStatus(summary.GrandTotal, summary.TotalPaid)),
		ItemCount:     len(order.Items),
		Totals:        ToTotalsResponse(summary),
		CreatedAt:     order.CreatedAt,
	}
}

// ToPurchaseOrderListItemResponses converts a slice of orders to list DTOs
func ToPurchaseOrderListItemResponses(orders []purchasing.PurchaseOrder) []PurchaseOrderListItemResponse {
	responses := make([]PurchaseOrderListItemResponse, len(orders))
	for i := range orders {
		responses[i] = ToPurchaseOrderListItemResponse(&orders[i])
	}
	return responses
}

func toDomainItemInput(in LineItemInput) (purchasing.LineItemInput, error) {
	var source purchasing.ItemSource = purchasing.ManualSource{}
	if in.VariantID != "" {
		catalogSource, err := purchasing.NewCatalogSource(in.VariantID)
		if err != nil {
			return purchasing.LineItemInput{}, err
		}
		source = catalogSource
	}
	return purchasing.LineItemInput{
		Source:   source,
		Title:    in.Title,
		SKU:      in.SKU,
		Quantity: in.Quantity,
		UnitCost: in.UnitCost,
	}, nil
}
