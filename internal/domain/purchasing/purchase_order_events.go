package purchasing

import (
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderCreated         = "PurchaseOrderCreated"
	EventTypePurchaseOrderItemReceived    = "PurchaseOrderItemReceived"
	EventTypePurchaseOrderPaymentRecorded = "PurchaseOrderPaymentRecorded"
	EventTypePurchaseOrderCompleted       = "PurchaseOrderCompleted"
	EventTypePurchaseOrderDeleted         = "PurchaseOrderDeleted"
)

// PurchaseOrderCreatedEvent is raised when a new purchase order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	VendorName  string          `json:"vendor_name"`
	ItemCount   int             `json:"item_count"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(order *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		VendorName:      order.VendorName,
		ItemCount:       len(order.Items),
		GrandTotal:      order.GrandTotal(),
	}
}

// PurchaseOrderItemReceivedEvent is raised when units of a line item arrive
type PurchaseOrderItemReceivedEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	ItemID           uuid.UUID `json:"item_id"`
	VariantID        *string   `json:"variant_id,omitempty"`
	SKU              string    `json:"sku"`
	Quantity         int       `json:"quantity"`
	ReceivedQuantity int       `json:"received_quantity"`
	Outstanding      int       `json:"outstanding"`
}

// NewPurchaseOrderItemReceivedEvent creates a new PurchaseOrderItemReceivedEvent
func NewPurchaseOrderItemReceivedEvent(order *PurchaseOrder, item *LineItem, qty int) *PurchaseOrderItemReceivedEvent {
	return &PurchaseOrderItemReceivedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePurchaseOrderItemReceived, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		ItemID:           item.ID,
		VariantID:        VariantIDOf(item.Source),
		SKU:              item.SKU,
		Quantity:         qty,
		ReceivedQuantity: item.ReceivedQuantity,
		Outstanding:      item.Outstanding(),
	}
}

// PurchaseOrderPaymentRecordedEvent is raised when a payment is appended
type PurchaseOrderPaymentRecordedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	PaymentID   uuid.UUID       `json:"payment_id"`
	Amount      decimal.Decimal `json:"amount"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Balance     decimal.Decimal `json:"balance"`
}

// NewPurchaseOrderPaymentRecordedEvent creates a new PurchaseOrderPaymentRecordedEvent
func NewPurchaseOrderPaymentRecordedEvent(order *PurchaseOrder, payment *Payment) *PurchaseOrderPaymentRecordedEvent {
	return &PurchaseOrderPaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderPaymentRecorded, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		PaymentID:       payment.ID,
		Amount:          payment.Amount,
		TotalPaid:       order.TotalPaid(),
		Balance:         order.Balance(),
	}
}

// PurchaseOrderCompletedEvent is raised when payments first cover the grand total
type PurchaseOrderCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
}

// NewPurchaseOrderCompletedEvent creates a new PurchaseOrderCompletedEvent
func NewPurchaseOrderCompletedEvent(order *PurchaseOrder) *PurchaseOrderCompletedEvent {
	return &PurchaseOrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCompleted, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		GrandTotal:      order.GrandTotal(),
		TotalPaid:       order.TotalPaid(),
	}
}

// PurchaseOrderDeletedEvent is raised after an order and its rows are removed
type PurchaseOrderDeletedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// NewPurchaseOrderDeletedEvent creates a new PurchaseOrderDeletedEvent
func NewPurchaseOrderDeletedEvent(order *PurchaseOrder) *PurchaseOrderDeletedEvent {
	return &PurchaseOrderDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderDeleted, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
	}
}
