package purchasing

import (
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxOrderNumberLength bounds the human-assigned PO number
const MaxOrderNumberLength = 50

// OrderHeader holds the header fields supplied when an order is created
type OrderHeader struct {
	OrderNumber  string
	VendorName   string
	OrderDate    time.Time // zero means now
	ReadyDate    time.Time
	DueDate      *time.Time
	ShippingCost decimal.Decimal
	Note         string
}

// OrderDetails is a partial header update. Nil fields are left unchanged.
type OrderDetails struct {
	OrderNumber *string
	VendorName  *string
	Status      *OrderStatus
	OrderDate   *time.Time
	ReadyDate   *time.Time
}

// PurchaseOrder is the aggregate root owning line items and payments.
// TotalQuantity and TotalAmount are a display copy of the item sums and
// are rewritten by a full re-sum whenever items change.
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	OrderNumber   string
	VendorName    string
	OrderDate     time.Time
	ReadyDate     time.Time
	DueDate       *time.Time
	ShippingCost  decimal.Decimal
	Note          string
	Attachment    string
	Status        OrderStatus
	TotalQuantity int
	TotalAmount   decimal.Decimal
	Items         []LineItem
	Payments      []Payment
}

// NewPurchaseOrder creates an order with its initial items
func NewPurchaseOrder(tenantID uuid.UUID, header OrderHeader, items []LineItemInput) (*PurchaseOrder, error) {
	orderNumber, err := normalizeOrderNumber(header.OrderNumber)
	if err != nil {
		return nil, err
	}
	vendor := strings.TrimSpace(header.VendorName)
	if vendor == "" {
		return nil, shared.NewValidationError("Vendor is required")
	}
	if header.ReadyDate.IsZero() {
		return nil, shared.NewValidationError("Ready date is required")
	}
	if header.ShippingCost.IsNegative() {
		return nil, shared.NewValidationError("Shipping cost cannot be negative")
	}
	if len(items) == 0 {
		return nil, shared.NewValidationError("Add at least one item")
	}

	orderDate := header.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	order := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		VendorName:          vendor,
		OrderDate:           orderDate,
		ReadyDate:           header.ReadyDate,
		DueDate:             header.DueDate,
		ShippingCost:        header.ShippingCost,
		Note:                header.Note,
		Status:              OrderStatusPending,
		TotalAmount:         decimal.Zero,
		Items:               make([]LineItem, 0, len(items)),
		Payments:            make([]Payment, 0),
	}

	for _, in := range items {
		item, err := NewLineItem(order.ID, in)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, *item)
	}
	order.recalculateTotals()
	order.refreshStatus()

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))

	return order, nil
}

func normalizeOrderNumber(orderNumber string) (string, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return "", shared.NewValidationError("PO number is required")
	}
	if len(orderNumber) > MaxOrderNumberLength {
		return "", shared.NewValidationError("PO number cannot exceed %d characters", MaxOrderNumberLength)
	}
	return orderNumber, nil
}

// AddItem appends a line item and re-derives totals and status
func (o *PurchaseOrder) AddItem(in LineItemInput) (*LineItem, error) {
	item, err := NewLineItem(o.ID, in)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.afterItemsChanged()

	return o.GetItem(item.ID), nil
}

// UpdateItem sets an item's quantity and cost and re-derives totals and status
func (o *PurchaseOrder) UpdateItem(itemID uuid.UUID, quantity int, cost decimal.Decimal) (*LineItem, error) {
	item := o.GetItem(itemID)
	if item == nil {
		return nil, shared.NewNotFoundError("Item")
	}
	if err := item.Update(quantity, cost); err != nil {
		return nil, err
	}

	o.afterItemsChanged()
	return item, nil
}

// RemoveItem deletes an item and re-derives totals and status
func (o *PurchaseOrder) RemoveItem(itemID uuid.UUID) error {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.afterItemsChanged()
			return nil
		}
	}
	return shared.NewNotFoundError("Item")
}

// ReceiveItem records qty units of an item as received.
// Totals and status are unaffected.
func (o *PurchaseOrder) ReceiveItem(itemID uuid.UUID, qty int) (*LineItem, error) {
	item := o.GetItem(itemID)
	if item == nil {
		return nil, shared.NewNotFoundError("Item")
	}
	if err := item.Receive(qty); err != nil {
		return nil, err
	}

	o.touch()
	o.AddDomainEvent(NewPurchaseOrderItemReceivedEvent(o, item, qty))
	return item, nil
}

// RecordPayment appends a payment and re-derives the status
func (o *PurchaseOrder) RecordPayment(amount decimal.Decimal, paidAt time.Time) (*Payment, error) {
	payment, err := NewPayment(o.ID, amount, paidAt)
	if err != nil {
		return nil, err
	}

	o.Payments = append(o.Payments, *payment)
	o.refreshStatus()
	o.touch()

	o.AddDomainEvent(NewPurchaseOrderPaymentRecordedEvent(o, payment))
	return o.GetPayment(payment.ID), nil
}

// UpdatePaymentDate changes when a payment was made
func (o *PurchaseOrder) UpdatePaymentDate(paymentID uuid.UUID, paidAt time.Time) (*Payment, error) {
	payment := o.GetPayment(paymentID)
	if payment == nil {
		return nil, shared.NewNotFoundError("Payment")
	}
	if err := payment.Reschedule(paidAt); err != nil {
		return nil, err
	}
	o.touch()
	return payment, nil
}

// UpdateDetails applies a partial header update. A supplied status is an
// operator override that stands until totals or payments change again.
func (o *PurchaseOrder) UpdateDetails(details OrderDetails) error {
	if details.OrderNumber != nil {
		orderNumber, err := normalizeOrderNumber(*details.OrderNumber)
		if err != nil {
			return err
		}
		o.OrderNumber = orderNumber
	}
	if details.VendorName != nil {
		vendor := strings.TrimSpace(*details.VendorName)
		if vendor == "" {
			return shared.NewValidationError("Vendor is required")
		}
		o.VendorName = vendor
	}
	if details.Status != nil {
		if err := o.OverrideStatus(*details.Status); err != nil {
			return err
		}
	}
	if details.OrderDate != nil && !details.OrderDate.IsZero() {
		o.OrderDate = *details.OrderDate
	}
	if details.ReadyDate != nil && !details.ReadyDate.IsZero() {
		o.ReadyDate = *details.ReadyDate
	}

	o.touch()
	return nil
}

// OverrideStatus sets the status directly
func (o *PurchaseOrder) OverrideStatus(status OrderStatus) error {
	if !status.IsValid() {
		return shared.NewValidationError("Invalid status %q", status)
	}
	o.setStatus(status)
	o.touch()
	return nil
}

// UpdateShipping sets the shipping cost and re-derives the status
func (o *PurchaseOrder) UpdateShipping(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewValidationError("Shipping cost cannot be negative")
	}
	o.ShippingCost = amount
	o.refreshStatus()
	o.touch()
	return nil
}

// SetDueDate sets or clears the due date
func (o *PurchaseOrder) SetDueDate(due *time.Time) {
	o.DueDate = due
	o.touch()
}

// UpdateNote replaces the note and, when attachment is non-nil, the attachment reference
func (o *PurchaseOrder) UpdateNote(note string, attachment *string) {
	o.Note = note
	if attachment != nil {
		o.Attachment = *attachment
	}
	o.touch()
}

// GetItem returns an item by its ID
func (o *PurchaseOrder) GetItem(itemID uuid.UUID) *LineItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// GetPayment returns a payment by its ID
func (o *PurchaseOrder) GetPayment(paymentID uuid.UUID) *Payment {
	for idx := range o.Payments {
		if o.Payments[idx].ID == paymentID {
			return &o.Payments[idx]
		}
	}
	return nil
}

// ItemsTotal returns the sum of item subtotals, recomputed from the items
func (o *PurchaseOrder) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(subtotal(item.Quantity, item.UnitCost))
	}
	return total
}

// GrandTotal returns items total plus shipping
func (o *PurchaseOrder) GrandTotal() decimal.Decimal {
	return o.ItemsTotal().Add(o.ShippingCost)
}

// TotalPaid returns the sum of all payments
func (o *PurchaseOrder) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Balance returns grand total minus total paid; negative means overpaid
func (o *PurchaseOrder) Balance() decimal.Decimal {
	return o.GrandTotal().Sub(o.TotalPaid())
}

// OrderedQuantity returns the sum of ordered quantities
func (o *PurchaseOrder) OrderedQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// ReceivedQuantity returns the sum of received quantities
func (o *PurchaseOrder) ReceivedQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.ReceivedQuantity
	}
	return total
}

// OnOrder returns the quantity ordered but not yet received
func (o *PurchaseOrder) OnOrder() int {
	return o.OrderedQuantity() - o.ReceivedQuantity()
}

// Summary holds every derived figure of an order
type Summary struct {
	TotalQuantity    int
	ReceivedQuantity int
	OnOrder          int
	ItemsTotal       decimal.Decimal
	ShippingCost     decimal.Decimal
	GrandTotal       decimal.Decimal
	TotalPaid        decimal.Decimal
	Balance          decimal.Decimal
}

// Summarize computes the derived figures from items, payments and shipping.
// Stored TotalQuantity and TotalAmount are not consulted.
func (o *PurchaseOrder) Summarize() Summary {
	itemsTotal := o.ItemsTotal()
	grandTotal := itemsTotal.Add(o.ShippingCost)
	paid := o.TotalPaid()
	ordered := o.OrderedQuantity()
	received := o.ReceivedQuantity()
	return Summary{
		TotalQuantity:    ordered,
		ReceivedQuantity: received,
		OnOrder:          ordered - received,
		ItemsTotal:       itemsTotal,
		ShippingCost:     o.ShippingCost,
		GrandTotal:       grandTotal,
		TotalPaid:        paid,
		Balance:          grandTotal.Sub(paid),
	}
}

// MarkDeleted queues the deletion event; persistence removes the rows
func (o *PurchaseOrder) MarkDeleted() {
	o.AddDomainEvent(NewPurchaseOrderDeletedEvent(o))
}

func (o *PurchaseOrder) afterItemsChanged() {
	o.recalculateTotals()
	o.refreshStatus()
	o.touch()
}

// recalculateTotals re-sums the stored totals over all current items
func (o *PurchaseOrder) recalculateTotals() {
	o.TotalQuantity = o.OrderedQuantity()
	o.TotalAmount = o.ItemsTotal()
}

func (o *PurchaseOrder) refreshStatus() {
	o.setStatus(DeriveStatus(o.GrandTotal(), o.TotalPaid()))
}

func (o *PurchaseOrder) setStatus(status OrderStatus) {
	previous := o.Status
	o.Status = status
	if status == OrderStatusCompleted && previous != OrderStatusCompleted && previous != "" {
		o.AddDomainEvent(NewPurchaseOrderCompletedEvent(o))
	}
}

func (o *PurchaseOrder) touch() {
	o.UpdatedAt = time.Now()
}
