package purchasing

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemInput carries the caller-supplied fields of a line item.
// Subtotal is never accepted from callers.
type LineItemInput struct {
	Source   ItemSource
	Title    string
	SKU      string
	Quantity int
	UnitCost decimal.Decimal
}

// LineItem is one variant line within a purchase order
type LineItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	Source           ItemSource
	Title            string
	SKU              string
	Quantity         int
	UnitCost         decimal.Decimal
	Subtotal         decimal.Decimal // Quantity * UnitCost
	ReceivedQuantity int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewLineItem validates the input and creates a line item owned by orderID
func NewLineItem(orderID uuid.UUID, in LineItemInput) (*LineItem, error) {
	if in.Source == nil {
		in.Source = ManualSource{}
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, shared.NewValidationError("Item title is required")
	}
	if len(title) > 255 {
		return nil, shared.NewValidationError("Item title cannot exceed 255 characters")
	}
	if err := validateQuantityAndCost(in.Quantity, in.UnitCost); err != nil {
		return nil, err
	}

	now := time.Now()
	return &LineItem{
		ID:               uuid.New(),
		OrderID:          orderID,
		Source:           in.Source,
		Title:            title,
		SKU:              strings.TrimSpace(in.SKU),
		Quantity:         in.Quantity,
		UnitCost:         in.UnitCost,
		Subtotal:         subtotal(in.Quantity, in.UnitCost),
		ReceivedQuantity: 0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func validateQuantityAndCost(quantity int, cost decimal.Decimal) error {
	if quantity < 0 {
		return shared.NewValidationError("Quantity cannot be negative")
	}
	if cost.IsNegative() {
		return shared.NewValidationError("Unit cost cannot be negative")
	}
	return nil
}

func subtotal(quantity int, cost decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).Mul(cost)
}

// Update sets quantity and unit cost and recomputes the subtotal.
// The ordered quantity may not drop below what has already been received.
func (i *LineItem) Update(quantity int, cost decimal.Decimal) error {
	if err := validateQuantityAndCost(quantity, cost); err != nil {
		return err
	}
	if quantity < i.ReceivedQuantity {
		return shared.NewValidationError("Quantity cannot be less than the %d already received", i.ReceivedQuantity)
	}

	i.Quantity = quantity
	i.UnitCost = cost
	i.Subtotal = subtotal(quantity, cost)
	i.UpdatedAt = time.Now()
	return nil
}

// Outstanding returns the quantity still to be received
func (i *LineItem) Outstanding() int {
	if remaining := i.Quantity - i.ReceivedQuantity; remaining > 0 {
		return remaining
	}
	return 0
}

// IsFullyReceived returns true if all ordered quantity has been received
func (i *LineItem) IsFullyReceived() bool {
	return i.ReceivedQuantity >= i.Quantity
}

// Receive adds qty to the received quantity
func (i *LineItem) Receive(qty int) error {
	if qty <= 0 {
		return shared.NewValidationError("Invalid receive quantity")
	}
	if qty > i.Outstanding() {
		return shared.NewDomainError(shared.CodeOverReceipt, fmt.Sprintf("You can receive only %d", i.Outstanding()))
	}

	i.ReceivedQuantity += qty
	i.UpdatedAt = time.Now()
	return nil
}

// IsManual reports whether the item has no catalog reference
func (i *LineItem) IsManual() bool {
	_, ok := i.Source.(ManualSource)
	return ok
}
