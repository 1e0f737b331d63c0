package purchasing

import (
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is one amount paid against a purchase order.
// The amount is fixed at creation; only PaidAt may change afterwards.
type Payment struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Amount    decimal.Decimal
	PaidAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPayment creates a payment, rejecting zero and negative amounts
func NewPayment(orderID uuid.UUID, amount decimal.Decimal, paidAt time.Time) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Enter valid amount")
	}
	now := time.Now()
	if paidAt.IsZero() {
		paidAt = now
	}
	return &Payment{
		ID:        uuid.New(),
		OrderID:   orderID,
		Amount:    amount,
		PaidAt:    paidAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Reschedule changes the paid-at date
func (p *Payment) Reschedule(paidAt time.Time) error {
	if paidAt.IsZero() {
		return shared.NewValidationError("Payment date is required")
	}
	p.PaidAt = paidAt
	p.UpdatedAt = time.Now()
	return nil
}
