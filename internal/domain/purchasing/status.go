package purchasing

import "github.com/shopspring/decimal"

// OrderStatus represents the payment progress of a purchase order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
)

// IsValid checks if the status is a known OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// DeriveStatus computes the order status from its grand total and the sum
// of its payments. Nothing paid is always PENDING, even for a zero total.
func DeriveStatus(grandTotal, totalPaid decimal.Decimal) OrderStatus {
	switch {
	case !totalPaid.IsPositive():
		return OrderStatusPending
	case totalPaid.GreaterThanOrEqual(grandTotal):
		return OrderStatusCompleted
	default:
		return OrderStatusInProgress
	}
}
