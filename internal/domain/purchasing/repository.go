package purchasing

import (
	"context"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by PurchaseOrderRepository list queries
const (
	FilterKeyStatus = "status"
)

// PurchaseOrderRepository defines the interface for purchase order persistence.
// Every load returns the full aggregate with items and payments.
type PurchaseOrderRepository interface {
	// FindByIDForTenant finds a purchase order by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)

	// FindByOrderNumber finds a purchase order by PO number for a tenant
	FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*PurchaseOrder, error)

	// FindAllForTenant lists purchase orders newest first with filtering and pagination
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)

	// CountForTenant counts purchase orders matching the filter, ignoring pagination
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsByOrderNumber checks if a PO number is taken within the tenant
	ExistsByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (bool, error)

	// Create inserts a new order with its items and payments in one transaction
	Create(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLock writes header, items and payments in one transaction,
	// failing with a concurrency conflict if the stored version moved on
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error

	// DeleteForTenant removes payments, items and the order in one transaction
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
