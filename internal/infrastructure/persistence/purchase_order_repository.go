package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/purchasing"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository implements purchasing.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

var _ purchasing.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// withChildren preloads items and payments in creation order
func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC, created_at ASC") })
}

// FindByIDForTenant finds a purchase order by ID within a tenant
func (r *GormPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := withChildren(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Purchase order")
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByOrderNumber finds a purchase order by PO number for a tenant
func (r *GormPurchaseOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*purchasing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := withChildren(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Purchase order")
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAllForTenant lists purchase orders for a tenant, newest first unless the filter says otherwise
func (r *GormPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]purchasing.PurchaseOrder, error) {
	var orderModels []models.PurchaseOrderModel

	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	// Items and payments are needed for the derived totals on every row
	if err := withChildren(query).Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]purchasing.PurchaseOrder, len(orderModels))
	for i := range orderModels {
		order, err := orderModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		orders[i] = *order
	}
	return orders, nil
}

// CountForTenant counts purchase orders matching the filter
func (r *GormPurchaseOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByOrderNumber checks if a PO number is taken within the tenant
func (r *GormPurchaseOrderRepository) ExistsByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the order, its items and its payments in one transaction
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *purchasing.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(order)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "Payments").Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		if len(model.Payments) > 0 {
			if err := tx.Create(&model.Payments).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translateWriteError(err)
}

// SaveWithLock writes the header, items and payments in one transaction.
// The header update is conditional on the stored version; a mismatch
// means another writer got there first and nothing is written.
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *purchasing.PurchaseOrder) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.PurchaseOrderModel
		if err := tx.Select("id", "version").
			Where("tenant_id = ? AND id = ?", order.TenantID, order.ID).
			Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError("Purchase order")
			}
			return err
		}
		if current.Version != order.Version {
			return shared.ErrConcurrencyConflict
		}

		newVersion := current.Version + 1
		updatedAt := time.Now()

		result := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ? AND version = ?", order.ID, current.Version).
			Updates(map[string]any{
				"order_number":   order.OrderNumber,
				"vendor_name":    order.VendorName,
				"order_date":     order.OrderDate,
				"ready_date":     order.ReadyDate,
				"due_date":       order.DueDate,
				"shipping_cost":  order.ShippingCost,
				"note":           order.Note,
				"attachment":     order.Attachment,
				"status":         order.Status,
				"total_quantity": order.TotalQuantity,
				"total_amount":   order.TotalAmount,
				"version":        newVersion,
				"updated_at":     updatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := r.syncItems(tx, order); err != nil {
			return err
		}
		for i := range order.Payments {
			order.Payments[i].OrderID = order.ID
			paymentModel := &models.PaymentModel{}
			paymentModel.FromDomain(&order.Payments[i])
			if err := tx.Save(paymentModel).Error; err != nil {
				return err
			}
		}

		order.Version = newVersion
		order.UpdatedAt = updatedAt
		return nil
	})
	return translateWriteError(err)
}

// syncItems deletes rows for removed items and upserts the rest
func (r *GormPurchaseOrderRepository) syncItems(tx *gorm.DB, order *purchasing.PurchaseOrder) error {
	currentItemIDs := make([]uuid.UUID, len(order.Items))
	for i, item := range order.Items {
		currentItemIDs[i] = item.ID
	}

	stale := tx.Where("order_id = ?", order.ID)
	if len(currentItemIDs) > 0 {
		stale = stale.Where("id NOT IN ?", currentItemIDs)
	}
	if err := stale.Delete(&models.LineItemModel{}).Error; err != nil {
		return err
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		itemModel := &models.LineItemModel{}
		itemModel.FromDomain(&order.Items[i])
		if err := tx.Save(itemModel).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteForTenant removes payments, items and then the order in one transaction
func (r *GormPurchaseOrderRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PurchaseOrderModel{}).
			Where("tenant_id = ? AND id = ?", tenantID, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.NewNotFoundError("Purchase order")
		}

		if err := tx.Where("order_id = ?", id).Delete(&models.PaymentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.LineItemModel{}).Error; err != nil {
			return err
		}
		return tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.PurchaseOrderModel{}).Error
	})
}

// applyFilter applies filter options, ordering and pagination to the query
func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder).Order("id " + sortOrder)
}

// applyFilterWithoutPagination applies search and status filters
func (r *GormPurchaseOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(order_number) LIKE ? OR LOWER(vendor_name) LIKE ?)", pattern, pattern)
	}
	if status, ok := filter.Filters[purchasing.FilterKeyStatus]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	return query
}

// translateWriteError maps driver constraint errors to domain errors
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError(shared.CodeAlreadyExists, "PO Number already exists!").WithErr(err)
	}
	return err
}
