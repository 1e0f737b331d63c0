package models

import (
	"time"

	"github.com/erp/procurement/internal/domain/purchasing"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	BaseModel
	TenantID      uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_order_tenant_number,priority:1"`
	Version       int                    `gorm:"not null;default:1"`
	OrderNumber   string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_purchase_order_tenant_number,priority:2"`
	VendorName    string                 `gorm:"type:varchar(200);not null;index"`
	OrderDate     time.Time              `gorm:"not null"`
	ReadyDate     time.Time              `gorm:"not null"`
	DueDate       *time.Time             `gorm:"index"`
	ShippingCost  decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Note          string                 `gorm:"type:text"`
	Attachment    string                 `gorm:"type:varchar(500)"`
	Status        purchasing.OrderStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	TotalQuantity int                    `gorm:"not null;default:0"`
	TotalAmount   decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Items         []LineItemModel        `gorm:"foreignKey:OrderID;references:ID"`
	Payments      []PaymentModel         `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain() (*purchasing.PurchaseOrder, error) {
	order := &purchasing.PurchaseOrder{
		TenantAggregateRoot: toTenantAggregateRoot(m.BaseModel, m.TenantID, m.Version),
		OrderNumber:         m.OrderNumber,
		VendorName:          m.VendorName,
		OrderDate:           m.OrderDate,
		ReadyDate:           m.ReadyDate,
		DueDate:             m.DueDate,
		ShippingCost:        m.ShippingCost,
		Note:                m.Note,
		Attachment:          m.Attachment,
		Status:              m.Status,
		TotalQuantity:       m.TotalQuantity,
		TotalAmount:         m.TotalAmount,
		Items:               make([]purchasing.LineItem, len(m.Items)),
		Payments:            make([]purchasing.Payment, len(m.Payments)),
	}
	for i := range m.Items {
		item, err := m.Items[i].ToDomain()
		if err != nil {
			return nil, err
		}
		order.Items[i] = *item
	}
	for i := range m.Payments {
		order.Payments[i] = *m.Payments[i].ToDomain()
	}
	return order, nil
}

// FromDomain populates the persistence model from a domain PurchaseOrder
func (m *PurchaseOrderModel) FromDomain(o *purchasing.PurchaseOrder) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.TenantID = o.TenantID
	m.Version = o.Version
	m.OrderNumber = o.OrderNumber
	m.VendorName = o.VendorName
	m.OrderDate = o.OrderDate
	m.ReadyDate = o.ReadyDate
	m.DueDate = o.DueDate
	m.ShippingCost = o.ShippingCost
	m.Note = o.Note
	m.Attachment = o.Attachment
	m.Status = o.Status
	m.TotalQuantity = o.TotalQuantity
	m.TotalAmount = o.TotalAmount

	m.Items = make([]LineItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i].FromDomain(&o.Items[i])
	}
	m.Payments = make([]PaymentModel, len(o.Payments))
	for i := range o.Payments {
		m.Payments[i].FromDomain(&o.Payments[i])
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from domain entity
func PurchaseOrderModelFromDomain(o *purchasing.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// LineItemModel is the persistence model for a purchase order line item
type LineItemModel struct {
	ID               uuid.UUID             `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	SourceKind       purchasing.SourceKind `gorm:"type:varchar(20);not null;default:'MANUAL'"`
	VariantID        *string               `gorm:"type:varchar(100);index"`
	Title            string                `gorm:"type:varchar(255);not null"`
	SKU              string                `gorm:"type:varchar(100)"`
	Quantity         int                   `gorm:"not null;default:0"`
	UnitCost         decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Subtotal         decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	ReceivedQuantity int                   `gorm:"not null;default:0"`
	CreatedAt        time.Time             `gorm:"not null"`
	UpdatedAt        time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *LineItemModel) ToDomain() (*purchasing.LineItem, error) {
	source, err := purchasing.SourceFromParts(m.SourceKind, m.VariantID)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "corrupt line item "+m.ID.String()).WithErr(err)
	}
	return &purchasing.LineItem{
		ID:               m.ID,
		OrderID:          m.OrderID,
		Source:           source,
		Title:            m.Title,
		SKU:              m.SKU,
		Quantity:         m.Quantity,
		UnitCost:         m.UnitCost,
		Subtotal:         m.Subtotal,
		ReceivedQuantity: m.ReceivedQuantity,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain LineItem
func (m *LineItemModel) FromDomain(item *purchasing.LineItem) {
	m.ID = item.ID
	m.OrderID = item.OrderID
	m.SourceKind = purchasing.SourceKindManual
	if item.Source != nil {
		m.SourceKind = item.Source.Kind()
	}
	m.VariantID = purchasing.VariantIDOf(item.Source)
	m.Title = item.Title
	m.SKU = item.SKU
	m.Quantity = item.Quantity
	m.UnitCost = item.UnitCost
	m.Subtotal = item.Subtotal
	m.ReceivedQuantity = item.ReceivedQuantity
	m.CreatedAt = item.CreatedAt
	m.UpdatedAt = item.UpdatedAt
}

// PaymentModel is the persistence model for a payment against a purchase order
type PaymentModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaidAt    time.Time       `gorm:"not null;index"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "purchase_order_payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *purchasing.Payment {
	return &purchasing.Payment{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Amount:    m.Amount,
		PaidAt:    m.PaidAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *purchasing.Payment) {
	m.ID = p.ID
	m.OrderID = p.OrderID
	m.Amount = p.Amount
	m.PaidAt = p.PaidAt
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}
