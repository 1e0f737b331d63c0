package event

import (
	"context"

	"github.com/erp/procurement/internal/domain/purchasing"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per purchase order event
type AuditLogHandler struct {
	base *zap.Logger
}

// NewAuditLogHandler creates a handler logging through base
func NewAuditLogHandler(base *zap.Logger) *AuditLogHandler {
	if base == nil {
		base = zap.NewNop()
	}
	return &AuditLogHandler{base: base}
}

// Handle logs the event with its type-specific fields
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("order_id", event.AggregateID().String()),
	}

	switch e := event.(type) {
	case *purchasing.PurchaseOrderCreatedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("vendor", e.VendorName),
			zap.Int("item_count", e.ItemCount),
			zap.String("grand_total", e.GrandTotal.StringFixed(2)),
		)
	case *purchasing.PurchaseOrderItemReceivedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("sku", e.SKU),
			zap.Int("quantity", e.Quantity),
			zap.Int("outstanding", e.Outstanding),
		)
	case *purchasing.PurchaseOrderPaymentRecordedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("balance", e.Balance.StringFixed(2)),
		)
	case *purchasing.PurchaseOrderCompletedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("total_paid", e.TotalPaid.StringFixed(2)),
		)
	case *purchasing.PurchaseOrderDeletedEvent:
		fields = append(fields, zap.String("order_number", e.OrderNumber))
	}

	logger.For(ctx, h.base).Info("Purchase order event", fields...)
	return nil
}

// EventTypes returns the purchase order events this handler logs
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		purchasing.EventTypePurchaseOrderCreated,
		purchasing.EventTypePurchaseOrderItemReceived,
		purchasing.EventTypePurchaseOrderPaymentRecorded,
		purchasing.EventTypePurchaseOrderCompleted,
		purchasing.EventTypePurchaseOrderDeleted,
	}
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
