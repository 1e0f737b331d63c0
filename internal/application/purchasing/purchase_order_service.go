package purchasing

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/purchasing"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const spanService = "purchase_order"

// DefaultAttachmentURLExpiry is how long attachment download links stay valid
const DefaultAttachmentURLExpiry = 15 * time.Minute

// AttachmentStorage stores order attachments and hands back references
type AttachmentStorage interface {
	// Upload stores data under storageKey and returns the reference to keep on the order
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) (string, error)

	// GenerateDownloadURL returns a time-limited URL for a stored reference
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// Delete removes a stored object
	Delete(ctx context.Context, storageKey string) error
}

// PurchaseOrderService handles purchase order business operations.
// Every mutation loads the aggregate, applies the change in memory and
// writes header, items and payments back in a single transaction.
type PurchaseOrderService struct {
	orderRepo       purchasing.PurchaseOrderRepository
	eventPublisher  shared.EventPublisher
	storage         AttachmentStorage
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(orderRepo purchasing.PurchaseOrderRepository) *PurchaseOrderService {
	return &PurchaseOrderService{
		orderRepo: orderRepo,
		logger:    zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetAttachmentStorage sets the storage used for order attachments
func (s *PurchaseOrderService) SetAttachmentStorage(storage AttachmentStorage) {
	s.storage = storage
}

// SetBusinessMetrics sets the business metrics collector
func (s *PurchaseOrderService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetLogger sets the service logger
func (s *PurchaseOrderService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create creates a purchase order with its items and an optional initial payment
func (s *PurchaseOrderService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePurchaseOrderRequest) (resp *PurchaseOrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "create")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	header := purchasing.OrderHeader{
		OrderNumber:  req.OrderNumber,
		VendorName:   req.VendorName,
		DueDate:      req.DueDate,
		ShippingCost: req.ShippingCost,
		Note:         req.Note,
	}
	if req.OrderDate != nil {
		header.OrderDate = *req.OrderDate
	}
	if req.ReadyDate != nil {
		header.ReadyDate = *req.ReadyDate
	}

	items := make([]purchasing.LineItemInput, 0, len(req.Items))
	for _, in := range req.Items {
		item, err := toDomainItemInput(in)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	order, err := purchasing.NewPurchaseOrder(tenantID, header, items)
	if err != nil {
		return nil, err
	}

	if req.InitialPayment.IsNegative() {
		return nil, shared.NewValidationError("Enter valid amount")
	}
	if req.InitialPayment.IsPositive() {
		if _, err := order.RecordPayment(req.InitialPayment, order.OrderDate); err != nil {
			return nil, err
		}
	}

	exists, err := s.orderRepo.ExistsByOrderNumber(ctx, tenantID, order.OrderNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateOrderNumber()
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span, "order_id", order.ID.String(), "items_count", len(order.Items))
	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderCreated(order.GrandTotal())
		if req.InitialPayment.IsPositive() {
			s.businessMetrics.RecordPayment(req.InitialPayment)
		}
	}
	s.publishEvents(ctx, order)

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a purchase order with freshly derived totals
func (s *PurchaseOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// List retrieves a page of purchase orders, newest first
func (s *PurchaseOrderService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) (*PurchaseOrderPage, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Search:   strings.TrimSpace(filter.Search),
	}.Normalize()

	if filter.Status != "" {
		status := purchasing.OrderStatus(strings.ToUpper(filter.Status))
		if !status.IsValid() {
			return nil, shared.NewValidationError("Invalid status %q", filter.Status)
		}
		domainFilter.Filters[purchasing.FilterKeyStatus] = string(status)
	}

	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToPurchaseOrderListItemResponses(orders), total, domainFilter.Page, domainFilter.PageSize)
	return &PurchaseOrderPage{
		Orders:      page.Items,
		CurrentPage: page.Page,
		PageSize:    page.PageSize,
		TotalCount:  page.Total,
		TotalPages:  page.TotalPages,
	}, nil
}

// UpdateDetails updates PO number, vendor, status and dates. Items,
// payments and totals are untouched.
func (s *PurchaseOrderService) UpdateDetails(ctx context.Context, tenantID, orderID uuid.UUID, req UpdateDetailsRequest) (*PurchaseOrderResponse, error) {
	details := purchasing.OrderDetails{
		OrderNumber: req.OrderNumber,
		VendorName:  req.VendorName,
		OrderDate:   req.OrderDate,
		ReadyDate:   req.ReadyDate,
	}
	if req.Status != nil {
		status := purchasing.OrderStatus(strings.ToUpper(*req.Status))
		details.Status = &status
	}

	order, err := s.mutate(ctx, tenantID, orderID, "update_details", func(order *purchasing.PurchaseOrder) error {
		if req.OrderNumber != nil && strings.TrimSpace(*req.OrderNumber) != order.OrderNumber {
			if err := s.ensureOrderNumberFree(ctx, tenantID, order.ID, strings.TrimSpace(*req.OrderNumber)); err != nil {
				return err
			}
		}
		return order.UpdateDetails(details)
	})
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// UpdateStatus overrides the order status from the list view
func (s *PurchaseOrderService) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, status string) (*PurchaseOrderResponse, error) {
	order, err := s.mutate(ctx, tenantID, orderID, "update_status", func(order *purchasing.PurchaseOrder) error {
		return order.OverrideStatus(purchasing.OrderStatus(strings.ToUpper(status)))
	})
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// UpdateShipping sets the shipping cost; status follows the new grand total
func (s *PurchaseOrderService) UpdateShipping(ctx context.Context, tenantID, orderID uuid.UUID, amount decimal.Decimal) (*PurchaseOrderResponse, error) {
	order, err := s.mutate(ctx, tenantID, orderID, "update_shipping", func(order *purchasing.PurchaseOrder) error {
		return order.UpdateShipping(amount)
	})
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// UpdateDueDate sets or clears the due date
func (s *PurchaseOrderService) UpdateDueDate(ctx context.Context, tenantID, orderID uuid.UUID, due *time.Time) (*PurchaseOrderResponse, error) {
	order, err := s.mutate(ctx, tenantID, orderID, "update_due_date", func(order *purchasing.PurchaseOrder) error {
		order.SetDueDate(due)
		return nil
	})
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// UpdateNote replaces the note and, when a file is supplied, uploads it and
// stores the returned reference as the attachment
func (s *PurchaseOrderService) UpdateNote(ctx context.Context, tenantID, orderID uuid.UUID, note string, upload *AttachmentUpload) (*PurchaseOrderResponse, error) {
	var reference *string
	if upload != nil {
		// Confirm the order exists before pushing bytes to storage.
		if _, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID); err != nil {
			return nil, err
		}
		ref, err := s.uploadAttachment(ctx, orderID, upload)
		if err != nil {
			return nil, err
		}
		reference = &ref
	}

	order, err := s.mutate(ctx, tenantID, orderID, "update_note", func(order *purchasing.PurchaseOrder) error {
		order.UpdateNote(note, reference)
		return nil
	})
	if err != nil {
		if reference != nil {
			s.discardAttachment(ctx, *reference)
		}
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetAttachmentURL returns a download link for the order's attachment
func (s *PurchaseOrderService) GetAttachmentURL(ctx context.Context, tenantID, orderID uuid.UUID) (*AttachmentURLResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Attachment == "" {
		return nil, shared.NewNotFoundError("Attachment")
	}
	if s.storage == nil {
		return nil, shared.NewUpstreamError("attachment storage", fmt.Errorf("storage not configured"))
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, order.Attachment, DefaultAttachmentURLExpiry)
	if err != nil {
		return nil, shared.NewUpstreamError("attachment storage", err)
	}
	return &AttachmentURLResponse{URL: url, ExpiresAt: expiresAt}, nil
}

// Delete removes the order together with its payments and items
func (s *PurchaseOrderService) Delete(ctx context.Context, tenantID, orderID uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "delete")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	if err := s.orderRepo.DeleteForTenant(ctx, tenantID, orderID); err != nil {
		return err
	}

	order.MarkDeleted()
	s.publishEvents(ctx, order)
	return nil
}

// AddItem adds a catalog or manual line item
func (s *PurchaseOrderService) AddItem(ctx context.Context, tenantID, orderID uuid.UUID, req LineItemInput) (*LineItemResult, error) {
	input, err := toDomainItemInput(req)
	if err != nil {
		return nil, err
	}

	var itemID uuid.UUID
	order, err := s.mutate(ctx, tenantID, orderID, "add_item", func(order *purchasing.PurchaseOrder) error {
		item, err := order.AddItem(input)
		if err != nil {
			return err
		}
		itemID = item.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newLineItemResult(order, itemID), nil
}

// UpdateItem sets quantity and unit cost of an item
func (s *PurchaseOrderService) UpdateItem(ctx context.Context, tenantID, orderID, itemID uuid.UUID, req UpdateItemRequest) (*LineItemResult, error) {
	order, err := s.mutate(ctx, tenantID, orderID, "update_item", func(order *purchasing.PurchaseOrder) error {
		_, err := order.UpdateItem(itemID, req.Quantity, req.UnitCost)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newLineItemResult(order, itemID), nil
}

// RemoveItem deletes an item from the order
func (s *PurchaseOrderService) RemoveItem(ctx context.Context, tenantID, orderID, itemID uuid.UUID) (*LineItemResult, error) {
	order, err := s.mutate(ctx, tenantID, orderID, "remove_item", func(order *purchasing.PurchaseOrder) error {
		return order.RemoveItem(itemID)
	})
	if err != nil {
		return nil, err
	}
	return newLineItemResult(order, uuid.Nil), nil
}

// ReceiveItem records qty units of an item as received
func (s *PurchaseOrderService) ReceiveItem(ctx context.Context, tenantID, orderID, itemID uuid.UUID, qty int) (*LineItemResult, error) {
	order, err := s.mutate(ctx, tenantID, orderID, "receive_item", func(order *purchasing.PurchaseOrder) error {
		_, err := order.ReceiveItem(itemID, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.businessMetrics != nil {
		s.businessMetrics.RecordUnitsReceived(qty)
	}
	return newLineItemResult(order, itemID), nil
}

// RecordPayment appends a payment and re-derives the status
func (s *PurchaseOrderService) RecordPayment(ctx context.Context, tenantID, orderID uuid.UUID, req RecordPaymentRequest) (*PaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewValidationError("Enter valid amount")
	}

	var paymentID uuid.UUID
	order, err := s.mutate(ctx, tenantID, orderID, "record_payment", func(order *purchasing.PurchaseOrder) error {
		var paidAt time.Time
		if req.PaidAt != nil {
			paidAt = *req.PaidAt
		}
		payment, err := order.RecordPayment(req.Amount, paidAt)
		if err != nil {
			return err
		}
		paymentID = payment.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.businessMetrics != nil {
		s.businessMetrics.RecordPayment(req.Amount)
	}
	return newPaymentResult(order, paymentID), nil
}

// UpdatePaymentDate changes when a payment was made
func (s *PurchaseOrderService) UpdatePaymentDate(ctx context.Context, tenantID, orderID, paymentID uuid.UUID, paidAt time.Time) (*PaymentResult, error) {
	order, err := s.mutate(ctx, tenantID, orderID, "update_payment_date", func(order *purchasing.PurchaseOrder) error {
		_, err := order.UpdatePaymentDate(paymentID, paidAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newPaymentResult(order, paymentID), nil
}

// mutate loads the aggregate, applies fn and saves it with optimistic locking.
// Events are published only after the transaction commits.
func (s *PurchaseOrderService) mutate(ctx context.Context, tenantID, orderID uuid.UUID, method string, fn func(*purchasing.PurchaseOrder) error) (order *purchasing.PurchaseOrder, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, method)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()
	telemetry.SetAttributes(span, "order_id", orderID.String())

	order, err = s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := fn(order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)
	return order, nil
}

func (s *PurchaseOrderService) ensureOrderNumberFree(ctx context.Context, tenantID, orderID uuid.UUID, orderNumber string) error {
	existing, err := s.orderRepo.FindByOrderNumber(ctx, tenantID, orderNumber)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != orderID {
		return duplicateOrderNumber()
	}
	return nil
}

func (s *PurchaseOrderService) uploadAttachment(ctx context.Context, orderID uuid.UUID, upload *AttachmentUpload) (string, error) {
	if s.storage == nil {
		return "", shared.NewUpstreamError("attachment storage", fmt.Errorf("storage not configured"))
	}
	if len(upload.Data) == 0 {
		return "", shared.NewValidationError("Attachment is empty")
	}

	key := AttachmentKey(orderID, upload.FileName, time.Now())
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ref, err := s.storage.Upload(ctx, key, upload.Data, contentType)
	if err != nil {
		return "", shared.NewUpstreamError("attachment storage", err)
	}
	return ref, nil
}

// discardAttachment removes an upload whose order update did not commit
func (s *PurchaseOrderService) discardAttachment(ctx context.Context, reference string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), reference); err != nil {
		s.logger.Warn("Failed to remove orphaned attachment",
			zap.String("key", reference),
			zap.Error(err),
		)
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// AttachmentKey builds the storage key for an order attachment
func AttachmentKey(orderID uuid.UUID, fileName string, at time.Time) string {
	name := unsafeFileChars.ReplaceAllString(filepath.Base(fileName), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "attachment"
	}
	return fmt.Sprintf("purchase-orders/%s/%d-%s", orderID, at.UnixMilli(), name)
}

func (s *PurchaseOrderService) publishEvents(ctx context.Context, order *purchasing.PurchaseOrder) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish purchase order events",
			zap.String("order_id", order.ID.String()),
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
		for _, event := range events {
			s.businessMetrics.RecordPublishFailure(event.EventType())
		}
	}
}

func duplicateOrderNumber() error {
	return shared.NewDomainError(shared.CodeAlreadyExists, "PO Number already exists!")
}

// LineItemResult is returned by item mutations: the affected item plus the
// order figures recomputed after the change
type LineItemResult struct {
	Item   *LineItemResponse `json:"item,omitempty"`
	Status string            `json:"status"`
	Totals TotalsResponse    `json:"totals"`
}

// PaymentResult is returned by payment mutations
type PaymentResult struct {
	Payment *PaymentResponse `json:"payment,omitempty"`
	Status  string           `json:"status"`
	Totals  TotalsResponse   `json:"totals"`
}

func newLineItemResult(order *purchasing.PurchaseOrder, itemID uuid.UUID) *LineItemResult {
	result := &LineItemResult{
		Status: string(order.Status),
		Totals: ToTotalsResponse(order.Summarize()),
	}
	if item := order.GetItem(itemID); item != nil {
		resp := ToLineItemResponse(item)
		result.Item = &resp
	}
	return result
}

func newPaymentResult(order *purchasing.PurchaseOrder, paymentID uuid.UUID) *PaymentResult {
	result := &PaymentResult{
		Status: string(order.Status),
		Totals: ToTotalsResponse(order.Summarize()),
	}
	if payment := order.GetPayment(paymentID); payment != nil {
		resp := ToPaymentResponse(payment)
		result.Payment = &resp
	}
	return result
}
