package purchasing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/purchasing"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// MockPurchaseOrderRepository implements purchasing.PurchaseOrderRepository for testing
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchasing.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*purchasing.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchasing.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]purchasing.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]purchasing.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseOrderRepository) ExistsByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Create(ctx context.Context, order *purchasing.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *purchasing.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

// fakeStorage is an in-memory AttachmentStorage
type fakeStorage struct {
	objects   map[string][]byte
	uploadErr error
	deleted   []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.objects[key] = data
	return key, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://files.example.com/" + key, time.Now().Add(expiresIn), nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func readyDate() *time.Time {
	d := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	return &d
}

func createRequest() CreatePurchaseOrderRequest {
	orderDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return CreatePurchaseOrderRequest{
		OrderNumber: "PO-1001",
		VendorName:  "Northwind Traders",
		OrderDate:   &orderDate,
		ReadyDate:   readyDate(),
		Items: []LineItemInput{
			{VariantID: "gid://shopify/ProductVariant/1", Title: "Desk organizer", SKU: "ORG-1", Quantity: 2, UnitCost: dec("10")},
			{Title: "Lamp", Quantity: 3, UnitCost: dec("5")},
		},
	}
}

func newStoredOrder(t *testing.T, tenantID uuid.UUID) *purchasing.PurchaseOrder {
	t.Helper()
	order, err := purchasing.NewPurchaseOrder(tenantID, purchasing.OrderHeader{
		OrderNumber: "PO-1001",
		VendorName:  "Northwind Traders",
		ReadyDate:   *readyDate(),
	}, []purchasing.LineItemInput{
		{Source: purchasing.ManualSource{}, Title: "Desk organizer", Quantity: 2, UnitCost: dec("10")},
		{Source: purchasing.ManualSource{}, Title: "Lamp", Quantity: 3, UnitCost: dec("5")},
	})
	require.NoError(t, err)
	order.ClearDomainEvents()
	return order
}

type serviceFixture struct {
	repo      *MockPurchaseOrderRepository
	publisher *recordingPublisher
	storage   *fakeStorage
	metrics   *telemetry.Metrics
	logs      *observer.ObservedLogs
	service   *PurchaseOrderService
	tenantID  uuid.UUID
}

func newServiceFixture() *serviceFixture {
	core, logs := observer.New(zap.DebugLevel)
	f := &serviceFixture{
		repo:      new(MockPurchaseOrderRepository),
		publisher: &recordingPublisher{},
		storage:   newFakeStorage(),
		metrics:   telemetry.NewMetrics(),
		logs:      logs,
		tenantID:  uuid.New(),
	}
	f.service = NewPurchaseOrderService(f.repo)
	f.service.SetEventPublisher(f.publisher)
	f.service.SetAttachmentStorage(f.storage)
	f.service.SetBusinessMetrics(f.metrics.Business())
	f.service.SetLogger(zap.New(core))
	return f
}

// counterValue sums the named counter, optionally restricted to series whose
// first label value matches
func counterValue(t *testing.T, metrics *telemetry.Metrics, name string, labelValue ...string) float64 {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)

	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			if len(labelValue) > 0 && (len(m.GetLabel()) == 0 || m.GetLabel()[0].GetValue() != labelValue[0]) {
				continue
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func (f *serviceFixture) expectLoad(order *purchasing.PurchaseOrder) {
	f.repo.On("FindByIDForTenant", mock.Anything, f.tenantID, order.ID).Return(order, nil)
}

func TestPurchaseOrderService_Create(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.repo.On("ExistsByOrderNumber", ctx, f.tenantID, "PO-1001").Return(false, nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*purchasing.PurchaseOrder")).Return(nil)

	resp, err := f.service.Create(ctx, f.tenantID, createRequest())
	require.NoError(t, err)

	assert.Equal(t, "PO-1001", resp.OrderNumber)
	assert.Equal(t, f.tenantID, resp.TenantID)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, 5, resp.Totals.TotalQuantity)
	assert.True(t, resp.Totals.GrandTotal.Equal(dec("35")))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "CATALOG", resp.Items[0].Source)
	require.NotNil(t, resp.Items[0].VariantID)
	assert.Equal(t, "MANUAL", resp.Items[1].Source)
	assert.Nil(t, resp.Items[1].VariantID)
	assert.Empty(t, resp.Payments)

	assert.Equal(t, []string{purchasing.EventTypePurchaseOrderCreated}, f.publisher.types())
	assert.Equal(t, 1.0, counterValue(t, f.metrics, "procurement_purchase_orders_created_total"))
	f.repo.AssertExpectations(t)
}

func TestPurchaseOrderService_CreateWithInitialPayment(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	var saved *purchasing.PurchaseOrder
	f.repo.On("ExistsByOrderNumber", ctx, f.tenantID, "PO-1001").Return(false, nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*purchasing.PurchaseOrder")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*purchasing.PurchaseOrder) }).
		Return(nil)

	req := createRequest()
	req.ShippingCost = dec("5")
	req.InitialPayment = dec("15")

	resp, err := f.service.Create(ctx, f.tenantID, req)
	require.NoError(t, err)

	assert.Equal(t, "IN_PROGRESS", resp.Status)
	require.Len(t, resp.Payments, 1)
	assert.True(t, resp.Payments[0].Amount.Equal(dec("15")))
	assert.Equal(t, *req.OrderDate, resp.Payments[0].PaidAt)
	assert.True(t, resp.Totals.Balance.Equal(dec("25")))
	require.NotNil(t, saved)
	assert.Len(t, saved.Payments, 1, "payment is written in the same create")

	full := createRequest()
	full.OrderNumber = "PO-1002"
	full.InitialPayment = dec("35")
	f.repo.On("ExistsByOrderNumber", ctx, f.tenantID, "PO-1002").Return(false, nil)
	resp, err = f.service.Create(ctx, f.tenantID, full)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.Status)
}

func TestPurchaseOrderService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreatePurchaseOrderRequest)
	}{
		{"missing vendor", func(r *CreatePurchaseOrderRequest) { r.VendorName = "" }},
		{"missing ready date", func(r *CreatePurchaseOrderRequest) { r.ReadyDate = nil }},
		{"missing number", func(r *CreatePurchaseOrderRequest) { r.OrderNumber = "" }},
		{"no items", func(r *CreatePurchaseOrderRequest) { r.Items = nil }},
		{"negative payment", func(r *CreatePurchaseOrderRequest) { r.InitialPayment = dec("-1") }},
		{"negative cost", func(r *CreatePurchaseOrderRequest) { r.Items[0].UnitCost = dec("-1") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			req := createRequest()
			tt.mutate(&req)

			_, err := f.service.Create(context.Background(), f.tenantID, req)
			require.Error(t, err)
			assert.True(t, shared.IsCode(err, shared.CodeValidation))
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, f.publisher.types())
		})
	}
}

func TestPurchaseOrderService_CreateDuplicateNumber(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	f.repo.On("ExistsByOrderNumber", ctx, f.tenantID, "PO-1001").Return(true, nil)

	_, err := f.service.Create(ctx, f.tenantID, createRequest())
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeAlreadyExists))
	assert.Equal(t, "PO Number already exists!", err.Error())
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPurchaseOrderService_List(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	orders := []purchasing.PurchaseOrder{*newStoredOrder(t, f.tenantID), *newStoredOrder(t, f.tenantID), *newStoredOrder(t, f.tenantID)}
	f.repo.On("FindAllForTenant", ctx, f.tenantID, mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Page == 3 && filter.PageSize == 10 && filter.Search == "north" &&
			filter.Filters[purchasing.FilterKeyStatus] == "IN_PROGRESS" && filter.OrderBy == "created_at"
	})).Return(orders, nil)
	f.repo.On("CountForTenant", ctx, f.tenantID, mock.Anything).Return(int64(23), nil)

	page, err := f.service.List(ctx, f.tenantID, ListFilter{Page: 3, PageSize: 10, Status: "in_progress", Search: " north "})
	require.NoError(t, err)

	assert.Len(t, page.Orders, 3)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, int64(23), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Orders[0].ItemCount)
	assert.True(t, page.Orders[0].Totals.GrandTotal.Equal(dec("35")))
}

func TestPurchaseOrderService_ListInvalidStatus(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.List(context.Background(), f.tenantID, ListFilter{Status: "CANCELLED"})
	assert.True(t, shared.IsCode(err, shared.CodeValidation))
	f.repo.AssertNotCalled(t, "FindAllForTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchaseOrderService_GetByIDNotFound(t *testing.T) {
	f := newServiceFixture()
	orderID := uuid.New()
	f.repo.On("FindByIDForTenant", mock.Anything, f.tenantID, orderID).Return(nil, shared.NewNotFoundError("Purchase order"))

	_, err := f.service.GetByID(context.Background(), f.tenantID, orderID)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestPurchaseOrderService_ItemLedger(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	order := newStoredOrder(t, f.tenantID)
	f.expectLoad(order)
	f.repo.On("SaveWithLock", mock.Anything, order).Return(nil)

	added, err := f.service.AddItem(ctx, f.tenantID, order.ID, LineItemInput{Title: "Chair", Quantity: 1, UnitCost: dec("20")})
	require.NoError(t, err)
	require.NotNil(t, added.Item)
	assert.Equal(t, "Chair", added.Item.Title)
	assert.Equal(t, 6, added.Totals.TotalQuantity)
	assert.True(t, added.Totals.ItemsTotal.Equal(dec("55")))
	assert.Equal(t, 6, order.TotalQuantity)
	assert.True(t, order.TotalAmount.Equal(dec("55")))

	updated, err := f.service.UpdateItem(ctx, f.tenantID, order.ID, added.Item.ID, UpdateItemRequest{Quantity: 2, UnitCost: dec("20")})
	require.NoError(t, err)
	assert.True(t, updated.Item.Subtotal.Equal(dec("40")))
	assert.True(t, updated.Totals.ItemsTotal.Equal(dec("75")))

	removed, err := f.service.RemoveItem(ctx, f.tenantID, order.ID, added.Item.ID)
	require.NoError(t, err)
	assert.Nil(t, removed.Item)
	assert.True(t, removed.Totals.ItemsTotal.Equal(dec("35")))
	assert.True(t, order.TotalAmount.Equal(dec("35")))

	f.repo.AssertNumberOfCalls(t, "SaveWithLock", 3)
}

func TestPurchaseOrderService_AddItemValidation(t *testing.T) {
	f := newServiceFixture()
	order := newStoredOrder(t, f.tenantID)
	f.expectLoad(order)

	_, err := f.service.AddItem(context.Background(), f.tenantID, order.ID, LineItemInput{Title: "", Quantity: 1, UnitCost: dec("1")})
	assert.True(t, shared.IsCode(err, shared.CodeValidation))
	f.repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestPurchaseOrderService_ReceiveItem(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	order := newStoredOrder(t, f.tenantID)
	itemID := order.Items[1].ID
	f.expectLoad(order)
	f.repo.On("SaveWithLock", mock.Anything, order).Return(nil)

	result, err := f.service.ReceiveItem(ctx, f.tenantID, order.ID, itemID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Item.ReceivedQuantity)
	assert.Equal(t, 1, result.Item.Outstanding)
	assert.Equal(t, 3, result.Totals.OnOrder)
	assert.True(t, result.Totals.ItemsTotal.Equal(dec("35")), "receiving leaves totals alone")

	_, err = f.service.ReceiveItem(ctx, f.tenantID, order.ID, itemID, 5)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeOverReceipt))
	assert.Equal(t, "You can receive only 1", err.Error())

	f.repo.AssertNumberOfCalls(t, "SaveWithLock", 1)
	assert.Equal(t, []string{purchasing.EventTypePurchaseOrderItemReceived}, f.publisher.types())
	assert.Equal(t, 2.0, counterValue(t, f.metrics, "procurement_units_received_total"))
}

func TestPurchaseOrderService_RecordPayment(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	order := newStoredOrder(t, f.tenantID)
	f.expectLoad(order)
	f.repo.On("SaveWithLock", mock.Anything, order).Return(nil)

	_, err := f.service.UpdateShipping(ctx, f.tenantID, order.ID, dec("30"))
	require.NoError(t, err)

	result, err := f.service.RecordPayment(ctx, f.tenantID, order.ID, RecordPaymentRequest{Amount: dec("65")})
	require.NoError(t, err)
	require.NotNil(t, result.Payment)
	assert.Equal(t, "COMPLETED", result.Status)
	assert.True(t, result.Totals.Balance.IsZero())

	result, err = f.service.RecordPayment(ctx, f.tenantID, order.ID, RecordPaymentRequest{Amount: dec("5")})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", result.Status)
	assert.True(t, result.Totals.Balance.Equal(dec("-5")))

	assert.Equal(t, []string{
		purchasing.EventTypePurchaseOrderPaymentRecorded,
		purchasing.EventTypePurchaseOrderCompleted,
		purchasing.EventTypePurchaseOrderPaymentRecorded,
	}, f.publisher.types())
}

func TestPurchaseOrderService_RecordPaymentRejectsNonPositive(t *testing.T) {
	f := newServiceFixture()
	orderID := uuid.New()

	for _, amount := range []string{"0", "-3"} {
		_, err := f.service.RecordPayment(context.Background(), f.tenantID, orderID, RecordPaymentRequest{Amount: dec(amount)})
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	}
	f.repo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestPurchaseOrderService_SaveFailureDoesNotPublish(t *testing.T) {
	f := newServiceFixture()
	order := newStoredOrder(t, f.tenantID)
	f.expectLoad(order)
	f.repo.On("SaveWithLock", mock.Anything, order).Return(shared.ErrConcurrencyConflict)

	_, err := f.service.RecordPayment(context.Background(), f.tenantID, order.ID, RecordPaymentRequest{Amount: dec("10")})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Empty(t, f.publisher.types())
}

func TestPurchaseOrderService_PublishFailureIsLogged(t *testing.T) {
	f := newServiceFixture()
	f.publisher.err = errors.New("kafka: leader not available")
	order := newStoredOrder(t, f.tenantID)
	f.expectLoad(order)
	f.repo.On("SaveWithLock", mock.Anything, order).Return(nil)

	_, err := f.service.RecordPayment(context.Background(), f.tenantID, order.ID, RecordPaymentRequest{Amount: dec("10")})
	require.NoError(t, err, "a committed payment is not rolled back by a publish failure")

	assert.Equal(t, 1, f.logs.FilterMessage("Failed to publish purchase order events").Len())
	assert.Equal(t, 1.0, counterValue(t, f.metrics, "procurement_event_publish_failures_total", purchasing.EventTypePurchaseOrderPaymentRecorded))
}

func TestPurchaseOrderService_UpdatePaymentDate(t *testing.T) {
	f := newServiceFixture()
	order := newStoredOrder(t, f.tenantID)
	payment, err := order.RecordPayment(dec("10"), time.Now())
	require.NoError(t, err)
	order.ClearDomainEvents()
	f.expectLoad(order)
	f.repo.On("SaveWithLock", mock.Anything, order).Return(nil)

	paidAt := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	result, err := f.service.UpdatePaymentDate(context.Background(), f.tenantID, order.ID, payment.ID, paidAt)
	require.NoError(t, err)
	assert.Equal(t, paidAt, result.Payment.PaidAt)
	assert.Equal(t, "IN_PROGRESS", result.Status)
	assert.Empty(t, f.publisher.types())
}

func TestPurchaseOrderService_UpdateDetails(t *testing.T) {
	t.Run("renames when number is free", func(t *testing.T) {
		f := newServiceFixture()
		order := newStoredOrder(t, f.tenantID)
		f.expectLoad(order)
		f.repo.On("FindByOrderNumber", mock.Anything, f.tenantID, "PO-2002").Return(nil, shared.NewNotFoundError("Purchase order"))
		f.repo.On("SaveWithLock", mock.Anything, order).Return(nil)

		number, status := "PO-2002", "completed"
		resp, err := f.service.UpdateDetails(context.Background(), f.tenantID, order.ID, UpdateDetailsRequest{OrderNumber: &number, Status: &status})
		require.NoError(t, err)
		assert.Equal(t, "PO-2002", resp.OrderNumber)
		assert.Equal(t, "COMPLETED", resp.Status)
	})

	t.Run("rejects a number owned by another order", func(t *testing.T) {
		f := newServiceFixture()
		order := newStoredOrder(t, f.tenantID)
		other := newStoredOrder(t, f.tenantID)
		f.expectLoad(order)
		f.repo.On("FindByOrderNumber", mock.Anything, f.tenantID, "PO-2002").Return(other, nil)

		number := "PO-2002"
		_, err := f.service.UpdateDetails(context.Background(), f.tenantID, order.ID, UpdateDetailsRequest{OrderNumber: &number})
		assert.True(t, shared.IsCode(err, shared.CodeAlreadyExists))
		f.repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("keeping the same number skips the lookup", func(t *testing.T) {
		f := newServiceFixture()
		order := newStoredOrder(t, f.tenantID)
		f.expectLoad(order)
		f.repo.On("SaveWithLock", mock.Anything, order).Return(nil)

		number, vendor := "PO-1001", "Contoso"
		resp, err := f.service.UpdateDetails(context.Background(), f.tenantID, order.ID, UpdateDetailsRequest{OrderNumber: &number, VendorName: &vendor})
		require.NoError(t, err)
		assert.Equal(t, "Contoso", resp.VendorName)
		f.repo.AssertNotCalled(t, "FindByOrderNumber", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPurchaseOrderService_UpdateStatusAndDueDate(t *testing.T) {
	f := newServiceFixture()
	order := newStoredOrder(t, f.tenantID)
	f.expectLoad(order)
	f.repo.On("SaveWithLock", mock.Anything, order).Return(nil)

	resp, err := f.service.UpdateStatus(context.Background(), f.tenantID, order.ID, "IN_PROGRESS")
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", resp.Status)
	assert.Equal(t, "PENDING", resp.DerivedStatus, "override does not change the computed status")

	_, err = f.service.UpdateStatus(context.Background(), f.tenantID, order.ID, "SHIPPED")
	assert.True(t, shared.IsCode(err, shared.CodeValidation))

	due := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	resp, err = f.service.UpdateDueDate(context.Background(), f.tenantID, order.ID, &due)
	require.NoError(t, err)
	require.NotNil(t, resp.DueDate)
	assert.Equal(t, due, *resp.DueDate)

	resp, err = f.service.UpdateDueDate(context.Background(), f.tenantID, order.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, resp.DueDate)
}

func TestPurchaseOrderService_UpdateNoteWithAttachment(t *testing.T) {
	f := newServiceFixture()
	order := newStoredOrder(t, f.tenantID)
	f.expectLoad(order)
	f.repo.On("SaveWithLock", mock.Anything, order).Return(nil)

	resp, err := f.service.UpdateNote(context.Background(), f.tenantID, order.ID, "Quote attached", &AttachmentUpload{
		FileName:    "../Vendor Quote.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.7"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Quote attached", resp.Note)
	assert.True(t, strings.HasPrefix(resp.Attachment, "purchase-orders/"+order.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(resp.Attachment, "-Vendor_Quote.pdf"))
	assert.Contains(t, f.storage.objects, resp.Attachment)

	link, err := f.service.GetAttachmentURL(context.Background(), f.tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/"+resp.Attachment, link.URL)
	assert.WithinDuration(t, time.Now().Add(DefaultAttachmentURLExpiry), link.ExpiresAt, 5*time.Second)
}

func TestPurchaseOrderService_UpdateNoteDiscardsOrphanedUpload(t *testing.T) {
	f := newServiceFixture()
	order := newStoredOrder(t, f.tenantID)
	f.expectLoad(order)
	f.repo.On("SaveWithLock", mock.Anything, order).Return(errors.New("database is locked"))

	_, err := f.service.UpdateNote(context.Background(), f.tenantID, order.ID, "note", &AttachmentUpload{FileName: "a.txt", Data: []byte("x")})
	require.Error(t, err)
	assert.Empty(t, f.storage.objects)
	assert.Len(t, f.storage.deleted, 1)
}

func TestPurchaseOrderService_UpdateNoteUploadFailure(t *testing.T) {
	f := newServiceFixture()
	f.storage.uploadErr = errors.New("s3: access denied")
	order := newStoredOrder(t, f.tenantID)
	f.expectLoad(order)

	_, err := f.service.UpdateNote(context.Background(), f.tenantID, order.ID, "note", &AttachmentUpload{FileName: "a.txt", Data: []byte("x")})
	assert.True(t, shared.IsCode(err, shared.CodeUpstream))
	f.repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestPurchaseOrderService_GetAttachmentURLWithoutAttachment(t *testing.T) {
	f := newServiceFixture()
	order := newStoredOrder(t, f.tenantID)
	f.expectLoad(order)

	_, err := f.service.GetAttachmentURL(context.Background(), f.tenantID, order.ID)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestPurchaseOrderService_Delete(t *testing.T) {
	f := newServiceFixture()
	order := newStoredOrder(t, f.tenantID)
	f.expectLoad(order)
	f.repo.On("DeleteForTenant", mock.Anything, f.tenantID, order.ID).Return(nil)

	require.NoError(t, f.service.Delete(context.Background(), f.tenantID, order.ID))
	assert.Equal(t, []string{purchasing.EventTypePurchaseOrderDeleted}, f.publisher.types())
}

func TestAttachmentKey(t *testing.T) {
	orderID := uuid.MustParse("6f1c2a9e-5b7d-4c1e-9a3f-2d8e4b6c0a11")
	at := time.UnixMilli(1767225600000)

	assert.Equal(t, "purchase-orders/6f1c2a9e-5b7d-4c1e-9a3f-2d8e4b6c0a11/1767225600000-invoice_march.pdf",
		AttachmentKey(orderID, "invoice march.pdf", at))
	assert.Equal(t, "purchase-orders/6f1c2a9e-5b7d-4c1e-9a3f-2d8e4b6c0a11/1767225600000-attachment",
		AttachmentKey(orderID, "...", at))
	assert.Equal(t, "purchase-orders/6f1c2a9e-5b7d-4c1e-9a3f-2d8e4b6c0a11/1767225600000-passwd",
		AttachmentKey(orderID, "/etc/passwd", at))
}
