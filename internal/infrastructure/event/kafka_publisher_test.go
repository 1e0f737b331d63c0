package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/purchasing"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func paymentEvent() *purchasing.PurchaseOrderPaymentRecordedEvent {
	orderID := uuid.New()
	return &purchasing.PurchaseOrderPaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(purchasing.EventTypePurchaseOrderPaymentRecorded, purchasing.AggregateTypePurchaseOrder, orderID, uuid.New()),
		OrderID:         orderID,
		OrderNumber:     "PO-1001",
		PaymentID:       uuid.New(),
		Amount:          decimal.RequireFromString("25.50"),
		TotalPaid:       decimal.RequireFromString("25.50"),
		Balance:         decimal.RequireFromString("14.50"),
	}
}

func TestKafkaForwarder_Handle(t *testing.T) {
	w := &fakeWriter{}
	f := NewKafkaForwarder(w, nil, zap.NewNop())
	event := paymentEvent()

	require.NoError(t, f.Handle(context.Background(), event))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, event.AggregateID().String(), string(msg.Key))
	assert.Equal(t, event.OccurredAt(), msg.Time)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, purchasing.EventTypePurchaseOrderPaymentRecorded, headers["event_type"])
	assert.Equal(t, event.EventID().String(), headers["event_id"])
	assert.Equal(t, event.TenantID().String(), headers["tenant_id"])

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, event.EventID(), env.EventID)
	assert.Equal(t, purchasing.AggregateTypePurchaseOrder, env.AggregateType)

	decoded, err := NewEventSerializer().Unmarshal(msg.Value)
	require.NoError(t, err)
	got, ok := decoded.(*purchasing.PurchaseOrderPaymentRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, "PO-1001", got.OrderNumber)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("14.50")))
}

func TestKafkaForwarder_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	f := NewKafkaForwarder(w, NewEventSerializer(), nil)

	err := f.Handle(context.Background(), paymentEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write PurchaseOrderPaymentRecorded to kafka")
}

func TestKafkaForwarder_OnBus(t *testing.T) {
	w := &fakeWriter{}
	f := NewKafkaForwarder(w, nil, nil)
	bus := NewInMemoryEventBus(nil)
	bus.Subscribe(f)

	require.NoError(t, bus.Publish(context.Background(), paymentEvent(), newTestEvent("Anything")))
	assert.Len(t, w.messages, 2, "forwarder subscribes to every event")

	require.NoError(t, f.Close())
	assert.True(t, w.closed)
}

func TestEventSerializer_UnknownType(t *testing.T) {
	s := NewEventSerializer()
	data, err := s.Marshal(newTestEvent("Unregistered"))
	require.NoError(t, err)

	_, err = s.Unmarshal(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type: Unregistered")

	assert.True(t, s.IsRegistered(purchasing.EventTypePurchaseOrderCreated))
	assert.False(t, s.IsRegistered("Unregistered"))
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter(KafkaConfig{Brokers: []string{"kafka:9092"}, Topic: "procurement.purchase-orders"})
	defer w.Close()

	assert.Equal(t, "procurement.purchase-orders", w.Topic)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.Equal(t, "kafka:9092", w.Addr.String())
}
