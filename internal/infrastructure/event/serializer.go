package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/erp/procurement/internal/domain/purchasing"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// Envelope is the wire form of a domain event. Payload holds the full
// event as JSON; the other fields repeat its metadata for routing.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// EventSerializer converts domain events to and from envelopes
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a serializer that knows the purchasing events
func NewEventSerializer() *EventSerializer {
	s := &EventSerializer{registry: make(map[string]reflect.Type)}
	s.Register(purchasing.EventTypePurchaseOrderCreated, &purchasing.PurchaseOrderCreatedEvent{})
	s.Register(purchasing.EventTypePurchaseOrderItemReceived, &purchasing.PurchaseOrderItemReceivedEvent{})
	s.Register(purchasing.EventTypePurchaseOrderPaymentRecorded, &purchasing.PurchaseOrderPaymentRecordedEvent{})
	s.Register(purchasing.EventTypePurchaseOrderCompleted, &purchasing.PurchaseOrderCompletedEvent{})
	s.Register(purchasing.EventTypePurchaseOrderDeleted, &purchasing.PurchaseOrderDeletedEvent{})
	return s
}

// Register maps eventType to the concrete type of instance for decoding
func (s *EventSerializer) Register(eventType string, instance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(instance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Marshal wraps event in an envelope and encodes it
func (s *EventSerializer) Marshal(event shared.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}
	return json.Marshal(Envelope{
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		TenantID:      event.TenantID(),
		OccurredAt:    event.OccurredAt().UTC(),
		Payload:       payload,
	})
}

// Unmarshal decodes an envelope back into its registered event type
func (s *EventSerializer) Unmarshal(data []byte) (shared.DomainEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	s.mu.RLock()
	t, ok := s.registry[env.EventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", env.EventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(env.Payload, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", env.EventType, err)
	}
	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("%s does not implement DomainEvent", env.EventType)
	}
	return event, nil
}

// IsRegistered reports whether eventType can be decoded
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}
