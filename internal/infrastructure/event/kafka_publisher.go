package event

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the part of *kafka.Writer the forwarder uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka writer
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// NewKafkaWriter builds a writer that hashes message keys to partitions,
// so messages with the same key always land on the same partition.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// KafkaForwarder is an event handler that writes every event it receives
// to Kafka, keyed by aggregate ID so one order's events stay ordered.
type KafkaForwarder struct {
	writer     MessageWriter
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewKafkaForwarder creates a forwarder over writer
func NewKafkaForwarder(writer MessageWriter, serializer *EventSerializer, logger *zap.Logger) *KafkaForwarder {
	if serializer == nil {
		serializer = NewEventSerializer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaForwarder{
		writer:     writer,
		serializer: serializer,
		logger:     logger,
	}
}

// Handle encodes the event and writes it to the topic
func (f *KafkaForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	value, err := f.serializer.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID().String()),
		Value: value,
		Time:  event.OccurredAt(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType())},
			{Key: "event_id", Value: []byte(event.EventID().String())},
			{Key: "tenant_id", Value: []byte(event.TenantID().String())},
		},
	}

	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s to kafka: %w", event.EventType(), err)
	}

	f.logger.Debug("Event forwarded to Kafka",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
	)
	return nil
}

// EventTypes returns nil: the forwarder receives every event
func (f *KafkaForwarder) EventTypes() []string {
	return nil
}

// Close flushes and closes the writer
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
