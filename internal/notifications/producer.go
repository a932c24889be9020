package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"adslot/internal/placements"
	"adslot/pkg/logger"
)

// KafkaProducerConfig contains configuration for the placement event producer
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	ClientID         string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "placement-events",
		ClientID:         "adslot-api",
		RetryMax:         3,
		TimeoutMs:        10000,             // 10 seconds
		RequiredAcks:     sarama.WaitForAll, // Wait for all in-sync replicas
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000, // 1MB
	}
}

// SaramaConfig builds the sarama producer configuration.
func (c *KafkaProducerConfig) SaramaConfig() *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = c.ClientID

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = c.RequiredAcks
	saramaConfig.Producer.Compression = c.CompressionType
	saramaConfig.Producer.Retry.Max = c.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(c.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = c.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = c.MaxMessageBytes

	if c.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Every event of a slot lands on the same partition, in order.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	return saramaConfig
}

// PlacementEventProducer publishes placement lifecycle events to Kafka.
type PlacementEventProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	log      *logger.Logger
}

// NewKafkaPlacementProducer connects to the brokers and returns a producer
func NewKafkaPlacementProducer(config *KafkaProducerConfig) (*PlacementEventProducer, error) {
	if config == nil {
		config = DefaultKafkaProducerConfig()
	}
	producer, err := sarama.NewSyncProducer(config.Brokers, config.SaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	p := NewPlacementEventProducer(producer, config)
	p.log.Info("Kafka placement event producer created", "brokers", config.Brokers, "topic", config.Topic)
	return p, nil
}

// NewPlacementEventProducer wraps an existing sarama producer
func NewPlacementEventProducer(producer sarama.SyncProducer, config *KafkaProducerConfig) *PlacementEventProducer {
	if config == nil {
		config = DefaultKafkaProducerConfig()
	}
	return &PlacementEventProducer{
		producer: producer,
		config:   config,
		log:      logger.GetDefault(),
	}
}

func (p *PlacementEventProducer) PublishPlacementEvent(ctx context.Context, event placements.PlacementEvent) error {
	message, err := p.buildMessage(event)
	if err != nil {
		return err
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send placement event to Kafka: %w", err)
	}

	p.log.DebugWithContext(ctx, "Placement event published", map[string]interface{}{
		"topic":        p.config.Topic,
		"partition":    partition,
		"offset":       offset,
		"type":         string(event.Type),
		"slot_id":      event.SlotID,
		"placement_id": event.PlacementID,
	})
	return nil
}

// PublishBatch sends several events in one request
func (p *PlacementEventProducer) PublishBatch(ctx context.Context, events []placements.PlacementEvent) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]*sarama.ProducerMessage, 0, len(events))
	for _, event := range events {
		message, err := p.buildMessage(event)
		if err != nil {
			p.log.ErrorWithContext(ctx, "Skipping placement event", err, map[string]interface{}{
				"placement_id": event.PlacementID,
			})
			continue
		}
		messages = append(messages, message)
	}

	if err := p.producer.SendMessages(messages); err != nil {
		return fmt.Errorf("failed to send batch of placement events to Kafka: %w", err)
	}
	return nil
}

func (p *PlacementEventProducer) buildMessage(event placements.PlacementEvent) (*sarama.ProducerMessage, error) {
	payload, err := json.Marshal(NewEventMessage(event))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal placement event: %w", err)
	}

	return &sarama.ProducerMessage{
		Topic:     p.config.Topic,
		Key:       sarama.StringEncoder(event.SlotID),
		Value:     sarama.ByteEncoder(payload),
		Headers:   p.createHeaders(event),
		Timestamp: event.OccurredAt,
	}, nil
}

// createHeaders creates Kafka headers for placement events
func (p *PlacementEventProducer) createHeaders(event placements.PlacementEvent) []sarama.RecordHeader {
	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(event.Type)},
		{Key: []byte("slot_id"), Value: []byte(event.SlotID)},
		{Key: []byte("placement_id"), Value: []byte(event.PlacementID)},
		{Key: []byte("status"), Value: []byte(event.Status)},
		{Key: []byte("version"), Value: []byte(MessageVersion)},
		{Key: []byte("producer"), Value: []byte(p.config.ClientID)},
		{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
	}

	if event.ExpiresAt != nil {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("expires_at"),
			Value: []byte(event.ExpiresAt.Format(time.RFC3339)),
		})
	}
	return headers
}

// Close closes the Kafka producer
func (p *PlacementEventProducer) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	p.log.Info("Kafka placement event producer closed")
	return nil
}

// HealthCheck checks the producer is configured and usable
func (p *PlacementEventProducer) HealthCheck(ctx context.Context) error {
	if p.producer == nil {
		return errors.New("health check failed - producer is nil")
	}
	if p.config.Topic == "" {
		return errors.New("health check failed - topic not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
