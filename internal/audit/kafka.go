package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaEmitter produces audit events to a Kafka topic. Events are keyed by
// actor ID so a single actor's events stay ordered within a partition.
type KafkaEmitter struct {
	writer *kafka.Writer
}

// KafkaConfig holds the connection settings for the audit topic.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// NewKafkaEmitter creates an emitter producing to the configured topic.
func NewKafkaEmitter(cfg KafkaConfig) *KafkaEmitter {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Transport: &kafka.Transport{
			ClientID: cfg.ClientID,
		},
	}
	return &KafkaEmitter{writer: writer}
}

// Emit serializes the event as JSON and produces it.
func (e *KafkaEmitter) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ActorID),
		Value: payload,
		Time:  event.CreatedAt,
	}
	if err := e.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("audit: produce event %s: %w", e.writer.Topic, err)
	}
	return nil
}

// Close flushes pending messages and releases the writer.
func (e *KafkaEmitter) Close() error {
	return e.writer.Close()
}
