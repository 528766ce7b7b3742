// Package events mirrors committed task events to an external broker.
//
// The mirror is optional plumbing for downstream consumers (audit, email
// digests); the live fan-out to connected clients never depends on it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dkorzhov/tasksync/internal/model"
)

// Sink receives every committed task event. Implementations must tolerate
// being called concurrently.
type Sink interface {
	Publish(ctx context.Context, userID int64, e model.Event) error
	Close() error
}

// KafkaSink produces task events to a Kafka topic keyed by user id, so one
// user's events stay ordered within a partition.
type KafkaSink struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaSink constructs a sink writing to topic via the given brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		topic: topic,
	}
}

// Publish marshals e and writes it keyed by userID.
func (s *KafkaSink) Publish(ctx context.Context, userID int64, e model.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Topic: s.topic,
		Key:   []byte(strconv.FormatInt(userID, 10)),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error { return s.writer.Close() }
