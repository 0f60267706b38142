package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/HatiCode/millboard/pkg/mill"
)

// messageWriter is the subset of *kafka.Writer used by KafkaSink.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes one JSON Record per message, keyed by plant/machine so
// a machine's history stays on one partition.
type KafkaSink struct {
	Brokers   []string
	Topic     string
	BatchSize int

	writer messageWriter
}

// NewKafkaSink creates a sink backed by a kafka.Writer.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka sink: brokers and topic are required")
	}
	return &KafkaSink{
		Brokers:   brokers,
		Topic:     topic,
		BatchSize: 100,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}, nil
}

func (k *KafkaSink) Name() string { return "kafka" }

// Write implements Sink. Messages are sent in batches of BatchSize.
func (k *KafkaSink) Write(ctx context.Context, observations []mill.Observation) error {
	batch := k.BatchSize
	if batch <= 0 {
		batch = 100
	}

	msgs := make([]kafka.Message, 0, batch)
	flush := func() error {
		if len(msgs) == 0 {
			return nil
		}
		if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("failed to write messages: %w", err)
		}
		msgs = msgs[:0]
		return nil
	}

	for _, o := range observations {
		value, err := json.Marshal(NewRecord(o))
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(o.Plant + "/" + o.Machine),
			Value: value,
		})
		if len(msgs) == batch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// Close flushes and closes the underlying writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
