package adapters

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tidwall/gjson"

	"github.com/HatiCode/millboard/pkg/mill"
)

// messageReader is the subset of *kafka.Reader used by KafkaAdapter.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaAdapter drains JSON observation messages from a topic. One message
// holds one record in the HTTPAdapter record shape.
//
// Every Load reads each partition of the topic from its first offset without
// a consumer group, so nothing is committed and a reload sees the whole topic.
// A partition is done when no message arrives within IdleTimeout. Reading
// stops early after MaxMessages messages in total (0 = unlimited).
type KafkaAdapter struct {
	Brokers     []string
	Topic       string
	MaxMessages int
	IdleTimeout time.Duration

	// lookupPartitions and newReader are replaced in tests.
	lookupPartitions func(ctx context.Context) ([]int, error)
	newReader        func(partition int) messageReader
}

func (k *KafkaAdapter) Name() string { return "kafka" }

func (k *KafkaAdapter) partitions(ctx context.Context) ([]int, error) {
	if k.lookupPartitions != nil {
		return k.lookupPartitions(ctx)
	}

	var lastErr error
	for _, broker := range k.Brokers {
		parts, err := kafka.LookupPartitions(ctx, "tcp", broker, k.Topic)
		if err != nil {
			lastErr = err
			continue
		}
		ids := make([]int, 0, len(parts))
		for _, p := range parts {
			ids = append(ids, p.ID)
		}
		slices.Sort(ids)
		return ids, nil
	}
	return nil, lastErr
}

func (k *KafkaAdapter) reader(partition int) messageReader {
	if k.newReader != nil {
		return k.newReader(partition)
	}
	// Without a GroupID the reader starts at FirstOffset and commits nothing.
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:   k.Brokers,
		Topic:     k.Topic,
		Partition: partition,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
}

// Load implements Adapter.
func (k *KafkaAdapter) Load(ctx context.Context) (*mill.Dataset, error) {
	if len(k.Brokers) == 0 || k.Topic == "" {
		return nil, errors.New("kafka adapter: Brokers and Topic are required")
	}

	partitions, err := k.partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up partitions of %s: %w", k.Topic, err)
	}
	if len(partitions) == 0 {
		return nil, fmt.Errorf("topic %s has no partitions", k.Topic)
	}

	d := &kafkaDrain{
		max:  k.MaxMessages,
		idle: k.IdleTimeout,
		seen: make(map[recordKey]string),
	}
	if d.idle <= 0 {
		d.idle = 5 * time.Second
	}

	for _, p := range partitions {
		if d.full() {
			break
		}
		if err := d.drain(ctx, p, k.reader(p)); err != nil {
			return nil, err
		}
	}

	return newDataset(k.Name(), 0, d.observations)
}

type recordKey struct {
	date    time.Time
	plant   string
	machine string
}

type kafkaDrain struct {
	max          int
	idle         time.Duration
	seen         map[recordKey]string
	observations []mill.Observation
}

func (d *kafkaDrain) full() bool {
	return d.max > 0 && len(d.observations) >= d.max
}

func (d *kafkaDrain) drain(ctx context.Context, partition int, r messageReader) error {
	defer r.Close()

	for !d.full() {
		readCtx, cancel := context.WithTimeout(ctx, d.idle)
		msg, err := r.ReadMessage(readCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("failed to read partition %d: %w", partition, err)
		}

		at := fmt.Sprintf("partition %d offset %d", partition, msg.Offset)
		rec, err := parseRecord(gjson.ParseBytes(msg.Value))
		if err != nil {
			return fmt.Errorf("message %d (%s): %w", len(d.observations), at, err)
		}

		obs := rec.toObservation()
		key := recordKey{date: obs.Date, plant: obs.Plant, machine: obs.Machine}
		if prev, ok := d.seen[key]; ok {
			return fmt.Errorf("duplicate record %s/%s on %s (%s, first at %s)",
				obs.Plant, obs.Machine, obs.Date.Format(time.DateOnly), at, prev)
		}
		d.seen[key] = at
		d.observations = append(d.observations, obs)
	}
	return nil
}
