package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"baobab/src/logger"
)

const (
	// deliveryTimeout bounds how long a record may wait for an unreachable cluster.
	deliveryTimeout = 5 * time.Second
	// flushTimeout bounds how long Close waits for buffered records.
	flushTimeout = 2 * time.Second
	// maxBuffered caps records waiting for delivery; further records are dropped.
	maxBuffered = 1000
)

// RedpandaProducer copies messages to a Kafka-compatible cluster using franz-go.
// It is publish-only and never blocks the caller: records are buffered and
// delivered in the background, and delivery failures are logged.
type RedpandaProducer struct {
	client       *kgo.Client
	log          logger.Logger
	flushTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewRedpandaProducer creates a producer for the given broker addresses
// (e.g., ["localhost:19092"]). No connection is made until the first record.
func NewRedpandaProducer(brokers []string, log logger.Logger) (*RedpandaProducer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(deliveryTimeout),
		kgo.MaxBufferedRecords(maxBuffered),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	return &RedpandaProducer{
		client:       client,
		log:          log,
		flushTimeout: flushTimeout,
	}, nil
}

// Publish buffers one record for delivery and returns immediately.
// The caller's cancellation does not abort records already handed over.
func (p *RedpandaProducer) Publish(ctx context.Context, topic string, key string, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}

	p.client.TryProduce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			p.log.Warn("redpanda delivery to %s (key %s) failed: %v", r.Topic, r.Key, err)
		}
	})
	return nil
}

// Close waits briefly for buffered records, then shuts the client down.
// Records still undelivered are failed and logged.
func (p *RedpandaProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.flushTimeout)
	defer cancel()

	flushErr := p.client.Flush(ctx)
	p.client.Close()

	if flushErr != nil {
		return fmt.Errorf("failed to flush redpanda records: %w", flushErr)
	}
	return nil
}
