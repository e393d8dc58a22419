package broker

import (
	"context"
	"errors"
	"time"

	"baobab/src/logger"
)

// DefaultSinkTimeout bounds each copy to a secondary sink.
const DefaultSinkTimeout = 2 * time.Second

// Mirror publishes to a primary broker and copies every message to secondary
// sinks. Subscriptions are served by the primary only. A failing or slow
// secondary is logged and never fails or stalls the publish for longer than
// the sink timeout.
type Mirror struct {
	primary     Broker
	secondaries []Sink
	timeout     time.Duration
	log         logger.Logger
}

// NewMirror wraps primary. With no secondaries it behaves exactly like primary.
func NewMirror(primary Broker, log logger.Logger, secondaries ...Sink) *Mirror {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Mirror{
		primary:     primary,
		secondaries: secondaries,
		timeout:     DefaultSinkTimeout,
		log:         log,
	}
}

func (m *Mirror) Publish(ctx context.Context, topic string, key string, value []byte) error {
	if err := m.primary.Publish(ctx, topic, key, value); err != nil {
		return err
	}
	for _, s := range m.secondaries {
		m.copyTo(ctx, s, topic, key, value)
	}
	return nil
}

func (m *Mirror) copyTo(ctx context.Context, s Sink, topic string, key string, value []byte) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := s.Publish(ctx, topic, key, value); err != nil {
		m.log.Warn("mirror publish to %s failed: %v", topic, err)
	}
}

func (m *Mirror) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	return m.primary.Subscribe(ctx, topic, groupID)
}

// Close closes the primary and every secondary, returning all errors joined.
func (m *Mirror) Close() error {
	errs := []error{m.primary.Close()}
	for _, s := range m.secondaries {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
