package broker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned when publishing to or subscribing on a closed broker.
var ErrClosed = errors.New("broker is closed")

// InMemoryBroker delivers messages within one process.
//
// Every subscriber owns an unbounded FIFO queue, so Publish never blocks on a
// slow consumer and messages are delivered in publish order with no drops or
// duplicates. After Close, each subscriber still receives its backlog before
// its channel is closed.
type InMemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string][]*subscription
	offset map[string]int64
	closed bool
}

type subscription struct {
	mu     sync.Mutex
	queue  []Message
	done   bool
	wake   chan struct{}
	out    chan Message
	cancel <-chan struct{}
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subs:   make(map[string][]*subscription),
		offset: make(map[string]int64),
	}
}

// Publish appends the message to the queue of every current subscriber of topic.
// Messages published before anyone subscribes are discarded.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     append([]byte(nil), value...),
		Offset:    b.offset[topic],
		Timestamp: time.Now().UnixMilli(),
	}
	b.offset[topic]++

	for _, sub := range b.subs[topic] {
		sub.push(msg)
	}
	return nil
}

// Subscribe registers a new subscriber on topic. The returned channel is closed
// after Close once the backlog is drained, or as soon as ctx is cancelled.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &subscription{
		wake:   make(chan struct{}, 1),
		out:    make(chan Message),
		cancel: ctx.Done(),
	}
	b.subs[topic] = append(b.subs[topic], sub)

	go sub.pump()

	return sub.out, nil
}

// Close stops accepting messages. It is safe to call more than once.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, subs := range b.subs {
		for _, sub := range subs {
			sub.finish()
		}
	}
	return nil
}

func (s *subscription) push(msg Message) {
	s.mu.Lock()
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
	s.signal()
}

func (s *subscription) finish() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.signal()
}

func (s *subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump moves messages from the queue to the consumer channel one at a time.
func (s *subscription) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			done := s.done
			s.mu.Unlock()
			if done {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-s.cancel:
				return
			}
		}
		msg := s.queue[0]
		s.queue[0] = Message{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- msg:
		case <-s.cancel:
			return
		}
	}
}
