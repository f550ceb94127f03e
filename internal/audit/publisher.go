package audit

import (
	"context"
	"sync"
	"time"
)

// Sink receives published events. Implementations: in-memory store, kafka.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher emits audit events to a sink, synchronously by default or through
// a buffered channel when configured with WithAsyncBuffer. Async mode drops
// events when the buffer is full rather than blocking the vote path.
type Publisher struct {
	sink  Sink
	inbox chan Event
	done  chan struct{}
	once  sync.Once
}

// PublisherOption configures a Publisher.
type PublisherOption func(*publisherConfig)

type publisherConfig struct {
	buffer int
}

// WithAsyncBuffer enables asynchronous publishing with the given buffer size.
func WithAsyncBuffer(size int) PublisherOption {
	return func(c *publisherConfig) { c.buffer = size }
}

func NewPublisher(sink Sink, opts ...PublisherOption) *Publisher {
	cfg := &publisherConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	p := &Publisher{sink: sink, done: make(chan struct{})}
	if cfg.buffer > 0 {
		p.inbox = make(chan Event, cfg.buffer)
		go p.run()
	}
	return p
}

// Emit publishes an event, stamping the timestamp if unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		return p.sink.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
	default:
		// Buffer full. Audit must not block or fail the operation it records.
	}
	return nil
}

// Close drains the async buffer and stops the worker. Idempotent.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			<-p.done
		} else {
			close(p.done)
		}
	})
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.inbox {
		_ = p.sink.Append(context.Background(), event)
	}
}
