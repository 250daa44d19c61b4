package publisher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"eventsIngestion/internal/model"
)

// Publisher delivers broker messages over one connection per run.
type Publisher interface {
	Open(ctx context.Context) error
	Send(ctx context.Context, topic string, messages []model.BrokerMessage) error
	Close() error
}

// Lifecycle enforces the open/send/close contract around a backend: Open
// once, Send only while open, release the backend at most once. Send may be
// called from concurrent goroutines when the backend allows it.
type Lifecycle struct {
	backend Publisher

	mu     sync.Mutex
	opened atomic.Bool
	closed atomic.Bool
	sent   atomic.Int64
}

// NewLifecycle wraps a backend.
func NewLifecycle(backend Publisher) *Lifecycle {
	return &Lifecycle{backend: backend}
}

// Open connects the backend. A second call is an error.
func (l *Lifecycle) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed.Load() {
		return fmt.Errorf("publisher already closed")
	}
	if l.opened.Load() {
		return fmt.Errorf("publisher already open")
	}
	if err := l.backend.Open(ctx); err != nil {
		return &model.PublishError{Err: fmt.Errorf("open: %w", err)}
	}
	l.opened.Store(true)
	return nil
}

// Send delivers messages in order. It panics with a ProgrammingError when
// called before Open or after Close.
func (l *Lifecycle) Send(ctx context.Context, topic string, messages []model.BrokerMessage) error {
	if !l.opened.Load() {
		panic(model.ProgrammingError{Msg: "send before open"})
	}
	if l.closed.Load() {
		panic(model.ProgrammingError{Msg: "send after close"})
	}
	if len(messages) == 0 {
		return nil
	}

	if err := l.backend.Send(ctx, topic, messages); err != nil {
		return &model.PublishError{Topic: topic, Err: err}
	}
	l.sent.Add(int64(len(messages)))
	return nil
}

// Close releases the backend if it was opened. Later calls are no-ops.
func (l *Lifecycle) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed.Swap(true) {
		return nil
	}
	if !l.opened.Load() {
		return nil
	}
	if err := l.backend.Close(); err != nil {
		return &model.PublishError{Err: fmt.Errorf("close: %w", err)}
	}
	return nil
}

// Opened reports whether Open succeeded.
func (l *Lifecycle) Opened() bool {
	return l.opened.Load()
}

// Sent returns the number of messages delivered.
func (l *Lifecycle) Sent() int64 {
	return l.sent.Load()
}
