package detector

import (
	"context"
	"errors"
	"sync"
)

// ErrBusClosed is returned when publishing to a closed bus.
var ErrBusClosed = errors.New("detector: bus closed")

// DefaultBusSize is the event buffer used when none is given.
const DefaultBusSize = 64

// Bus carries pushed events (from the control API or an external agent) to
// the engine loop.
type Bus struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
}

// NewBus creates a bus buffering up to size events.
func NewBus(size int) *Bus {
	if size <= 0 {
		size = DefaultBusSize
	}
	return &Bus{ch: make(chan Event, size)}
}

// Publish queues ev, blocking until there is room or ctx is done.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	select {
	case b.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the receive side of the bus.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Close stops the bus. Further publishes fail.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}
