package bus

import (
	"context"
	"sync"
)

// Memory is an in-process Bus. All simulated tabs living in one process
// share a single Memory instance; delivery is asynchronous and frames are
// dropped for subscribers that fall behind.
type Memory struct {
	mu     sync.Mutex
	subs   map[int]chan Frame
	nextID int
	closed bool
}

const memorySubBuffer = 32

// NewMemory creates an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[int]chan Frame)}
}

// Publish delivers the frame to every subscriber's channel.
func (b *Memory) Publish(_ context.Context, f Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	for _, ch := range b.subs {
		select {
		case ch <- f:
		default:
			// Drop if the subscriber is lagging; the medium guarantees nothing.
		}
	}
	return nil
}

// Subscribe registers a handler pumped by its own goroutine.
func (b *Memory) Subscribe(h Handler) func() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Frame, memorySubBuffer)
	b.subs[id] = ch
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for f := range ch {
			h(f)
		}
		close(done)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
			b.mu.Unlock()
			<-done
		})
	}
}

// Close drops every subscription.
func (b *Memory) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
