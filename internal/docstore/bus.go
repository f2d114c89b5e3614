package docstore

import (
	"context"
	"sync"
)

// Change describes one committed write. Before is nil for creations and After
// is nil for deletions.
type Change struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Before     Fields `json:"before,omitempty"`
	After      Fields `json:"after,omitempty"`
}

// Affects reports whether the change can alter the result of q.
func (c Change) Affects(q Query) bool {
	if c.Collection != q.Collection {
		return false
	}
	return q.Matches(c.Before) || q.Matches(c.After)
}

// Bus fans committed changes out to every store instance watching them.
type Bus interface {
	Publish(ctx context.Context, c Change) error
	Subscribe(fn func(Change)) (cancel func())
}

// LocalBus delivers changes to in-process handlers only.
type LocalBus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]func(Change)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]func(Change))}
}

func (b *LocalBus) Publish(_ context.Context, c Change) error {
	b.Deliver(c)
	return nil
}

// Deliver hands c to every current handler.
func (b *LocalBus) Deliver(c Change) {
	b.mu.RLock()
	handlers := make([]func(Change), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(c)
	}
}

func (b *LocalBus) Subscribe(fn func(Change)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}
