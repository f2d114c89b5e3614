// Package session tracks who is signed in and tells dependents when that changes.
package session

import (
	"context"
	"log/slog"
	"sync"
)

type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}

// AuthClient is the source of authentication state. OnAuthStateChanged calls fn
// with the signed-in identity, or nil when signed out, each time it changes.
type AuthClient interface {
	OnAuthStateChanged(fn func(*Identity)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// Provider holds the current identity. Only the auth client's callbacks and a
// successful Logout change it; subscribers see every change in order.
type Provider struct {
	client AuthClient
	log    *slog.Logger
	stop   func()

	mu       sync.Mutex
	current  *Identity
	loading  bool
	subs     map[int]func(*Identity)
	nextSub  int
	pending  []*Identity
	draining bool
	closed   bool
}

func NewProvider(client AuthClient, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{
		client:  client,
		log:     logger.With(slog.String("component", "session")),
		loading: true,
		subs:    make(map[int]func(*Identity)),
	}
	stop := client.OnAuthStateChanged(p.set)
	p.mu.Lock()
	p.stop = stop
	p.mu.Unlock()
	return p
}

// Current returns the signed-in identity; ok is false while signed out or loading.
func (p *Provider) Current() (Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Identity{}, false
	}
	return *p.current, true
}

// Loading is true until the auth client has reported its first state.
func (p *Provider) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Subscribe registers fn for future changes. It is not called with the
// current state.
func (p *Provider) Subscribe(fn func(*Identity)) (cancel func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// Logout signs out through the auth client. A failure is logged and the
// identity is kept.
func (p *Provider) Logout(ctx context.Context) {
	if err := p.client.SignOut(ctx); err != nil {
		p.log.Error("sign out failed", slog.Any("error", err))
		return
	}
	p.set(nil)
}

// Close detaches from the auth client and drops all subscribers.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	stop := p.stop
	p.subs = make(map[int]func(*Identity))
	p.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (p *Provider) set(id *Identity) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	changed := p.loading || !sameIdentity(p.current, id)
	p.loading = false
	p.current = clone(id)
	if !changed {
		p.mu.Unlock()
		return
	}

	p.pending = append(p.pending, clone(id))
	if p.draining {
		p.mu.Unlock()
		return
	}
	p.draining = true
	for len(p.pending) > 0 {
		next := p.pending[0]
		p.pending = p.pending[1:]
		subs := make([]func(*Identity), 0, len(p.subs))
		for _, fn := range p.subs {
			subs = append(subs, fn)
		}
		p.mu.Unlock()

		for _, fn := range subs {
			fn(clone(next))
		}

		p.mu.Lock()
	}
	p.draining = false
	p.mu.Unlock()
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clone(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
