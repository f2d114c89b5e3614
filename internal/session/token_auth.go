package session

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var ErrNoToken = errors.New("no token")

// VerifyFunc turns an access token into an identity.
type VerifyFunc func(ctx context.Context, token string) (Identity, error)

// TokenAuth is an AuthClient driven by bearer tokens presented by a remote
// client, such as a WebSocket connection.
type TokenAuth struct {
	verify VerifyFunc

	mu        sync.Mutex
	listeners map[int]func(*Identity)
	next      int
	current   *Identity
	resolved  bool
}

var _ AuthClient = (*TokenAuth)(nil)

func NewTokenAuth(verify VerifyFunc) *TokenAuth {
	return &TokenAuth{verify: verify, listeners: make(map[int]func(*Identity))}
}

// Resolve verifies token and publishes the result. Any failure publishes a
// signed-out state.
func (a *TokenAuth) Resolve(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		a.emit(nil)
		return Identity{}, ErrNoToken
	}
	id, err := a.verify(ctx, token)
	if err != nil {
		a.emit(nil)
		return Identity{}, err
	}
	a.emit(&id)
	return id, nil
}

func (a *TokenAuth) SignOut(context.Context) error {
	a.emit(nil)
	return nil
}

// OnAuthStateChanged calls fn right away when a state has already been resolved.
func (a *TokenAuth) OnAuthStateChanged(fn func(*Identity)) func() {
	a.mu.Lock()
	id := a.next
	a.next++
	a.listeners[id] = fn
	resolved, current := a.resolved, clone(a.current)
	a.mu.Unlock()

	if resolved {
		fn(current)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.listeners, id)
			a.mu.Unlock()
		})
	}
}

func (a *TokenAuth) emit(id *Identity) {
	a.mu.Lock()
	a.resolved = true
	a.current = clone(id)
	listeners := make([]func(*Identity), 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(clone(id))
	}
}
