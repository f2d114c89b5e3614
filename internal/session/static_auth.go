package session

import (
	"context"
	"sync"
)

// StaticAuth reports one fixed identity, for command line tools and tests.
type StaticAuth struct {
	mu      sync.Mutex
	current *Identity
	fns     map[int]func(*Identity)
	next    int
}

var _ AuthClient = (*StaticAuth)(nil)

func NewStaticAuth(id *Identity) *StaticAuth {
	return &StaticAuth{current: clone(id), fns: make(map[int]func(*Identity))}
}

func (a *StaticAuth) OnAuthStateChanged(fn func(*Identity)) func() {
	a.mu.Lock()
	key := a.next
	a.next++
	a.fns[key] = fn
	current := clone(a.current)
	a.mu.Unlock()

	fn(current)
	return func() {
		a.mu.Lock()
		delete(a.fns, key)
		a.mu.Unlock()
	}
}

func (a *StaticAuth) SignOut(context.Context) error {
	a.mu.Lock()
	a.current = nil
	fns := make([]func(*Identity), 0, len(a.fns))
	for _, fn := range a.fns {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(nil)
	}
	return nil
}
