// Package journal keeps live, decoded lists of a user's skills and progress
// entries in sync with the document store and exposes the writes a client makes.
package journal

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"skill-journal/internal/docstore"
	"skill-journal/internal/domain/skill"
)

var (
	ErrClosed         = errors.New("entity store closed")
	ErrAlreadyStarted = errors.New("entity store already started")
)

// EntityStore mirrors the result of one owner-scoped query as a list of decoded
// entities, newest first.
type EntityStore[T any] struct {
	store     docstore.Store
	query     docstore.Query
	decode    func(docstore.Document) (T, error)
	createdAt func(T) docstore.Timestamp
	log       *slog.Logger

	mu        sync.Mutex
	items     []T
	sub       docstore.Subscription
	started   bool
	closed    bool
	listeners map[int]func([]T)
	next      int
}

func newEntityStore[T any](
	store docstore.Store,
	query docstore.Query,
	decode func(docstore.Document) (T, error),
	createdAt func(T) docstore.Timestamp,
	logger *slog.Logger,
) *EntityStore[T] {
	return &EntityStore[T]{
		store:     store,
		query:     query.Unordered(),
		decode:    decode,
		createdAt: createdAt,
		log:       logger.With(slog.String("query", query.String())),
		items:     make([]T, 0),
		listeners: make(map[int]func([]T)),
	}
}

// Start opens the live subscription. When the store cannot order by creation
// time it falls back to an unordered subscription sorted locally.
func (s *EntityStore[T]) Start(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.started:
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	sub, err := s.store.Subscribe(ctx, s.query.Ordered(skill.FieldCreatedAt, true), s.receive(false))
	if errors.Is(err, docstore.ErrIndexRequired) {
		s.log.Info("ordered query unavailable, sorting locally")
		sub, err = s.store.Subscribe(ctx, s.query, s.receive(true))
	}
	if err != nil {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		s.log.Error("subscribe failed", slog.Any("error", err))
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()
		return ErrClosed
	}
	s.sub = sub
	s.mu.Unlock()
	return nil
}

func (s *EntityStore[T]) receive(sortLocally bool) docstore.SnapshotFunc {
	return func(snap docstore.Snapshot, err error) {
		if err != nil {
			s.log.Warn("snapshot failed, keeping last list", slog.Any("error", err))
			return
		}
		items := s.decodeAll(snap.Docs)
		if sortLocally {
			s.sortNewestFirst(items)
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.items = items
		listeners := make([]func([]T), 0, len(s.listeners))
		for _, fn := range s.listeners {
			listeners = append(listeners, fn)
		}
		s.mu.Unlock()

		for _, fn := range listeners {
			fn(copyItems(items))
		}
	}
}

func (s *EntityStore[T]) decodeAll(docs []docstore.Document) []T {
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := s.decode(doc)
		if err != nil {
			s.log.Warn("skip document", slog.String("id", doc.ID), slog.Any("error", err))
			continue
		}
		items = append(items, item)
	}
	return items
}

// sortNewestFirst orders by creation time descending: pending first, absent last.
func (s *EntityStore[T]) sortNewestFirst(items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return docstore.CompareTimestamps(s.createdAt(items[i]), s.createdAt(items[j])) > 0
	})
}

// Items returns a copy of the current list.
func (s *EntityStore[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyItems(s.items)
}

// OnChange registers fn to receive every new list.
func (s *EntityStore[T]) OnChange(fn func([]T)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close releases the subscription. Later calls do nothing.
func (s *EntityStore[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sub := s.sub
	s.sub = nil
	s.listeners = make(map[int]func([]T))
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// Fetch reads the query once with the same ordering rules as Start.
func (s *EntityStore[T]) Fetch(ctx context.Context) ([]T, error) {
	docs, err := s.store.Get(ctx, s.query.Ordered(skill.FieldCreatedAt, true))
	sortLocally := false
	if errors.Is(err, docstore.ErrIndexRequired) {
		docs, err = s.store.Get(ctx, s.query)
		sortLocally = true
	}
	if err != nil {
		return nil, err
	}
	items := s.decodeAll(docs)
	if sortLocally {
		s.sortNewestFirst(items)
	}
	return items, nil
}

func copyItems[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
