// Package memory is an in-process docstore.Store. Subscribers are notified
// synchronously on the writing goroutine.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"skill-journal/internal/docstore"
)

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithoutOrdering makes every ordered query fail with docstore.ErrIndexRequired.
func WithoutOrdering() Option {
	return func(s *Store) { s.ordering = false }
}

// WithPendingWrites makes writes carrying ServerTimestamp notify twice: first with
// the timestamp pending, then resolved.
func WithPendingWrites() Option {
	return func(s *Store) { s.pendingWrites = true }
}

type record struct {
	fields docstore.Fields
	seq    int64
}

type Store struct {
	mu            sync.Mutex
	now           func() time.Time
	ordering      bool
	pendingWrites bool

	collections map[string]map[string]*record
	seq         int64
	ids         int64
	version     uint64
	subs        map[*subscription]struct{}
}

var _ docstore.Store = (*Store)(nil)

func New(opts ...Option) *Store {
	s := &Store{
		now:         time.Now,
		ordering:    true,
		collections: make(map[string]map[string]*record),
		subs:        make(map[*subscription]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Add(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.ids++
	id := "doc-" + strconv.FormatInt(s.ids, 10)
	s.mu.Unlock()

	if err := s.write(collection, id, fields, false); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.write(collection, id, fields, false)
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.write(collection, id, fields, true)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	rec, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	delete(s.collections[collection], id)
	deliveries := s.changedLocked(docstore.Change{Collection: collection, ID: id, Before: rec.fields})
	s.mu.Unlock()

	deliveries.send()
	return nil
}

func (s *Store) Doc(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return docstore.Document{}, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return docstore.Document{ID: id, Collection: collection, Fields: rec.fields.Clone()}, nil
}

func (s *Store) Get(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.check(q); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(q), nil
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	if err := s.check(q); err != nil {
		return nil, err
	}
	sub := &subscription{store: s, query: q, fn: fn}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	first := delivery{sub: sub, snap: s.snapshotLocked(q), version: s.version}
	s.mu.Unlock()

	if ctx.Done() != nil {
		sub.setStop(context.AfterFunc(ctx, sub.Unsubscribe))
	}
	first.sub.push(first.snap, first.version)
	return sub, nil
}

// Subscribers returns the number of live subscriptions.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) check(q docstore.Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if q.OrderBy != nil && !s.ordering {
		return fmt.Errorf("%s: %w", q, docstore.ErrIndexRequired)
	}
	return nil
}

func (s *Store) write(collection, id string, fields docstore.Fields, merge bool) error {
	if collection == "" || id == "" {
		return fmt.Errorf("%w: empty collection or id", docstore.ErrInvalidQuery)
	}
	pending := s.pendingWrites && docstore.HasServerTimestamps(fields)

	s.mu.Lock()
	ts := docstore.At(s.now())
	resolved := docstore.ResolveServerTimestamps(fields, ts)

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]*record)
		s.collections[collection] = coll
	}
	var before docstore.Fields
	rec, exists := coll[id]
	if merge && !exists {
		s.mu.Unlock()
		return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	if exists {
		before = rec.fields
	} else {
		s.seq++
		rec = &record{seq: s.seq}
		coll[id] = rec
	}

	var first deliveries
	if pending {
		rec.fields = s.merged(before, docstore.ResolveServerTimestamps(fields, docstore.PendingTimestamp()), merge)
		first = s.changedLocked(docstore.Change{Collection: collection, ID: id, Before: before, After: rec.fields})
	}
	final := s.merged(before, resolved, merge)
	rec.fields = final
	second := s.changedLocked(docstore.Change{Collection: collection, ID: id, Before: before, After: final})
	s.mu.Unlock()

	first.send()
	second.send()
	return nil
}

func (s *Store) merged(before, fields docstore.Fields, merge bool) docstore.Fields {
	if !merge {
		return fields.Clone()
	}
	out := before.Clone()
	for k, v := range fields.Clone() {
		out[k] = v
	}
	return out
}

type delivery struct {
	sub     *subscription
	snap    docstore.Snapshot
	version uint64
}

type deliveries []delivery

func (ds deliveries) send() {
	for _, d := range ds {
		d.sub.push(d.snap, d.version)
	}
}

func (s *Store) changedLocked(c docstore.Change) deliveries {
	s.version++
	var out deliveries
	for sub := range s.subs {
		if !c.Affects(sub.query) {
			continue
		}
		out = append(out, delivery{sub: sub, snap: s.snapshotLocked(sub.query), version: s.version})
	}
	return out
}

func (s *Store) snapshotLocked(q docstore.Query) docstore.Snapshot {
	return docstore.Snapshot{Docs: s.queryLocked(q), ReadTime: s.now()}
}

func (s *Store) queryLocked(q docstore.Query) []docstore.Document {
	coll := s.collections[q.Collection]
	type hit struct {
		doc docstore.Document
		seq int64
	}
	hits := make([]hit, 0, len(coll))
	for id, rec := range coll {
		if !q.Matches(rec.fields) {
			continue
		}
		hits = append(hits, hit{
			doc: docstore.Document{ID: id, Collection: q.Collection, Fields: rec.fields.Clone()},
			seq: rec.seq,
		})
	}
	// insertion order first so ties under OrderBy stay deterministic
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })
	docs := make([]docstore.Document, len(hits))
	for i, h := range hits {
		docs[i] = h.doc
	}
	if q.OrderBy != nil {
		docstore.SortDocuments(docs, *q.OrderBy)
	}
	return docs
}

func (s *Store) remove(sub *subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

type queued struct {
	snap    docstore.Snapshot
	version uint64
}

type subscription struct {
	store *Store
	query docstore.Query
	fn    docstore.SnapshotFunc

	closed atomic.Bool
	once   sync.Once

	stopMu sync.Mutex
	stop   func() bool // detaches the context watcher

	mu       sync.Mutex
	queue    []queued
	draining bool
	last     uint64
	started  bool
}

// push queues a snapshot and drains the queue unless another goroutine, or a
// callback further up this goroutine's stack, already is. Snapshots older than
// the last delivered one are dropped.
func (sub *subscription) push(snap docstore.Snapshot, version uint64) {
	sub.mu.Lock()
	sub.queue = append(sub.queue, queued{snap: snap, version: version})
	if sub.draining {
		sub.mu.Unlock()
		return
	}
	sub.draining = true
	for len(sub.queue) > 0 {
		item := sub.queue[0]
		sub.queue = sub.queue[1:]
		deliver := !sub.closed.Load() && (!sub.started || item.version > sub.last)
		if deliver {
			sub.started = true
			sub.last = item.version
		}
		sub.mu.Unlock()
		if deliver {
			sub.fn(item.snap, nil)
		}
		sub.mu.Lock()
	}
	sub.draining = false
	sub.mu.Unlock()
}

func (sub *subscription) setStop(stop func() bool) {
	sub.stopMu.Lock()
	sub.stop = stop
	sub.stopMu.Unlock()
	if sub.closed.Load() {
		stop()
	}
}

func (sub *subscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.closed.Store(true)
		sub.store.remove(sub)
		sub.stopMu.Lock()
		stop := sub.stop
		sub.stopMu.Unlock()
		if stop != nil {
			stop()
		}
	})
}
