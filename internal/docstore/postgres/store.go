// Package postgres stores documents as JSONB rows of a single table and serves
// live queries by re-reading on every change published through a docstore.Bus.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"skill-journal/internal/database"
	"skill-journal/internal/docstore"
)

const table = "documents"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Option func(*Store)

// WithOrderableFields sets the timestamp fields ordered queries may use.
func WithOrderableFields(fields ...string) Option {
	return func(s *Store) {
		s.orderable = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			s.orderable[f] = struct{}{}
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

type Store struct {
	db        database.Querier
	bus       docstore.Bus
	log       *slog.Logger
	now       func() time.Time
	newID     func() string
	orderable map[string]struct{}

	stopBus func()

	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

var _ docstore.Store = (*Store)(nil)

func New(db database.Querier, bus docstore.Bus, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		db:        db,
		bus:       bus,
		log:       logger.With(slog.String("component", "docstore.postgres")),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
		orderable: map[string]struct{}{"createdAt": {}},
		subs:      make(map[*subscription]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stopBus = bus.Subscribe(s.onChange)
	return s
}

func (s *Store) Add(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	id := s.newID()
	now := s.now().UTC()
	resolved := docstore.ResolveServerTimestamps(fields, docstore.At(now))
	data, err := docstore.EncodeFields(resolved)
	if err != nil {
		return "", err
	}

	query, args, err := psql.Insert(table).
		Columns("collection", "id", "data", "created_at", "updated_at").
		Values(collection, id, data, now, now).
		ToSql()
	if err != nil {
		return "", err
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}

	s.publish(ctx, docstore.Change{Collection: collection, ID: id, After: docstore.Digest(resolved)})
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	now := s.now().UTC()
	resolved := docstore.ResolveServerTimestamps(fields, docstore.At(now))
	data, err := docstore.EncodeFields(resolved)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert(table).
		Columns("collection", "id", "data", "created_at", "updated_at").
		Values(collection, id, data, now, now).
		Suffix("ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}

	s.publish(ctx, docstore.Change{Collection: collection, ID: id, After: docstore.Digest(resolved)})
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	now := s.now().UTC()
	patch, err := docstore.EncodeFields(docstore.ResolveServerTimestamps(fields, docstore.At(now)))
	if err != nil {
		return err
	}

	query, args, err := psql.Update(table).
		Set("data", sq.Expr("data || ?::jsonb", patch)).
		Set("updated_at", now).
		Where(sq.Eq{"collection": collection, "id": id}).
		Suffix("RETURNING data").
		ToSql()
	if err != nil {
		return err
	}

	var raw []byte
	if err := s.db.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
		}
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	after, err := docstore.DecodeFields(raw)
	if err != nil {
		return err
	}

	s.publish(ctx, docstore.Change{Collection: collection, ID: id, After: docstore.Digest(after)})
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	query, args, err := psql.Delete(table).
		Where(sq.Eq{"collection": collection, "id": id}).
		Suffix("RETURNING data").
		ToSql()
	if err != nil {
		return err
	}

	var raw []byte
	if err := s.db.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
		}
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	before, err := docstore.DecodeFields(raw)
	if err != nil {
		return err
	}

	s.publish(ctx, docstore.Change{Collection: collection, ID: id, Before: docstore.Digest(before)})
	return nil
}

func (s *Store) Doc(ctx context.Context, collection, id string) (docstore.Document, error) {
	query, args, err := psql.Select("data").
		From(table).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return docstore.Document{}, err
	}

	var raw []byte
	if err := s.db.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.Document{}, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
		}
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	fields, err := docstore.DecodeFields(raw)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Collection: collection, Fields: fields}, nil
}

func (s *Store) Get(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := s.check(q); err != nil {
		return nil, err
	}

	b := psql.Select("id", "data").From(table).Where(sq.Eq{"collection": q.Collection})
	if len(q.Filters) > 0 {
		contains := make(docstore.Fields, len(q.Filters))
		for _, f := range q.Filters {
			contains[f.Field] = f.Value
		}
		raw, err := docstore.EncodeFields(contains)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", docstore.ErrInvalidQuery, err)
		}
		b = b.Where(sq.Expr("data @> ?::jsonb", raw))
	}
	if o := q.OrderBy; o != nil {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		// ServerTimestamp values are resolved on write, so the only states left
		// are resolved and absent. Absent sorts last both ways.
		b = b.OrderByClause(fmt.Sprintf("data -> ? ->> '%s' %s NULLS LAST", docstore.TimestampKey, dir), o.Field)
	}
	b = b.OrderBy("created_at ASC", "id ASC")

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q, err)
	}
	defer rows.Close()

	out := make([]docstore.Document, 0)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		fields, err := docstore.DecodeFields(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, docstore.Document{ID: id, Collection: q.Collection, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	if err := s.check(q); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		store:  s,
		query:  q,
		fn:     fn,
		kick:   make(chan struct{}, 1),
		cancel: cancel,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return nil, docstore.ErrClosed
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	sub.notify()
	go sub.run(subCtx)
	return sub, nil
}

// Close ends every subscription and detaches from the bus.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	s.stopBus()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (s *Store) check(q docstore.Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if q.OrderBy != nil {
		if _, ok := s.orderable[q.OrderBy.Field]; !ok {
			return fmt.Errorf("%s: %w", q, docstore.ErrIndexRequired)
		}
	}
	return nil
}

// publish reports a committed write. The write already succeeded, so a bus
// failure is logged rather than returned.
func (s *Store) publish(ctx context.Context, c docstore.Change) {
	if err := s.bus.Publish(ctx, c); err != nil {
		s.log.Warn("publish change failed",
			slog.String("collection", c.Collection),
			slog.String("id", c.ID),
			slog.Any("error", err),
		)
	}
}

func (s *Store) onChange(c docstore.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		if c.Affects(sub.query) {
			sub.notify()
		}
	}
}

func (s *Store) remove(sub *subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

type subscription struct {
	store  *Store
	query  docstore.Query
	fn     docstore.SnapshotFunc
	kick   chan struct{}
	cancel context.CancelFunc
	closed atomic.Bool
	once   sync.Once
}

// notify requests a re-read. Requests arriving while one is pending coalesce.
func (sub *subscription) notify() {
	select {
	case sub.kick <- struct{}{}:
	default:
	}
}

func (sub *subscription) run(ctx context.Context) {
	defer sub.store.remove(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.kick:
		}

		docs, err := sub.store.Get(ctx, sub.query)
		if ctx.Err() != nil || sub.closed.Load() {
			return
		}
		if err != nil {
			sub.fn(docstore.Snapshot{}, err)
			continue
		}
		sub.fn(docstore.Snapshot{Docs: docs, ReadTime: sub.store.now()}, nil)
	}
}

func (sub *subscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.closed.Store(true)
		sub.cancel()
		sub.store.remove(sub)
	})
}
