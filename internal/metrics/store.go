package metrics

import (
	"context"
	"errors"
	"sync"

	"skill-journal/internal/docstore"
)

// InstrumentStore counts write failures, open subscriptions and delivered
// snapshots of store.
func InstrumentStore(store docstore.Store, rec Recorder) docstore.Store {
	if rec == nil {
		return store
	}
	return &instrumentedStore{Store: store, rec: rec}
}

type instrumentedStore struct {
	docstore.Store
	rec Recorder
}

func (s *instrumentedStore) Add(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	id, err := s.Store.Add(ctx, collection, fields)
	s.failed("add", err)
	return id, err
}

func (s *instrumentedStore) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	err := s.Store.Set(ctx, collection, id, fields)
	s.failed("set", err)
	return err
}

func (s *instrumentedStore) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	err := s.Store.Update(ctx, collection, id, fields)
	s.failed("update", err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, collection, id string) error {
	err := s.Store.Delete(ctx, collection, id)
	s.failed("delete", err)
	return err
}

func (s *instrumentedStore) Subscribe(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	sub, err := s.Store.Subscribe(ctx, q, func(snap docstore.Snapshot, err error) {
		if err == nil {
			s.rec.SnapshotDelivered(q.Collection)
		}
		fn(snap, err)
	})
	if err != nil {
		return nil, err
	}
	s.rec.SubscriptionOpened()

	var once sync.Once
	return docstore.SubscriptionFunc(func() {
		once.Do(func() {
			sub.Unsubscribe()
			s.rec.SubscriptionClosed()
		})
	}), nil
}

// Not-found is a caller mistake, not a store failure.
func (s *instrumentedStore) failed(op string, err error) {
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		s.rec.WriteFailed(op)
	}
}
