// Package docstore defines the schema-less document store the journal is built on:
// collections of documents keyed by opaque ids, equality-filtered queries and live
// subscriptions that always deliver full snapshots.
package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrIndexRequired = errors.New("query requires an index")
	ErrInvalidQuery  = errors.New("invalid query")
	ErrClosed        = errors.New("store closed")
)

type Document struct {
	ID         string
	Collection string
	Fields     Fields
}

type Snapshot struct {
	Docs     []Document
	ReadTime time.Time
}

// SnapshotFunc receives either a full snapshot or the error of a failed read.
// A failed read does not end the subscription.
type SnapshotFunc func(Snapshot, error)

type Subscription interface {
	// Unsubscribe releases the subscription. It is safe to call more than once.
	Unsubscribe()
}

type Store interface {
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	Set(ctx context.Context, collection, id string, fields Fields) error
	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
	Doc(ctx context.Context, collection, id string) (Document, error)
	Get(ctx context.Context, q Query) ([]Document, error)
	// Subscribe delivers the current result of q and a new full result after every
	// change that may affect it, until Unsubscribe is called or ctx is done.
	Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (Subscription, error)
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }
