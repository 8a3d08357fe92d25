package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document exists under the given id.
var ErrNotFound = errors.New("store: document not found")

// Reader is the read-only slice of the store, shared by direct access and
// transactional access.
type Reader interface {
	// Get fetches a single document by id. Returns ErrNotFound if missing.
	Get(ctx context.Context, collection, id string) (*Doc, error)
	// Query returns all documents in a collection matching every filter.
	Query(ctx context.Context, collection string, filters ...Filter) ([]*Doc, error)
}

// Tx is the view of the store inside a transaction. All reads must be issued
// before the first write; the transactor validates invariants between the two
// phases and the backing store retries the whole closure on contention.
type Tx interface {
	Reader
	// Set merge-writes fields into the document, creating it if absent.
	Set(collection, id string, data map[string]any) error
}

// Store is an opaque document store. Implementations: Firestore (production)
// and Memory (tests, seeder dry runs).
type Store interface {
	Reader
	// Set merge-writes fields into the document, creating it if absent.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// RunTransaction executes fn atomically. fn may be invoked more than once
	// if the store retries on contention, so it must be side-effect free
	// outside of tx.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
