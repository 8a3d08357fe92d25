package store

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/charmbracelet/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// firestoreStore backs the Store interface with Cloud Firestore.
type firestoreStore struct {
	client *firestore.Client
}

var _ Store = (*firestoreStore)(nil)

// NewFirestore connects to Firestore for the given project. When
// FIRESTORE_EMULATOR_HOST is set the client skips authentication and talks
// to the local emulator instead.
func NewFirestore(ctx context.Context, projectID string) (Store, error) {
	var opts []option.ClientOption
	if os.Getenv("FIRESTORE_EMULATOR_HOST") != "" {
		opts = append(opts, option.WithoutAuthentication())
		log.Info("Connecting to Firestore emulator", "host", os.Getenv("FIRESTORE_EMULATOR_HOST"))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to firestore: %w", err)
	}
	return &firestoreStore{client: client}, nil
}

func (s *firestoreStore) Get(ctx context.Context, collection, id string) (*Doc, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Doc{Collection: collection, ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *firestoreStore) Query(ctx context.Context, collection string, filters ...Filter) ([]*Doc, error) {
	q := s.buildQuery(collection, filters)
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return snapsToDocs(collection, snaps), nil
}

func (s *firestoreStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, data, firestore.MergeAll)
	return err
}

func (s *firestoreStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		return fn(&firestoreTx{store: s, ctx: ctx, tx: ftx})
	})
}

func (s *firestoreStore) Close() error {
	return s.client.Close()
}

func (s *firestoreStore) buildQuery(collection string, filters []Filter) firestore.Query {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Path, f.Op, f.Value)
	}
	return q
}

// firestoreTx adapts a native Firestore transaction to the Tx interface.
// Firestore requires all reads before the first write; callers follow the
// read-set, validate, write-set protocol so this holds by construction.
type firestoreTx struct {
	store *firestoreStore
	ctx   context.Context
	tx    *firestore.Transaction
}

func (t *firestoreTx) Get(_ context.Context, collection, id string) (*Doc, error) {
	snap, err := t.tx.Get(t.store.client.Collection(collection).Doc(id))
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Doc{Collection: collection, ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (t *firestoreTx) Query(_ context.Context, collection string, filters ...Filter) ([]*Doc, error) {
	snaps, err := t.tx.Documents(t.store.buildQuery(collection, filters)).GetAll()
	if err != nil {
		return nil, err
	}
	return snapsToDocs(collection, snaps), nil
}

func (t *firestoreTx) Set(collection, id string, data map[string]any) error {
	return t.tx.Set(t.store.client.Collection(collection).Doc(id), data, firestore.MergeAll)
}

func snapsToDocs(collection string, snaps []*firestore.DocumentSnapshot) []*Doc {
	docs := make([]*Doc, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, &Doc{Collection: collection, ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs
}
