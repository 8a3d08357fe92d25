package store

import (
	"context"
	"reflect"
	"sync"
)

// Memory is an in-memory Store used by tests and local dry runs. It is safe
// for concurrent use. Transactions take the store lock for their whole
// duration and buffer writes until the closure succeeds, so a failed
// validation leaves no mutation behind.
type Memory struct {
	mu   sync.RWMutex
	docs map[Key]map[string]any

	// SetCalls records every top-level Set for assertion in tests.
	// Transactional writes are recorded in TxSetCalls.
	SetCalls   []Key
	TxSetCalls []Key
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[Key]map[string]any)}
}

// Seed merge-writes a document, bypassing call records. Re-seeding an
// existing document overrides the given fields and keeps the rest, the same
// way a merge Set does.
func (m *Memory) Seed(collection, id string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(collection, id, data)
}

func (m *Memory) Get(_ context.Context, collection, id string) (*Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(collection, id)
}

func (m *Memory) Query(_ context.Context, collection string, filters ...Filter) ([]*Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.query(collection, filters), nil
}

func (m *Memory) Set(_ context.Context, collection, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls = append(m.SetCalls, Key{collection, id})
	m.set(collection, id, data)
	return nil
}

func (m *Memory) RunTransaction(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memoryTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}
	for _, w := range tx.writes {
		m.TxSetCalls = append(m.TxSetCalls, Key{w.collection, w.id})
		m.set(w.collection, w.id, w.data)
	}
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) get(collection, id string) (*Doc, error) {
	data, ok := m.docs[Key{collection, id}]
	if !ok {
		return nil, ErrNotFound
	}
	return &Doc{Collection: collection, ID: id, Data: cloneMap(data)}, nil
}

func (m *Memory) query(collection string, filters []Filter) []*Doc {
	var out []*Doc
	for key, data := range m.docs {
		if key.Collection != collection {
			continue
		}
		if matchesAll(data, filters) {
			out = append(out, &Doc{Collection: collection, ID: key.ID, Data: cloneMap(data)})
		}
	}
	return out
}

func (m *Memory) set(collection, id string, data map[string]any) {
	key := Key{collection, id}
	existing, ok := m.docs[key]
	if !ok {
		m.docs[key] = cloneMap(data)
		return
	}
	mergeInto(existing, data)
}

type bufferedWrite struct {
	collection string
	id         string
	data       map[string]any
}

// memoryTx reads through to the locked store and buffers writes. Reads do
// not observe the transaction's own buffered writes, matching the backing
// store's read-before-write discipline.
type memoryTx struct {
	store  *Memory
	writes []bufferedWrite
}

func (t *memoryTx) Get(_ context.Context, collection, id string) (*Doc, error) {
	return t.store.get(collection, id)
}

func (t *memoryTx) Query(_ context.Context, collection string, filters ...Filter) ([]*Doc, error) {
	return t.store.query(collection, filters), nil
}

func (t *memoryTx) Set(collection, id string, data map[string]any) error {
	t.writes = append(t.writes, bufferedWrite{collection, id, cloneMap(data)})
	return nil
}

func matchesAll(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !matches(data, f) {
			return false
		}
	}
	return true
}

func matches(data map[string]any, f Filter) bool {
	value, ok := data[f.Path]
	if !ok {
		return false
	}
	switch f.Op {
	case OpEqual:
		return reflect.DeepEqual(value, f.Value)
	case OpArrayContains:
		items, ok := value.([]any)
		if !ok {
			// Tolerate seeds that use typed string slices.
			if strs, ok := value.([]string); ok {
				for _, s := range strs {
					if reflect.DeepEqual(s, f.Value) {
						return true
					}
				}
			}
			return false
		}
		for _, item := range items {
			if reflect.DeepEqual(item, f.Value) {
				return true
			}
		}
		return false
	}
	return false
}

// mergeInto applies src over dst, merging nested maps the way a MergeAll
// write does. Arrays replace wholesale.
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				mergeInto(dstMap, cloneMap(srcMap))
				continue
			}
		}
		dst[k] = cloneValue(v)
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
