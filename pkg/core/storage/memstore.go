package storage

import (
	"bytes"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store, used by tests and the "memory"
// storage provider.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put implements Store.
func (s *MemoryStore) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[string(key)] = v
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
	return nil
}

type memBatch struct {
	puts    []KeyValue
	deletes [][]byte
}

func (b *memBatch) Put(key, value []byte) {
	k := make([]byte, len(key))
	copy(k, key)
	v := make([]byte, len(value))
	copy(v, value)
	b.puts = append(b.puts, KeyValue{Key: k, Value: v})
}

func (b *memBatch) Delete(key []byte) {
	k := make([]byte, len(key))
	copy(k, key)
	b.deletes = append(b.deletes, k)
}

// Batch implements Store.
func (s *MemoryStore) Batch() Batch { return &memBatch{} }

// PutBatch implements Store, applying all mutations atomically with
// respect to readers (under a single lock).
func (s *MemoryStore) PutBatch(b Batch) error {
	mb := b.(*memBatch)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kv := range mb.puts {
		s.data[string(kv.Key)] = kv.Value
	}
	for _, k := range mb.deletes {
		delete(s.data, string(k))
	}
	return nil
}

// Seek implements Store.
func (s *MemoryStore) Seek(prefix []byte, f func(k, v []byte) bool) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	type pair struct{ k, v []byte }
	pairs := make([]pair, len(keys))
	for i, k := range keys {
		pairs[i] = pair{[]byte(k), append([]byte{}, s.data[k]...)}
	}
	s.mu.RUnlock()
	for _, p := range pairs {
		if !f(p.k, p.v) {
			return
		}
	}
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
