package storage

import (
	"bytes"
	"sort"
	"sync"
)

// ItemState tags the relationship between a DataCache entry and its
// parent snapshot, per spec §4.B.
type ItemState byte

// Item states.
const (
	Unchanged ItemState = iota
	Added
	Changed
	Deleted
)

type cacheEntry struct {
	value []byte
	state ItemState
}

// DataCache overlays a parent Store (or another DataCache) with pending
// mutations, exposing the same read surface while tracking per-key state
// so Commit can flush only the delta back to the parent. Nested caches
// compose, which is how the block processor speculatively executes a
// transaction and rolls back on fault (spec §4.B, §4.I).
type DataCache struct {
	mu     sync.RWMutex
	parent Store
	mem    map[string]*cacheEntry
}

// NewDataCache wraps parent with a fresh, empty overlay.
func NewDataCache(parent Store) *DataCache {
	return &DataCache{parent: parent, mem: make(map[string]*cacheEntry)}
}

// Get returns the current value for key, consulting the overlay first.
func (c *DataCache) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.mem[string(key)]
	c.mu.RUnlock()
	if ok {
		if e.state == Deleted {
			return nil, ErrKeyNotFound
		}
		out := make([]byte, len(e.value))
		copy(out, e.value)
		return out, nil
	}
	return c.parent.Get(key)
}

// Put records an upsert in the overlay without touching the parent.
func (c *DataCache) Put(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Changed
	if _, err := c.parent.Get(key); err != nil {
		st = Added
	}
	if e, ok := c.mem[string(key)]; ok && e.state == Added {
		st = Added
	}
	v := make([]byte, len(value))
	copy(v, value)
	c.mem[string(key)] = &cacheEntry{value: v, state: st}
	return nil
}

// Delete records a deletion in the overlay without touching the parent.
func (c *DataCache) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.mem[string(key)]; ok && e.state == Added {
		delete(c.mem, string(key))
		return nil
	}
	c.mem[string(key)] = &cacheEntry{state: Deleted}
	return nil
}

// Batch returns a Batch that, when passed to PutBatch, applies its writes
// to the overlay (not the parent).
func (c *DataCache) Batch() Batch { return &memBatch{} }

// PutBatch applies a batch's mutations to the overlay.
func (c *DataCache) PutBatch(b Batch) error {
	mb := b.(*memBatch)
	for _, kv := range mb.puts {
		if err := c.Put(kv.Key, kv.Value); err != nil {
			return err
		}
	}
	for _, k := range mb.deletes {
		if err := c.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// Seek iterates the merged view (overlay entries shadow the parent's),
// in ascending key order.
func (c *DataCache) Seek(prefix []byte, f func(k, v []byte) bool) {
	c.mu.RLock()
	seen := make(map[string]bool)
	type pair struct{ k, v []byte }
	var fromMem []pair
	for k, e := range c.mem {
		if bytes.HasPrefix([]byte(k), prefix) {
			seen[k] = true
			if e.state != Deleted {
				fromMem = append(fromMem, pair{[]byte(k), e.value})
			}
		}
	}
	c.mu.RUnlock()
	var fromParent []pair
	c.parent.Seek(prefix, func(k, v []byte) bool {
		if !seen[string(k)] {
			fromParent = append(fromParent, pair{append([]byte{}, k...), append([]byte{}, v...)})
		}
		return true
	})
	merged := append(fromMem, fromParent...)
	sort.Slice(merged, func(i, j int) bool { return bytes.Compare(merged[i].k, merged[j].k) < 0 })
	for _, p := range merged {
		if !f(p.k, p.v) {
			return
		}
	}
}

// Close is a no-op; DataCache never owns the underlying file handles.
func (c *DataCache) Close() error { return nil }

// Commit flushes every pending delta back to the parent store atomically
// and clears the overlay.
func (c *DataCache) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.parent.Batch()
	for k, e := range c.mem {
		switch e.state {
		case Added, Changed:
			b.Put([]byte(k), e.value)
		case Deleted:
			b.Delete([]byte(k))
		}
	}
	if err := c.parent.PutBatch(b); err != nil {
		return err
	}
	c.mem = make(map[string]*cacheEntry)
	return nil
}

// State reports the ItemState of key in this overlay (Unchanged if it
// hasn't been touched).
func (c *DataCache) State(key []byte) ItemState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.mem[string(key)]; ok {
		return e.state
	}
	return Unchanged
}

// Changes calls f once per Added/Changed/Deleted key in this overlay, in
// no particular order. The state root builder uses this to know which
// keys to re-insert into or remove from the trie for a block, without
// re-deriving the diff from scratch (spec §4.C).
func (c *DataCache) Changes(f func(key, value []byte, state ItemState)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, e := range c.mem {
		if e.state == Unchanged {
			continue
		}
		f([]byte(k), e.value, e.state)
	}
}
