// Package addrmgr tracks known peer addresses for cold-start discovery,
// persisting them to the node's store and deduplicating via a murmur3
// hash of the address string (spec §4.K "Peer manager").
package addrmgr

import (
	"sort"
	"sync"
	"time"

	"github.com/twmb/murmur3"

	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/network/payload"
)

// entry is one address manager record: the last time it was announced
// and whether a recent connection attempt succeeded.
type entry struct {
	addr       payload.AddrEntry
	lastSeen   time.Time
	lastTried  time.Time
	lastSucc   time.Time
	attempts   int
}

// Manager deduplicates and persists peer addresses. Safe for concurrent use.
type Manager struct {
	store storage.Store

	mu      sync.RWMutex
	entries map[uint32]*entry // keyed by murmur3 hash of Address
}

// New constructs a Manager backed by store, loading any addresses
// persisted by a previous run.
func New(store storage.Store) *Manager {
	m := &Manager{store: store, entries: map[uint32]*entry{}}
	m.load()
	return m
}

func addrKey(address string) uint32 {
	return murmur3.SeedSum32(0, []byte(address))
}

func (m *Manager) load() {
	if m.store == nil {
		return
	}
	m.store.Seek(storage.DataPeerAddr.Bytes(), func(_, v []byte) bool {
		r := io.NewBinReaderFromBuf(v)
		var a payload.AddrEntry
		a.DecodeBinary(r)
		if r.Err == nil {
			m.entries[addrKey(a.Address)] = &entry{addr: a, lastSeen: time.Unix(int64(a.Timestamp), 0)}
		}
		return true
	})
}

// Add records address as known, refreshing its timestamp if already
// present. Returns true if this is a newly seen address.
func (m *Manager) Add(a payload.AddrEntry) bool {
	key := addrKey(a.Address)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.addr = a
	e.lastSeen = time.Now()
	m.persist(a)
	return !ok
}

func (m *Manager) persist(a payload.AddrEntry) {
	if m.store == nil {
		return
	}
	w := io.NewBufBinWriter()
	a.EncodeBinary(w.BinWriter)
	if w.Err == nil {
		_ = m.store.Put(storage.AppendPrefix(storage.DataPeerAddr, u32Bytes(addrKey(a.Address))), w.Bytes())
	}
}

func u32Bytes(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// MarkTried records a connection attempt to address, successful or not.
func (m *Manager) MarkTried(address string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[addrKey(address)]
	if !ok {
		return
	}
	e.lastTried = time.Now()
	e.attempts++
	if success {
		e.lastSucc = time.Now()
		e.attempts = 0
	}
}

// Remove drops an address permanently, from memory and from the store.
func (m *Manager) Remove(address string) {
	key := addrKey(address)
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	if m.store != nil {
		_ = m.store.Delete(storage.AppendPrefix(storage.DataPeerAddr, u32Bytes(key)))
	}
}

// Count returns the number of known addresses.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// GoodAddresses returns up to n addresses that have failed at most 3
// consecutive connection attempts since their last success (or have
// never been tried), most recently seen first, suitable for GetAddr
// responses and cold-start dialing.
func (m *Manager) GoodAddresses(n int) []payload.AddrEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	good := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.attempts > 3 {
			continue
		}
		good = append(good, e)
	}
	sort.Slice(good, func(i, j int) bool { return good[i].lastSeen.After(good[j].lastSeen) })
	out := make([]payload.AddrEntry, 0, n)
	for _, e := range good {
		if len(out) >= n {
			break
		}
		out = append(out, e.addr)
	}
	return out
}
