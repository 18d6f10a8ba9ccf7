// Package taskmanager tracks outstanding GetData requests across all
// peers, deduplicating fetches for the same inventory hash and
// reissuing a request to another peer on timeout (spec §4.K "Task
// manager").
package taskmanager

import (
	"sync"
	"time"

	"github.com/n3-core/node/pkg/network/payload"
	"github.com/n3-core/node/pkg/util"
)

// DefaultRequestTimeout is how long a GetData request waits for its
// matching Transaction/Block/NotFound before being considered stale.
const DefaultRequestTimeout = 15 * time.Second

// request is one outstanding fetch for a single inventory hash.
type request struct {
	invType   payload.InventoryType
	peer      string
	issuedAt  time.Time
	tried     map[string]bool // peers already asked, to avoid re-asking the same one
}

// Reissuer is called when a request times out; it must pick a peer
// other than exclude (if possible) and send it a GetData, returning the
// peer address actually used, or "" if none was available.
type Reissuer func(invType payload.InventoryType, hash util.Uint256, exclude map[string]bool) string

// Manager is the single global outstanding-request index plus the
// per-request retry timer sweep.
type Manager struct {
	timeout  time.Duration
	reissue  Reissuer

	mu       sync.Mutex
	pending  map[util.Uint256]*request

	stop chan struct{}
	done chan struct{}
}

// New constructs a Manager. reissue may be nil in tests that only
// exercise bookkeeping.
func New(timeout time.Duration, reissue Reissuer) *Manager {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Manager{
		timeout: timeout,
		reissue: reissue,
		pending: map[util.Uint256]*request{},
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run sweeps for timed-out requests every timeout/2 until Stop is called.
func (m *Manager) Run() {
	defer close(m.done)
	ticker := time.NewTicker(m.timeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

// Stop halts the sweep goroutine and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}

// RequestedByOther reports whether hash already has an outstanding
// request (from any peer), so the caller can skip issuing its own.
func (m *Manager) RequestedByOther(hash util.Uint256) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[hash]
	return ok
}

// MarkRequested records that peer was just sent a GetData for
// (invType, hash).
func (m *Manager) MarkRequested(invType payload.InventoryType, hash util.Uint256, peer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.pending[hash]
	if !ok {
		r = &request{invType: invType, tried: map[string]bool{}}
		m.pending[hash] = r
	}
	r.peer = peer
	r.issuedAt = time.Now()
	r.tried[peer] = true
}

// Fulfill clears hash's outstanding request once the item (Transaction,
// Block or NotFound) has arrived.
func (m *Manager) Fulfill(hash util.Uint256) {
	m.mu.Lock()
	delete(m.pending, hash)
	m.mu.Unlock()
}

// Pending returns the number of outstanding requests, for metrics/diagnostics.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manager) sweep() {
	m.mu.Lock()
	now := time.Now()
	var expired []util.Uint256
	for h, r := range m.pending {
		if now.Sub(r.issuedAt) >= m.timeout {
			expired = append(expired, h)
		}
	}
	m.mu.Unlock()

	for _, h := range expired {
		m.mu.Lock()
		r, ok := m.pending[h]
		if !ok {
			m.mu.Unlock()
			continue
		}
		invType := r.invType
		tried := r.tried
		m.mu.Unlock()

		if m.reissue == nil {
			continue
		}
		peer := m.reissue(invType, h, tried)
		if peer == "" {
			continue
		}
		m.MarkRequested(invType, h, peer)
	}
}
