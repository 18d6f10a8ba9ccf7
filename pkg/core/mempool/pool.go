// Package mempool implements a priority-ordered, bounded transaction
// pool: admission, conflict tracking, and block-candidate selection
// (spec §4.H).
package mempool

import (
	"container/heap"
	"errors"
	"sync"

	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/util"
)

// Result is the outcome of an admission attempt, the same vocabulary
// block/transaction verification reports (spec §4.G "Result").
type Result byte

// Results.
const (
	Succeed Result = iota
	Expired
	AlreadyExists
	InvalidSignature
	InsufficientFunds
	PolicyFail
	InvalidAttribute
	InvalidScript
	InvalidWitness
	InvalidSize
	InsufficientNetworkFee
	InsufficientSystemFee
	Unknown
)

// String renders a Result's name, for logging and RPC error data.
func (r Result) String() string {
	switch r {
	case Succeed:
		return "Succeed"
	case Expired:
		return "Expired"
	case AlreadyExists:
		return "AlreadyExists"
	case InvalidSignature:
		return "InvalidSignature"
	case InsufficientFunds:
		return "InsufficientFunds"
	case PolicyFail:
		return "PolicyFail"
	case InvalidAttribute:
		return "InvalidAttribute"
	case InvalidScript:
		return "InvalidScript"
	case InvalidWitness:
		return "InvalidWitness"
	case InvalidSize:
		return "InvalidSize"
	case InsufficientNetworkFee:
		return "InsufficientNetworkFee"
	case InsufficientSystemFee:
		return "InsufficientSystemFee"
	default:
		return "Unknown"
	}
}

// ErrConflict is returned by Add when tx collides with a pooled
// transaction via the Conflicts attribute and loses priority to it.
var ErrConflict = errors.New("mempool: conflicts with a higher-priority pooled transaction")

// ErrFull is returned by Add when the pool is at capacity and tx does
// not outrank the item it would have to evict.
var ErrFull = errors.New("mempool: pool is full and the new transaction does not outrank its lowest entry")

type item struct {
	tx       *transaction.Transaction
	arrival  uint64
	heapIdx  int
}

func highPriority(tx *transaction.Transaction) bool {
	for _, a := range tx.Attributes {
		if a.Type == transaction.HighPriorityT {
			return true
		}
	}
	return false
}

// less implements the ordering key (spec §4.H): HighPriority first,
// then fee-per-byte, then total fee, then earliest arrival, all
// descending except arrival which breaks ties in FIFO order.
func less(a, b *item) bool {
	ap, bp := highPriority(a.tx), highPriority(b.tx)
	if ap != bp {
		return ap
	}
	afpb := float64(a.tx.NetworkFee) / float64(a.tx.Size())
	bfpb := float64(b.tx.NetworkFee) / float64(b.tx.Size())
	if afpb != bfpb {
		return afpb > bfpb
	}
	at := a.tx.SystemFee + a.tx.NetworkFee
	bt := b.tx.SystemFee + b.tx.NetworkFee
	if at != bt {
		return at > bt
	}
	return a.arrival < b.arrival
}

// priorityHeap is a max-heap ordered by less: Pop yields the
// lowest-priority item, so eviction is a single Pop.
type priorityHeap []*item

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool { return less(h[j], h[i]) } // inverted: Pop = worst
func (h priorityHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx, h[j].heapIdx = i, j
}
func (h *priorityHeap) Push(x interface{}) {
	it := x.(*item)
	it.heapIdx = len(*h)
	*h = append(*h, it)
}
func (h *priorityHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Pool is a mutex-guarded, bounded, priority-ordered transaction pool.
type Pool struct {
	mu       sync.Mutex
	capacity int
	byHash   map[util.Uint256]*item
	heap     priorityHeap
	arrival  uint64

	conflicts map[util.Uint256]util.Uint256 // conflicting tx hash -> hash it conflicts with
	senderFee map[util.Uint160]int64        // verification_context: cumulative system_fee per sender
}

// New constructs an empty Pool bounded at capacity entries.
func New(capacity int) *Pool {
	return &Pool{
		capacity:  capacity,
		byHash:    make(map[util.Uint256]*item),
		conflicts: make(map[util.Uint256]util.Uint256),
		senderFee: make(map[util.Uint160]int64),
	}
}

// Verifier checks tx against ledger/policy rules outside the pool's own
// bookkeeping (balance, witness, size limits); Add calls it before
// admission (spec §4.G "verification rules", §4.H "add(tx) — verifies").
type Verifier func(tx *transaction.Transaction) Result

// Add verifies and inserts tx, evicting the lowest-priority entry if the
// pool is full and tx outranks it (spec §4.H "add(tx)").
func (p *Pool) Add(tx *transaction.Transaction, verify Verifier) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := tx.Hash()
	if _, ok := p.byHash[h]; ok {
		return AlreadyExists, nil
	}
	if verify != nil {
		if r := verify(tx); r != Succeed {
			return r, nil
		}
	}
	for _, a := range tx.Attributes {
		if a.Type != transaction.ConflictsT {
			continue
		}
		if existing, ok := p.byHash[a.ConflictHash]; ok {
			it := &item{tx: tx, arrival: p.arrival}
			if !less(it, existing) {
				return PolicyFail, ErrConflict
			}
			p.removeLocked(a.ConflictHash)
		}
	}

	it := &item{tx: tx, arrival: p.arrival}
	p.arrival++

	if len(p.byHash) >= p.capacity {
		worst := p.heap[0]
		if !less(it, worst) {
			return PolicyFail, ErrFull
		}
		p.removeLocked(worst.tx.Hash())
	}

	p.byHash[h] = it
	heap.Push(&p.heap, it)
	p.senderFee[tx.Sender()] += tx.SystemFee
	return Succeed, nil
}

// Remove drops hash from the pool, a no-op if it isn't present.
func (p *Pool) Remove(hash util.Uint256) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(hash)
}

func (p *Pool) removeLocked(hash util.Uint256) {
	it, ok := p.byHash[hash]
	if !ok {
		return
	}
	heap.Remove(&p.heap, it.heapIdx)
	delete(p.byHash, hash)
	p.senderFee[it.tx.Sender()] -= it.tx.SystemFee
	if p.senderFee[it.tx.Sender()] <= 0 {
		delete(p.senderFee, it.tx.Sender())
	}
}

// Contains reports whether hash is currently pooled.
func (p *Pool) Contains(hash util.Uint256) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byHash[hash]
	return ok
}

// Size returns the current pool population.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byHash)
}

// All returns every pooled transaction, in no particular order, for
// RPC's getrawmempool.
func (p *Pool) All() []*transaction.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*transaction.Transaction, 0, len(p.byHash))
	for _, it := range p.byHash {
		out = append(out, it.tx)
	}
	return out
}

// SenderSystemFee returns the cumulative pooled system_fee for sender,
// the verification_context balance check needs (spec §4.H
// "verification_context counting cumulative per-sender system fee").
func (p *Pool) SenderSystemFee(sender util.Uint160) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.senderFee[sender]
}

// TakeForBlock greedily selects transactions by priority order up to
// maxCount entries, maxSize total bytes, and maxSystemFee total system
// fee (spec §4.H "take_for_block").
func (p *Pool) TakeForBlock(maxCount, maxSize int, maxSystemFee int64) []*transaction.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	ordered := make([]*item, len(p.heap))
	copy(ordered, p.heap)
	sortByPriority(ordered)

	out := make([]*transaction.Transaction, 0, maxCount)
	var size int
	var sysFee int64
	for _, it := range ordered {
		if len(out) >= maxCount {
			break
		}
		sz := it.tx.Size()
		if size+sz > maxSize {
			continue
		}
		if sysFee+it.tx.SystemFee > maxSystemFee {
			continue
		}
		out = append(out, it.tx)
		size += sz
		sysFee += it.tx.SystemFee
	}
	return out
}

func sortByPriority(items []*item) {
	// insertion sort: block candidate sizes are bounded by
	// max_transactions_per_block, not worth pulling in a full sort
	// package dependency for what's already a small slice.
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && less(items[j], items[j-1]); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// OnBlockPersisted removes every transaction included in a committed
// block, plus any that became invalid as a result (expired below the
// new height, or whose Conflicts target was just confirmed), the
// cleanup spec §4.H "On block applied" requires.
func (p *Pool) OnBlockPersisted(included []util.Uint256, newHeight uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	inBlock := make(map[util.Uint256]bool, len(included))
	for _, h := range included {
		inBlock[h] = true
		p.removeLocked(h)
	}
	var stale []util.Uint256
	for h, it := range p.byHash {
		if it.tx.ValidUntilBlock <= newHeight {
			stale = append(stale, h)
			continue
		}
		for _, a := range it.tx.Attributes {
			if a.Type == transaction.ConflictsT && inBlock[a.ConflictHash] {
				stale = append(stale, h)
				break
			}
		}
	}
	for _, h := range stale {
		p.removeLocked(h)
	}
}
