package consensus

import (
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/util"
)

// Phase is a validator's position in the current round (spec §4.J
// "Phases (per block height)").
type Phase byte

// Phases.
const (
	PhaseInitial Phase = iota
	PhaseRequestSent
	PhaseRequestReceived
	PhaseSignatureSent
	PhaseBlockSent
	PhaseViewChanging
)

func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "Initial"
	case PhaseRequestSent:
		return "RequestSent"
	case PhaseRequestReceived:
		return "RequestReceived"
	case PhaseSignatureSent:
		return "SignatureSent"
	case PhaseBlockSent:
		return "BlockSent"
	case PhaseViewChanging:
		return "ViewChanging"
	default:
		return "Unknown"
	}
}

// roundState is the per-round state spec §4.J names explicitly: "view_number,
// block_index, phase, prepare_request_hash, proposed_transactions,
// transaction_hashes, timestamp, nonce, ..., prepare_responses[validator_idx],
// commits[validator_idx], view_changes[validator_idx]". Kept as one flat
// struct per the REDESIGN FLAGS instruction against nested sub-machines
// (spec §9; original_source/include/neo/consensus/consensus_state.h
// confirms the original's per-round state is flat too).
type roundState struct {
	blockIndex uint32
	view       byte
	phase      Phase

	prepareRequestHash util.Uint256
	proposal           *PrepareRequest
	transactionHashes  []util.Uint256
	proposedTxs        []*transaction.Transaction

	timestamp uint64
	nonce     uint64

	blockSize       int
	totalSystemFee  int64
	totalNetworkFee int64

	prepareResponses map[byte]*Payload
	commits          map[byte]*Payload
	viewChanges      map[byte]*Payload
}

func newRoundState(blockIndex uint32) *roundState {
	return &roundState{
		blockIndex:       blockIndex,
		prepareResponses: make(map[byte]*Payload),
		commits:          make(map[byte]*Payload),
		viewChanges:      make(map[byte]*Payload),
	}
}

// resetView clears everything view-scoped while keeping commits, which
// (being bound to the block hash rather than the view) survive a view
// change observed after commits were already sent — matching spec §4.J's
// safety invariant that a commit, once made, is never retracted.
func (s *roundState) resetView(newView byte) {
	s.view = newView
	s.phase = PhaseInitial
	s.prepareRequestHash = util.Uint256{}
	s.proposal = nil
	s.transactionHashes = nil
	s.proposedTxs = nil
	s.prepareResponses = make(map[byte]*Payload)
	s.viewChanges = make(map[byte]*Payload)
}

// primaryIndex returns V[(h - v) mod N] per spec §4.J "Roles per view".
// h - v is done in signed arithmetic: view can exceed blockIndex after a
// view change near genesis, and an unsigned wraparound subtraction gives
// the wrong leader for any n that doesn't divide 2^32.
func primaryIndex(blockIndex uint32, view byte, n int) int {
	h, v, nn := int64(blockIndex), int64(view), int64(n)
	return int(((h-v)%nn + nn) % nn)
}

// quorum returns M = N - f for n validators.
func quorum(n int) int {
	f := (n - 1) / 3
	return n - f
}
