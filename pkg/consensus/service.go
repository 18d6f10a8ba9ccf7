package consensus

import (
	"fmt"
	"sort"
	"time"

	"github.com/n3-core/node/pkg/core/block"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/crypto/keys"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/smartcontract"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm"
	"go.uber.org/zap"
)

// Config wires a Service to the rest of the node: the validator set for
// the round being built, this node's signing identity, timing knobs
// named after github.com/nspcc-dev/dbft's Config (TimePerBlock,
// MaxTimePerBlock) even though the state machine itself is hand-rolled,
// and the callbacks that cross into mempool/network/block-processor
// territory the consensus package otherwise has no business importing.
type Config struct {
	Validators keys.PublicKeys
	MyIndex    int
	PrivateKey *keys.PrivateKey

	TimePerBlock    time.Duration
	MaxTimePerBlock time.Duration

	// GetVerifiedTransactions returns mempool candidates for a proposal,
	// already priority-ordered (mempool.Pool.TakeForBlock).
	GetVerifiedTransactions func() []*transaction.Transaction
	// ProcessBlock hands a fully-committed block to the block processor.
	ProcessBlock func(b *block.Block) error
	// Now returns wall-clock time; overridable so tests control it.
	Now func() time.Time

	Log *zap.Logger
}

// Service runs the per-height consensus round as an explicit Mealy
// machine: Start/OnPayload/OnTimer are the only input events,
// each producing a state transition plus zero or more broadcasts or a
// ProcessBlock call as output (spec §4.J, redesign per spec §9).
type Service struct {
	cfg Config
	log *zap.Logger

	prevHash      util.Uint256
	prevTimestamp uint64

	round *roundState

	recoveryCache *payloadCache
}

// NewService constructs a Service from cfg; Start then begins a round at
// a given height after a given previous block.
func NewService(cfg Config) *Service {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{cfg: cfg, log: log, recoveryCache: newPayloadCache(100)}
}

func (s *Service) n() int { return len(s.cfg.Validators) }

// Phase reports the local round's current phase, for metrics/diagnostics.
func (s *Service) Phase() Phase { return s.round.phase }

// View reports the local round's current view number, for metrics/diagnostics.
func (s *Service) View() byte { return s.round.view }

// BlockIndex reports the block height the local round is building.
func (s *Service) BlockIndex() uint32 { return s.round.blockIndex }

func (s *Service) isPrimary() bool {
	return s.cfg.MyIndex == primaryIndex(s.round.blockIndex, s.round.view, s.n())
}

// Start begins a new round at blockIndex, immediately proposing if this
// node is the primary for view 0 (spec §4.J phase 1 "Initial").
func (s *Service) Start(blockIndex uint32, prevHash util.Uint256, prevTimestamp uint64) []*Payload {
	s.prevHash = prevHash
	s.prevTimestamp = prevTimestamp
	s.round = newRoundState(blockIndex)
	if s.isPrimary() {
		return s.propose()
	}
	return nil
}

// propose builds and broadcasts a PrepareRequest (spec §4.J phase 2
// "Primary proposes").
func (s *Service) propose() []*Payload {
	txs := s.cfg.GetVerifiedTransactions()
	hashes := make([]util.Uint256, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.Hash()
	}

	ts := s.prevTimestamp + 1
	if wall := uint64(s.cfg.Now().UnixMilli()); wall > ts {
		ts = wall
	}

	s.round.proposal = &PrepareRequest{Timestamp: ts, Nonce: nonceFor(s.round.blockIndex, s.round.view), TransactionHashes: hashes}
	s.round.transactionHashes = hashes
	s.round.proposedTxs = txs
	s.round.timestamp = ts
	s.round.nonce = s.round.proposal.Nonce
	s.round.phase = PhaseRequestSent

	payload := s.sign(NewPrepareRequestPayload(s.round.blockIndex, s.round.view, byte(s.cfg.MyIndex), s.round.proposal))
	s.round.prepareRequestHash = payload.Hash()

	out := []*Payload{payload}
	// The primary's own proposal counts as its preparation (spec §4.J
	// phase 4 "primary's PrepareRequest counts as its own").
	out = append(out, s.respondToPrepareRequest(payload)...)
	return out
}

func nonceFor(blockIndex uint32, view byte) uint64 {
	return uint64(blockIndex)<<8 | uint64(view)
}

// OnPayload dispatches an inbound consensus message to its handler,
// returning any payloads this node should broadcast in response.
func (s *Service) OnPayload(p *Payload) ([]*Payload, error) {
	if p.BlockIndex != s.round.blockIndex {
		return nil, nil // stale or ahead; recovery handles catch-up separately
	}
	s.recoveryCache.add(p)

	switch p.Type {
	case PrepareRequestType:
		return s.handlePrepareRequest(p)
	case PrepareResponseType:
		return s.handlePrepareResponse(p)
	case ChangeViewType:
		return s.handleChangeView(p)
	case CommitType:
		return s.handleCommit(p)
	case RecoveryRequestType:
		return s.handleRecoveryRequest(p)
	case RecoveryMessageType:
		return s.handleRecoveryMessage(p)
	default:
		return nil, fmt.Errorf("consensus: unknown message type %v", p.Type)
	}
}

// handlePrepareRequest validates an incoming proposal and, if valid,
// responds with this node's PrepareResponse (spec §4.J phase 3).
func (s *Service) handlePrepareRequest(p *Payload) ([]*Payload, error) {
	if p.ViewNumber != s.round.view || int(p.ValidatorIndex) != primaryIndex(s.round.blockIndex, s.round.view, s.n()) {
		return nil, nil
	}
	if s.round.proposal != nil {
		// Spec §4.J invariant: at most one PrepareRequest per
		// (block_index, view, primary); a second, differing proposal
		// from the same primary is Byzantine.
		if s.round.prepareRequestHash != p.Hash() {
			return nil, fmt.Errorf("consensus: primary %d sent conflicting PrepareRequest for view %d", p.ValidatorIndex, p.ViewNumber)
		}
		return nil, nil
	}
	pr := p.PrepareRequest()
	if pr.Timestamp <= s.prevTimestamp {
		return s.requestViewChange(ReasonTxInvalid), nil
	}

	s.round.proposal = pr
	s.round.prepareRequestHash = p.Hash()
	s.round.transactionHashes = pr.TransactionHashes
	s.round.timestamp = pr.Timestamp
	s.round.nonce = pr.Nonce
	s.round.phase = PhaseRequestReceived

	return s.respondToPrepareRequest(p), nil
}

// respondToPrepareRequest signs and emits this node's PrepareResponse for
// payload p, then immediately folds it into the local tally (so the
// primary's own response, and a backup's own response, are counted
// without a network round trip).
func (s *Service) respondToPrepareRequest(p *Payload) []*Payload {
	resp := s.sign(NewPrepareResponsePayload(s.round.blockIndex, s.round.view, byte(s.cfg.MyIndex), &PrepareResponse{PreparationHash: p.Hash()}))
	out := []*Payload{resp}
	more, _ := s.handlePrepareResponse(resp)
	return append(out, more...)
}

// handlePrepareResponse tallies a PrepareResponse and, once M responses
// (including the primary's own) are collected, advances to Commit (spec
// §4.J phase 4 "Collect M preparations").
func (s *Service) handlePrepareResponse(p *Payload) ([]*Payload, error) {
	if p.ViewNumber != s.round.view {
		return nil, nil
	}
	if s.round.proposal == nil || p.PrepareResponse().PreparationHash != s.round.prepareRequestHash {
		return nil, nil
	}
	s.round.prepareResponses[p.ValidatorIndex] = p
	if s.round.phase >= PhaseSignatureSent {
		return nil, nil
	}
	if len(s.round.prepareResponses) < quorum(s.n()) {
		return nil, nil
	}
	return s.sendCommit(), nil
}

// sendCommit signs the candidate block hash and broadcasts a Commit,
// also folding it into the local tally (spec §4.J phase 4).
func (s *Service) sendCommit() []*Payload {
	s.round.phase = PhaseSignatureSent
	blockHash := s.candidateBlockHash()
	sig, err := s.cfg.PrivateKey.Sign(blockHash[:])
	if err != nil {
		s.log.Error("consensus: failed to sign commit", zap.Error(err))
		return nil
	}
	var c Commit
	copy(c.Signature[:], sig)
	commit := s.sign(NewCommitPayload(s.round.blockIndex, s.round.view, byte(s.cfg.MyIndex), &c))
	out := []*Payload{commit}
	more, _ := s.handleCommit(commit)
	return append(out, more...)
}

// handleCommit tallies a Commit and, once M are collected, assembles and
// delivers the final block (spec §4.J phase 5 "Collect M commits").
func (s *Service) handleCommit(p *Payload) ([]*Payload, error) {
	if s.round.proposal == nil {
		return nil, nil // a commit can arrive before this node has the proposal; recovery covers that case
	}
	s.round.commits[p.ValidatorIndex] = p
	if s.round.phase >= PhaseBlockSent {
		return nil, nil
	}
	if len(s.round.commits) < quorum(s.n()) {
		return nil, nil
	}
	s.round.phase = PhaseBlockSent
	b, err := s.assembleBlock()
	if err != nil {
		return nil, err
	}
	if err := s.cfg.ProcessBlock(b); err != nil {
		return nil, fmt.Errorf("consensus: process committed block: %w", err)
	}
	return nil, nil
}

// candidateBlockHash computes the hash of the block the round is
// preparing, without its witness (spec §4.J invariant "commit signature
// is bound to the exact block hash derived from the prepared
// transactions").
func (s *Service) candidateBlockHash() util.Uint256 {
	h := s.buildHeader()
	return h.Hash()
}

func (s *Service) buildHeader() *block.Header {
	hashes := make([]util.Uint256, len(s.round.proposedTxs))
	for i, tx := range s.round.proposedTxs {
		hashes[i] = tx.Hash()
	}
	return &block.Header{
		Version:       0,
		PrevHash:      s.prevHash,
		MerkleRoot:    hash.MerkleRoot(hashes),
		Timestamp:     s.round.timestamp,
		Nonce:         s.round.nonce,
		Index:         s.round.blockIndex,
		PrimaryIndex:  byte(primaryIndex(s.round.blockIndex, s.round.view, s.n())),
		NextConsensus: s.nextConsensusHash(),
	}
}

// assembleBlock reconstructs the multi-sig witness from aggregated
// commit signatures ordered by validator index and builds the full
// block (spec §4.J phase 5).
func (s *Service) assembleBlock() (*block.Block, error) {
	h := s.buildHeader()

	m := quorum(s.n())
	pubs := make([][]byte, s.n())
	for i, pk := range s.cfg.Validators {
		pubs[i] = pk.Bytes()
	}
	script, err := smartcontract.CreateMultiSigRedeemScript(m, pubs)
	if err != nil {
		return nil, err
	}
	h.NextConsensus = s.nextConsensusHash()

	invocation := buildInvocationScript(s.round.commits, m)
	h.Witness = transaction.Witness{InvocationScript: invocation, VerificationScript: script}

	return &block.Block{Header: *h, Transactions: s.round.proposedTxs}, nil
}

// nextConsensusHash derives the script hash authorising the block after
// this one. Rotating committees are a ledger concern (native NeoToken);
// lacking that wiring here, the round's own validator set stands in,
// which is correct whenever the committee hasn't changed since the
// round's validators were read.
func (s *Service) nextConsensusHash() util.Uint160 {
	m := quorum(s.n())
	pubs := make([][]byte, s.n())
	for i, pk := range s.cfg.Validators {
		pubs[i] = pk.Bytes()
	}
	script, err := smartcontract.CreateMultiSigRedeemScript(m, pubs)
	if err != nil {
		return util.Uint160{}
	}
	w := transaction.Witness{VerificationScript: script}
	return w.ScriptHash()
}

// sign fills in p's Witness with this node's signature over its signed
// part, storing the raw signature bytes as the invocation script (no
// verification script: the payload's authenticity is checked by PublicKey.Verify
// against the sender's known validator key, spec §4.J "All consensus
// messages are signed by their validator").
func (s *Service) sign(p *Payload) *Payload {
	sig, err := s.cfg.PrivateKey.Sign(p.signedPart())
	if err != nil {
		s.log.Error("consensus: failed to sign payload", zap.Error(err))
		return p
	}
	p.Witness = transaction.Witness{InvocationScript: sig}
	return p
}

// Verify reports whether p's signature matches the validator at
// p.ValidatorIndex.
func (s *Service) Verify(p *Payload) bool {
	if int(p.ValidatorIndex) >= s.n() {
		return false
	}
	return s.cfg.Validators[p.ValidatorIndex].Verify(p.Witness.InvocationScript, p.signedPart())
}

// requestViewChange broadcasts a ChangeView for reason, advancing this
// node's view immediately (spec §4.J "View changes").
func (s *Service) requestViewChange(reason ChangeViewReason) []*Payload {
	newView := s.round.view + 1
	cv := &ChangeView{NewViewNumber: newView, Reason: reason, Timestamp: uint64(s.cfg.Now().UnixMilli())}
	payload := s.sign(NewChangeViewPayload(s.round.blockIndex, s.round.view, byte(s.cfg.MyIndex), cv))
	s.round.phase = PhaseViewChanging
	out := []*Payload{payload}
	more, _ := s.handleChangeView(payload)
	return append(out, more...)
}

// handleChangeView tallies a ChangeView and, once M validators have
// requested the same new view, switches the round to it and re-proposes
// if this node becomes primary (spec §4.J "View changes").
func (s *Service) handleChangeView(p *Payload) ([]*Payload, error) {
	cv := p.ChangeView()
	if cv.NewViewNumber <= s.round.view {
		return nil, nil
	}
	s.round.viewChanges[p.ValidatorIndex] = p
	count := 0
	for _, vc := range s.round.viewChanges {
		if vc.ChangeView().NewViewNumber >= cv.NewViewNumber {
			count++
		}
	}
	if count < quorum(s.n()) {
		return nil, nil
	}
	s.round.resetView(cv.NewViewNumber)
	if s.isPrimary() {
		return s.propose(), nil
	}
	return nil, nil
}

// OnTimer fires when the phase timer for (blockIndex, view) expires,
// triggering a view change (spec §4.J "Cancellation & timing").
func (s *Service) OnTimer(blockIndex uint32, view byte) []*Payload {
	if blockIndex != s.round.blockIndex || view != s.round.view {
		return nil // stale timer; the phase already advanced and cancelled it
	}
	if s.round.phase == PhaseBlockSent {
		return nil
	}
	return s.requestViewChange(ReasonTimeout)
}

// handleRecoveryRequest replies with the change views, preparation
// responses and commits this node has tallied for the current round
// (spec §4.J "Recovery"). The PrepareRequest is included only when this
// node is the round's primary; a backup does not relay the one it received.
func (s *Service) handleRecoveryRequest(p *Payload) ([]*Payload, error) {
	msg := &RecoveryMessage{}
	for _, vc := range s.round.viewChanges {
		msg.ChangeViews = append(msg.ChangeViews, *vc)
	}
	for _, pr := range s.round.prepareResponses {
		msg.PrepareResponses = append(msg.PrepareResponses, *pr)
	}
	for _, c := range s.round.commits {
		msg.Commits = append(msg.Commits, *c)
	}
	if s.round.proposal != nil && s.isPrimary() {
		pr := NewPrepareRequestPayload(s.round.blockIndex, s.round.view, byte(s.cfg.MyIndex), s.round.proposal)
		msg.PrepareRequest = s.sign(pr)
	}
	reply := s.sign(NewRecoveryMessagePayload(s.round.blockIndex, s.round.view, byte(s.cfg.MyIndex), msg))
	return []*Payload{reply}, nil
}

// handleRecoveryMessage independently validates and applies every
// message bundled in a RecoveryMessage (spec §4.J "the requester
// validates each contained message independently").
func (s *Service) handleRecoveryMessage(p *Payload) ([]*Payload, error) {
	msg := p.RecoveryMessage()
	var out []*Payload
	if msg.PrepareRequest != nil && s.Verify(msg.PrepareRequest) {
		more, _ := s.handlePrepareRequest(msg.PrepareRequest)
		out = append(out, more...)
	}
	for i := range msg.PrepareResponses {
		if s.Verify(&msg.PrepareResponses[i]) {
			more, _ := s.handlePrepareResponse(&msg.PrepareResponses[i])
			out = append(out, more...)
		}
	}
	for i := range msg.Commits {
		if s.Verify(&msg.Commits[i]) {
			more, _ := s.handleCommit(&msg.Commits[i])
			out = append(out, more...)
		}
	}
	for i := range msg.ChangeViews {
		if s.Verify(&msg.ChangeViews[i]) {
			more, _ := s.handleChangeView(&msg.ChangeViews[i])
			out = append(out, more...)
		}
	}
	return out, nil
}

// buildInvocationScript concatenates up to m commit signatures in
// ascending validator-index order into a CheckMultisig invocation
// script (spec §4.J phase 5 "reconstruct the multi-sig witness from
// aggregated signatures ordered by validator index").
func buildInvocationScript(commits map[byte]*Payload, m int) []byte {
	indices := make([]byte, 0, len(commits))
	for idx := range commits {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	w := io.NewBufBinWriter()
	for _, idx := range indices[:minInt(m, len(indices))] {
		sig := commits[idx].Commit().Signature
		vm.EmitBytes(w.BinWriter, sig[:])
	}
	return w.Bytes()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// payloadCache is a small FIFO of recently seen payloads, grounded on
// the teacher's relayCache (consensus.go's cacheMaxCapacity pattern),
// used to answer GetPayload-style relay lookups without unbounded
// growth.
type payloadCache struct {
	capacity int
	order    []util.Uint256
	byHash   map[util.Uint256]*Payload
}

func newPayloadCache(capacity int) *payloadCache {
	return &payloadCache{capacity: capacity, byHash: make(map[util.Uint256]*Payload)}
}

func (c *payloadCache) add(p *Payload) {
	h := p.Hash()
	if _, ok := c.byHash[h]; ok {
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.byHash, oldest)
	}
	c.order = append(c.order, h)
	c.byHash[h] = p
}

func (c *payloadCache) get(h util.Uint256) *Payload { return c.byHash[h] }
