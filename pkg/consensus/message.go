// Package consensus implements the dBFT validator state machine (spec
// §4.J) as an explicit Mealy machine — (state, event) -> (state, [output
// events]) — per the redesign flag against the source's coroutine-style
// event handlers (spec §9 REDESIGN FLAGS). Message and payload shapes
// follow the teacher's pkg/consensus wire types; the round state machine
// itself is hand-rolled against spec §4.J rather than wired to
// github.com/nspcc-dev/dbft, whose generic Config/callback surface the
// pack did not retrieve source for.
package consensus

import (
	"errors"

	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

var errInvalidWitnessCount = errors.New("consensus: payload witness count must be exactly 1")

// MessageType tags a consensus payload's concrete body (spec §4.J
// "Messages").
type MessageType byte

// Message types.
const (
	ChangeViewType MessageType = iota
	PrepareRequestType
	PrepareResponseType
	CommitType
	RecoveryRequestType
	RecoveryMessageType
)

func (t MessageType) String() string {
	switch t {
	case ChangeViewType:
		return "ChangeView"
	case PrepareRequestType:
		return "PrepareRequest"
	case PrepareResponseType:
		return "PrepareResponse"
	case CommitType:
		return "Commit"
	case RecoveryRequestType:
		return "RecoveryRequest"
	case RecoveryMessageType:
		return "RecoveryMessage"
	default:
		return "Unknown"
	}
}

// ChangeViewReason explains why a validator is requesting a view change
// (spec §4.J "View changes").
type ChangeViewReason byte

// Reasons.
const (
	ReasonTimeout ChangeViewReason = iota
	ReasonChangeAgreement
	ReasonTxNotFound
	ReasonTxRejectedByPolicy
	ReasonTxInvalid
	ReasonBlockRejectedByPolicy
)

// PrepareRequest is the primary's block proposal (spec §4.J).
type PrepareRequest struct {
	Timestamp         uint64
	Nonce             uint64
	TransactionHashes []util.Uint256
}

// EncodeBinary implements io.Serializable.
func (p *PrepareRequest) EncodeBinary(w *io.BinWriter) {
	w.WriteU64LE(p.Timestamp)
	w.WriteU64LE(p.Nonce)
	io.WriteArray(w, p.TransactionHashes, func(w *io.BinWriter, h util.Uint256) {
		w.WriteBytes(h[:])
	})
}

// DecodeBinary implements io.Serializable.
func (p *PrepareRequest) DecodeBinary(r *io.BinReader) {
	p.Timestamp = r.ReadU64LE()
	p.Nonce = r.ReadU64LE()
	p.TransactionHashes = io.ReadArray(r, func(r *io.BinReader) util.Uint256 {
		var h util.Uint256
		r.ReadBytes(h[:])
		return h
	})
}

// PrepareResponse signals a backup's agreement with the outstanding
// PrepareRequest (spec §4.J).
type PrepareResponse struct {
	PreparationHash util.Uint256
}

// EncodeBinary implements io.Serializable.
func (p *PrepareResponse) EncodeBinary(w *io.BinWriter) { w.WriteBytes(p.PreparationHash[:]) }

// DecodeBinary implements io.Serializable.
func (p *PrepareResponse) DecodeBinary(r *io.BinReader) { r.ReadBytes(p.PreparationHash[:]) }

// ChangeView requests every validator move to a new view (spec §4.J).
type ChangeView struct {
	NewViewNumber byte
	Reason        ChangeViewReason
	Timestamp     uint64
}

// EncodeBinary implements io.Serializable.
func (c *ChangeView) EncodeBinary(w *io.BinWriter) {
	w.WriteB(c.NewViewNumber)
	w.WriteB(byte(c.Reason))
	w.WriteU64LE(c.Timestamp)
}

// DecodeBinary implements io.Serializable.
func (c *ChangeView) DecodeBinary(r *io.BinReader) {
	c.NewViewNumber = r.ReadB()
	c.Reason = ChangeViewReason(r.ReadB())
	c.Timestamp = r.ReadU64LE()
}

// Commit carries a validator's signature over the candidate block hash
// (spec §4.J).
type Commit struct {
	Signature [64]byte
}

// EncodeBinary implements io.Serializable.
func (c *Commit) EncodeBinary(w *io.BinWriter) { w.WriteBytes(c.Signature[:]) }

// DecodeBinary implements io.Serializable.
func (c *Commit) DecodeBinary(r *io.BinReader) { r.ReadBytes(c.Signature[:]) }

// RecoveryRequest asks peers for the current round's state (spec §4.J
// "Recovery").
type RecoveryRequest struct {
	Timestamp uint64
}

// EncodeBinary implements io.Serializable.
func (r *RecoveryRequest) EncodeBinary(w *io.BinWriter) { w.WriteU64LE(r.Timestamp) }

// DecodeBinary implements io.Serializable.
func (rr *RecoveryRequest) DecodeBinary(r *io.BinReader) { rr.Timestamp = r.ReadU64LE() }

// RecoveryMessage bundles everything a peer has observed for the current
// round so a recovering validator can resume (spec §4.J "Recovery").
type RecoveryMessage struct {
	ChangeViews      []Payload
	PrepareRequest   *Payload
	PrepareResponses []Payload
	Commits          []Payload
}

// EncodeBinary implements io.Serializable.
func (m *RecoveryMessage) EncodeBinary(w *io.BinWriter) {
	io.WriteArray(w, m.ChangeViews, func(w *io.BinWriter, p Payload) { p.EncodeBinary(w) })
	hasPR := m.PrepareRequest != nil
	w.WriteBool(hasPR)
	if hasPR {
		m.PrepareRequest.EncodeBinary(w)
	}
	io.WriteArray(w, m.PrepareResponses, func(w *io.BinWriter, p Payload) { p.EncodeBinary(w) })
	io.WriteArray(w, m.Commits, func(w *io.BinWriter, p Payload) { p.EncodeBinary(w) })
}

// DecodeBinary implements io.Serializable.
func (m *RecoveryMessage) DecodeBinary(r *io.BinReader) {
	m.ChangeViews = io.ReadArray(r, func(r *io.BinReader) Payload {
		var p Payload
		p.DecodeBinary(r)
		return p
	})
	if r.ReadBool() {
		m.PrepareRequest = new(Payload)
		m.PrepareRequest.DecodeBinary(r)
	}
	m.PrepareResponses = io.ReadArray(r, func(r *io.BinReader) Payload {
		var p Payload
		p.DecodeBinary(r)
		return p
	})
	m.Commits = io.ReadArray(r, func(r *io.BinReader) Payload {
		var p Payload
		p.DecodeBinary(r)
		return p
	})
}

// Payload is the signed envelope every consensus message travels in
// (spec §4.J "All consensus messages are signed... and carry
// (block_index, view_number, validator_index)").
type Payload struct {
	BlockIndex     uint32
	ValidatorIndex byte
	ViewNumber     byte
	Type           MessageType
	body           []byte
	Witness        transaction.Witness

	prepareRequest  *PrepareRequest
	prepareResponse *PrepareResponse
	changeView      *ChangeView
	commit          *Commit
	recoveryRequest *RecoveryRequest
	recoveryMessage *RecoveryMessage
}

// NewPrepareRequestPayload builds a Payload carrying a PrepareRequest body.
func NewPrepareRequestPayload(blockIndex uint32, view byte, validator byte, p *PrepareRequest) *Payload {
	return &Payload{BlockIndex: blockIndex, ViewNumber: view, ValidatorIndex: validator, Type: PrepareRequestType, prepareRequest: p}
}

// NewPrepareResponsePayload builds a Payload carrying a PrepareResponse body.
func NewPrepareResponsePayload(blockIndex uint32, view byte, validator byte, p *PrepareResponse) *Payload {
	return &Payload{BlockIndex: blockIndex, ViewNumber: view, ValidatorIndex: validator, Type: PrepareResponseType, prepareResponse: p}
}

// NewChangeViewPayload builds a Payload carrying a ChangeView body.
func NewChangeViewPayload(blockIndex uint32, view byte, validator byte, c *ChangeView) *Payload {
	return &Payload{BlockIndex: blockIndex, ViewNumber: view, ValidatorIndex: validator, Type: ChangeViewType, changeView: c}
}

// NewCommitPayload builds a Payload carrying a Commit body.
func NewCommitPayload(blockIndex uint32, view byte, validator byte, c *Commit) *Payload {
	return &Payload{BlockIndex: blockIndex, ViewNumber: view, ValidatorIndex: validator, Type: CommitType, commit: c}
}

// NewRecoveryRequestPayload builds a Payload carrying a RecoveryRequest body.
func NewRecoveryRequestPayload(blockIndex uint32, view byte, validator byte, rr *RecoveryRequest) *Payload {
	return &Payload{BlockIndex: blockIndex, ViewNumber: view, ValidatorIndex: validator, Type: RecoveryRequestType, recoveryRequest: rr}
}

// NewRecoveryMessagePayload builds a Payload carrying a RecoveryMessage body.
func NewRecoveryMessagePayload(blockIndex uint32, view byte, validator byte, m *RecoveryMessage) *Payload {
	return &Payload{BlockIndex: blockIndex, ViewNumber: view, ValidatorIndex: validator, Type: RecoveryMessageType, recoveryMessage: m}
}

// PrepareRequest returns the typed body, or nil if p does not carry one.
func (p *Payload) PrepareRequest() *PrepareRequest { return p.prepareRequest }

// PrepareResponse returns the typed body, or nil if p does not carry one.
func (p *Payload) PrepareResponse() *PrepareResponse { return p.prepareResponse }

// ChangeView returns the typed body, or nil if p does not carry one.
func (p *Payload) ChangeView() *ChangeView { return p.changeView }

// Commit returns the typed body, or nil if p does not carry one.
func (p *Payload) Commit() *Commit { return p.commit }

// RecoveryRequest returns the typed body, or nil if p does not carry one.
func (p *Payload) RecoveryRequest() *RecoveryRequest { return p.recoveryRequest }

// RecoveryMessage returns the typed body, or nil if p does not carry one.
func (p *Payload) RecoveryMessage() *RecoveryMessage { return p.recoveryMessage }

// signedPart serializes everything the Witness signs over.
func (p *Payload) signedPart() []byte {
	w := io.NewBufBinWriter()
	w.WriteU32LE(p.BlockIndex)
	w.WriteB(p.ValidatorIndex)
	w.WriteB(p.ViewNumber)
	w.WriteB(byte(p.Type))
	w.WriteVarBytes(p.encodeBody())
	return w.Bytes()
}

// Hash is the payload's content hash, what Witness signatures are over
// and what a PrepareResponse's PreparationHash references.
func (p *Payload) Hash() util.Uint256 {
	return hash.Hash256(p.signedPart())
}

func (p *Payload) encodeBody() []byte {
	w := io.NewBufBinWriter()
	switch p.Type {
	case PrepareRequestType:
		p.prepareRequest.EncodeBinary(w.BinWriter)
	case PrepareResponseType:
		p.prepareResponse.EncodeBinary(w.BinWriter)
	case ChangeViewType:
		p.changeView.EncodeBinary(w.BinWriter)
	case CommitType:
		p.commit.EncodeBinary(w.BinWriter)
	case RecoveryRequestType:
		p.recoveryRequest.EncodeBinary(w.BinWriter)
	case RecoveryMessageType:
		p.recoveryMessage.EncodeBinary(w.BinWriter)
	}
	return w.Bytes()
}

// EncodeBinary implements io.Serializable.
func (p *Payload) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(p.BlockIndex)
	w.WriteB(p.ValidatorIndex)
	w.WriteB(p.ViewNumber)
	w.WriteB(byte(p.Type))
	w.WriteVarBytes(p.encodeBody())
	w.WriteVarUint(1)
	p.Witness.EncodeBinary(w)
}

// DecodeBinary implements io.Serializable.
func (p *Payload) DecodeBinary(r *io.BinReader) {
	p.BlockIndex = r.ReadU32LE()
	p.ValidatorIndex = r.ReadB()
	p.ViewNumber = r.ReadB()
	p.Type = MessageType(r.ReadB())
	p.body = r.ReadVarBytes()
	if r.Err != nil {
		return
	}
	br := io.NewBinReaderFromBuf(p.body)
	switch p.Type {
	case PrepareRequestType:
		p.prepareRequest = new(PrepareRequest)
		p.prepareRequest.DecodeBinary(br)
	case PrepareResponseType:
		p.prepareResponse = new(PrepareResponse)
		p.prepareResponse.DecodeBinary(br)
	case ChangeViewType:
		p.changeView = new(ChangeView)
		p.changeView.DecodeBinary(br)
	case CommitType:
		p.commit = new(Commit)
		p.commit.DecodeBinary(br)
	case RecoveryRequestType:
		p.recoveryRequest = new(RecoveryRequest)
		p.recoveryRequest.DecodeBinary(br)
	case RecoveryMessageType:
		p.recoveryMessage = new(RecoveryMessage)
		p.recoveryMessage.DecodeBinary(br)
	}
	if br.Err != nil {
		r.Err = br.Err
		return
	}
	n := r.ReadVarUint()
	if r.Err == nil && n != 1 {
		r.Err = errInvalidWitnessCount
		return
	}
	p.Witness.DecodeBinary(r)
}
